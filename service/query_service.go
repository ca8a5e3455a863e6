package service

import (
	"context"
	"fmt"

	"payengine/models"
)

// queryService implements read-only access for the API layer
type queryService struct {
	payoutRepo PayoutRepository
	runRepo    PayoutRunRepository
	auditRepo  AuditLogRepository
}

// NewQueryService creates the read-side service over pool-backed repositories
func NewQueryService(payoutRepo PayoutRepository, runRepo PayoutRunRepository, auditRepo AuditLogRepository) PayoutQuery {
	return &queryService{
		payoutRepo: payoutRepo,
		runRepo:    runRepo,
		auditRepo:  auditRepo,
	}
}

func (s *queryService) ListRuns(ctx context.Context) ([]*models.PayoutRun, error) {
	return s.runRepo.List(ctx)
}

func (s *queryService) GetRun(ctx context.Context, runID string) (*models.PayoutRun, []*models.Payout, error) {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	if run == nil {
		return nil, nil, nil
	}

	payouts, err := s.payoutRepo.ListByRun(ctx, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list payouts for run %s: %w", runID, err)
	}

	return run, payouts, nil
}

func (s *queryService) ListPayouts(ctx context.Context, filter models.PayoutFilter) ([]*models.Payout, error) {
	return s.payoutRepo.List(ctx, filter)
}

func (s *queryService) GetPayout(ctx context.Context, payoutID string) (*models.Payout, error) {
	return s.payoutRepo.GetByID(ctx, payoutID)
}

func (s *queryService) TracePayout(ctx context.Context, payoutID string) (*models.Payout, []*models.AuditLogEntry, error) {
	payout, err := s.payoutRepo.GetByID(ctx, payoutID)
	if err != nil {
		return nil, nil, err
	}
	if payout == nil {
		return nil, nil, nil
	}

	trail, err := s.auditRepo.ListByPayout(ctx, payoutID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load audit trail for payout %s: %w", payoutID, err)
	}

	return payout, trail, nil
}
