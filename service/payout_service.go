package service

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"payengine/events"
	"payengine/models"
	"payengine/provider"
	"payengine/routing"
)

// Originating account all payouts are funded from
const originatingAccountID = "internal_usd_001"

// payoutService implements the PayoutOrchestrator interface
type payoutService struct {
	uowFactory UnitOfWorkFactory
	provider   provider.PaymentProvider
	retry      *provider.RetryPolicy
	workers    int
}

// NewPayoutService creates the payout orchestrator. workers bounds how many
// payouts are processed concurrently; each payout's pipeline runs
// sequentially within one worker.
func NewPayoutService(uowFactory UnitOfWorkFactory, pr provider.PaymentProvider, retry *provider.RetryPolicy, workers int) PayoutOrchestrator {
	if workers < 1 {
		workers = 1
	}
	return &payoutService{
		uowFactory: uowFactory,
		provider:   pr,
		retry:      retry,
		workers:    workers,
	}
}

// payoutOutcome is the terminal result of processing one payout
type payoutOutcome struct {
	status models.PayoutStatus
	reason models.SkipReason
}

// RunPayouts executes a full payout run for a liquidation event
func (s *payoutService) RunPayouts(ctx context.Context, liquidationEventID string) (*models.PayoutRun, error) {
	run, event, investors, err := s.startRun(ctx, liquidationEventID)
	if err != nil {
		return run, err
	}

	log.WithFields(log.Fields{
		"runId":     run.ID,
		"eventId":   liquidationEventID,
		"investors": len(investors),
		"workers":   s.workers,
	}).Info("Starting payout run")

	// Equal split of the event proceeds across the candidate set
	shareCents := event.TotalAmountCents
	if len(investors) > 0 {
		shareCents = event.TotalAmountCents / int64(len(investors))
	}

	outcomes := s.processAll(ctx, run, event, investors, shareCents)

	breakdown := make(map[string]int)
	for _, outcome := range outcomes {
		switch outcome.status {
		case models.PayoutStatusCreated:
			run.CreatedCount++
		case models.PayoutStatusSkipped:
			run.SkippedCount++
			breakdown[string(outcome.reason)]++
		case models.PayoutStatusFailed:
			run.FailedCount++
		}
	}
	run.SkipBreakdown = breakdown

	// The summary write must survive cancellation: the processed payouts are
	// already durable, so the run record has to reflect them.
	if err := s.completeRun(context.WithoutCancel(ctx), run); err != nil {
		return run, err
	}

	log.WithFields(log.Fields{
		"runId":   run.ID,
		"eventId": liquidationEventID,
		"created": run.CreatedCount,
		"skipped": run.SkippedCount,
		"failed":  run.FailedCount,
	}).Info("Payout run finished")

	return run, nil
}

// startRun creates the run record, audits run_started and loads the
// candidate context
func (s *payoutService) startRun(ctx context.Context, liquidationEventID string) (*models.PayoutRun, *models.LiquidationEvent, []*models.Investor, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to begin run transaction: %w", err)
	}
	defer uow.Rollback()

	run := &models.PayoutRun{LiquidationEventID: liquidationEventID}
	if err := uow.PayoutRunRepository().Create(ctx, run); err != nil {
		return nil, nil, nil, err
	}

	event, err := uow.LiquidationEventRepository().GetByID(ctx, liquidationEventID)
	if err != nil {
		return nil, nil, nil, err
	}
	if event == nil {
		if err := uow.PayoutRunRepository().MarkFailed(ctx, run.ID); err != nil {
			return nil, nil, nil, err
		}
		run.Status = models.RunStatusFailed
		if err := uow.Commit(); err != nil {
			return nil, nil, nil, err
		}
		return run, nil, nil, fmt.Errorf("%w: %s", models.ErrEventNotFound, liquidationEventID)
	}

	err = uow.AuditLogRepository().Append(ctx, &models.AuditLogEntry{
		RunID:  run.ID,
		Action: models.AuditActionRunStarted,
		Details: map[string]interface{}{
			"liquidation_event_id": liquidationEventID,
		},
	})
	if err != nil {
		return nil, nil, nil, err
	}

	investors, err := uow.InvestorRepository().GetAll(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, nil, nil, err
	}
	return run, event, investors, nil
}

// processAll fans the candidate set out over the worker pool and collects
// terminal outcomes. Cancellation is cooperative: no new payout starts after
// the context is done, but an in-flight payout always reaches a terminal
// state.
func (s *payoutService) processAll(ctx context.Context, run *models.PayoutRun, event *models.LiquidationEvent, investors []*models.Investor, shareCents int64) []payoutOutcome {
	jobs := make(chan *models.Investor)
	results := make(chan payoutOutcome, len(investors))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inv := range jobs {
				results <- s.processPayout(ctx, run, event, inv, shareCents)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, inv := range investors {
			select {
			case jobs <- inv:
			case <-ctx.Done():
				log.WithFields(log.Fields{
					"runId": run.ID,
				}).Warn("Run cancelled, remaining payouts deferred to the next run")
				return
			}
		}
	}()

	wg.Wait()
	close(results)

	outcomes := make([]payoutOutcome, 0, len(investors))
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// completeRun stores the summary, audits run_completed and publishes the
// completion event
func (s *payoutService) completeRun(ctx context.Context, run *models.PayoutRun) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin summary transaction: %w", err)
	}
	defer uow.Rollback()

	err := uow.AuditLogRepository().Append(ctx, &models.AuditLogEntry{
		RunID:  run.ID,
		Action: models.AuditActionRunCompleted,
		Details: map[string]interface{}{
			"created":        run.CreatedCount,
			"skipped":        run.SkippedCount,
			"failed":         run.FailedCount,
			"skip_breakdown": run.SkipBreakdown,
		},
	})
	if err != nil {
		return err
	}

	if err := uow.PayoutRunRepository().Complete(ctx, run); err != nil {
		return err
	}

	uow.EventBus().Publish(events.RunCompletedEvent{
		RunID:              run.ID,
		LiquidationEventID: run.LiquidationEventID,
		Created:            run.CreatedCount,
		Skipped:            run.SkippedCount,
		Failed:             run.FailedCount,
		SkipBreakdown:      run.SkipBreakdown,
	})

	return uow.Commit()
}

// processPayout drives one payout through eligibility, routing, execution
// and audit. Every terminal state commits its audit entry in the same
// transaction as the state change, so durable state always has a causal
// trail.
func (s *payoutService) processPayout(ctx context.Context, run *models.PayoutRun, event *models.LiquidationEvent, investor *models.Investor, shareCents int64) payoutOutcome {
	payout, account, decision, proceed, outcome := s.prepare(ctx, run, event, investor, shareCents)
	if !proceed {
		return outcome
	}

	req := buildOrderRequest(event, payout, investor, account, decision)
	resp, err := s.retry.Execute(ctx, s.provider, req)
	if err != nil {
		return s.recordFailure(ctx, run, payout, investor, decision, err)
	}
	return s.recordSuccess(ctx, run, payout, investor, decision, resp)
}

// prepare runs the eligibility and routing stages in one transaction.
// proceed is true only when the payout was claimed for execution.
func (s *payoutService) prepare(ctx context.Context, run *models.PayoutRun, event *models.LiquidationEvent, investor *models.Investor, shareCents int64) (payout *models.Payout, account *models.ExternalAccount, decision routing.Decision, proceed bool, outcome payoutOutcome) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, decision, false, s.pipelineError(run, investor, "begin", err)
	}
	defer uow.Rollback()

	payout, err := uow.PayoutRepository().EnsureForEvent(ctx, event.ID, investor, shareCents, "USD")
	if err != nil {
		return nil, nil, decision, false, s.pipelineError(run, investor, "ensure payout", err)
	}

	account, err = uow.ExternalAccountRepository().GetByInvestorID(ctx, investor.ID)
	if err != nil {
		return nil, nil, decision, false, s.pipelineError(run, investor, "load account", err)
	}

	verdict := CheckEligibility(investor, account, payout)

	err = uow.AuditLogRepository().Append(ctx, &models.AuditLogEntry{
		RunID:    run.ID,
		PayoutID: payout.ID,
		Action:   models.AuditActionEligibilityChecked,
		Details: map[string]interface{}{
			"eligible": verdict.Eligible,
			"reason":   string(verdict.SkipReason),
			"detail":   verdict.Detail,
		},
	})
	if err != nil {
		return nil, nil, decision, false, s.pipelineError(run, investor, "audit eligibility", err)
	}

	if !verdict.Eligible {
		outcome, err := s.skip(ctx, uow, run, payout, verdict.SkipReason, verdict.Detail)
		if err != nil {
			return nil, nil, decision, false, s.pipelineError(run, investor, "record skip", err)
		}
		return nil, nil, decision, false, outcome
	}

	decision = routing.SelectRail(investor.Country, account.AccountType, account.HasUSRouting())

	err = uow.AuditLogRepository().Append(ctx, &models.AuditLogEntry{
		RunID:    run.ID,
		PayoutID: payout.ID,
		Action:   models.AuditActionRailSelected,
		Details: map[string]interface{}{
			"country":      investor.Country,
			"rail":         decision.Rail,
			"currency":     decision.Currency,
			"cross_border": decision.CrossBorder,
			"fx":           decision.FXIndicator,
			"label":        decision.Label,
		},
	})
	if err != nil {
		return nil, nil, decision, false, s.pipelineError(run, investor, "audit routing", err)
	}

	claimed, err := uow.PayoutRepository().ClaimForRouting(ctx, payout.ID, run.ID, decision)
	if err != nil {
		return nil, nil, decision, false, s.pipelineError(run, investor, "claim payout", err)
	}
	if !claimed {
		// A concurrent run won the uniqueness race; re-resolve to a skip
		// instead of surfacing an error. The re-read distinguishes a
		// recorded order from a claim still in flight.
		current, err := uow.PayoutRepository().GetByID(ctx, payout.ID)
		if err != nil {
			return nil, nil, decision, false, s.pipelineError(run, investor, "reload claimed payout", err)
		}
		reason := models.SkipReasonPayoutInProgress
		detail := "payout claimed by a concurrent run"
		if current != nil && current.PaymentOrderID != "" {
			reason = models.SkipReasonExistingPaymentOrder
			detail = "payment order already recorded by a concurrent run"
		}
		outcome, err := s.skip(ctx, uow, run, payout, reason, detail)
		if err != nil {
			return nil, nil, decision, false, s.pipelineError(run, investor, "record race skip", err)
		}
		return nil, nil, decision, false, outcome
	}

	if err := uow.Commit(); err != nil {
		return nil, nil, decision, false, s.pipelineError(run, investor, "commit preparation", err)
	}
	return payout, account, decision, true, payoutOutcome{}
}

// skip audits the skip transition and marks the payout inside the open
// transaction, then commits
func (s *payoutService) skip(ctx context.Context, uow UnitOfWork, run *models.PayoutRun, payout *models.Payout, reason models.SkipReason, detail string) (payoutOutcome, error) {
	err := uow.AuditLogRepository().Append(ctx, &models.AuditLogEntry{
		RunID:    run.ID,
		PayoutID: payout.ID,
		Action:   models.AuditActionPaymentSkipped,
		Details: map[string]interface{}{
			"reason": string(reason),
			"detail": detail,
		},
	})
	if err != nil {
		return payoutOutcome{}, err
	}

	if err := uow.PayoutRepository().MarkSkipped(ctx, payout.ID, run.ID, reason); err != nil {
		return payoutOutcome{}, err
	}

	if err := uow.Commit(); err != nil {
		return payoutOutcome{}, err
	}

	log.WithFields(log.Fields{
		"runId":      run.ID,
		"payoutId":   payout.ID,
		"investorId": payout.InvestorID,
		"reason":     reason,
	}).Debug("Payout skipped")

	return payoutOutcome{status: models.PayoutStatusSkipped, reason: reason}, nil
}

// recordSuccess durably records the provider order together with its audit
// entry
func (s *payoutService) recordSuccess(ctx context.Context, run *models.PayoutRun, payout *models.Payout, investor *models.Investor, decision routing.Decision, resp *provider.OrderResponse) payoutOutcome {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithFields(log.Fields{
			"payoutId":       payout.ID,
			"paymentOrderId": resp.PaymentOrderID,
			"error":          err,
		}).Error("Provider order created but result transaction failed to begin; needs reconciliation")
		return payoutOutcome{status: models.PayoutStatusFailed}
	}
	defer uow.Rollback()

	recorded, err := uow.PayoutRepository().MarkCreated(ctx, payout.ID, resp.PaymentOrderID)
	if err != nil {
		log.WithFields(log.Fields{
			"payoutId":       payout.ID,
			"paymentOrderId": resp.PaymentOrderID,
			"error":          err,
		}).Error("Provider order created but could not be recorded; needs reconciliation")
		return payoutOutcome{status: models.PayoutStatusFailed}
	}

	if !recorded {
		// Another run recorded an order between our claim and now. The order
		// we just placed is orphaned and must be reconciled manually.
		log.WithFields(log.Fields{
			"payoutId":        payout.ID,
			"orphanedOrderId": resp.PaymentOrderID,
		}).Error("Concurrent run already recorded a payment order; orphaned provider order needs reconciliation")
		outcome, err := s.skip(ctx, uow, run, payout, models.SkipReasonExistingPaymentOrder, "payment order recorded by a concurrent run")
		if err != nil {
			return s.pipelineError(run, investor, "record race skip", err)
		}
		return outcome
	}

	err = uow.AuditLogRepository().Append(ctx, &models.AuditLogEntry{
		RunID:    run.ID,
		PayoutID: payout.ID,
		Action:   models.AuditActionPaymentCreated,
		Details: map[string]interface{}{
			"payment_order_id": resp.PaymentOrderID,
			"provider":         resp.Provider,
			"rail":             decision.Rail,
			"currency":         decision.Currency,
			"amount_cents":     payout.AmountCents,
		},
	})
	if err != nil {
		return s.pipelineError(run, investor, "audit creation", err)
	}

	uow.EventBus().Publish(events.PayoutCreatedEvent{
		RunID:          run.ID,
		PayoutID:       payout.ID,
		InvestorID:     investor.ID,
		Rail:           decision.Rail,
		Currency:       decision.Currency,
		AmountCents:    payout.AmountCents,
		PaymentOrderID: resp.PaymentOrderID,
	})

	if err := uow.Commit(); err != nil {
		log.WithFields(log.Fields{
			"payoutId":       payout.ID,
			"paymentOrderId": resp.PaymentOrderID,
			"error":          err,
		}).Error("Provider order created but result commit failed; needs reconciliation")
		return payoutOutcome{status: models.PayoutStatusFailed}
	}

	return payoutOutcome{status: models.PayoutStatusCreated}
}

// recordFailure moves the payout to failed and audits the terminal provider
// error with its classification
func (s *payoutService) recordFailure(ctx context.Context, run *models.PayoutRun, payout *models.Payout, investor *models.Investor, decision routing.Decision, provErr error) payoutOutcome {
	perr, retriable := provider.Classify(provErr)
	classification := "permanent"
	if retriable {
		classification = "retries_exhausted"
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return s.pipelineError(run, investor, "begin failure transaction", err)
	}
	defer uow.Rollback()

	if err := uow.PayoutRepository().MarkFailed(ctx, payout.ID); err != nil {
		return s.pipelineError(run, investor, "mark failed", err)
	}

	err := uow.AuditLogRepository().Append(ctx, &models.AuditLogEntry{
		RunID:    run.ID,
		PayoutID: payout.ID,
		Action:   models.AuditActionPaymentFailed,
		Details: map[string]interface{}{
			"error":          perr.Message,
			"status_code":    perr.StatusCode,
			"classification": classification,
			"rail":           decision.Rail,
		},
	})
	if err != nil {
		return s.pipelineError(run, investor, "audit failure", err)
	}

	uow.EventBus().Publish(events.PayoutFailedEvent{
		RunID:      run.ID,
		PayoutID:   payout.ID,
		InvestorID: investor.ID,
		Rail:       decision.Rail,
		StatusCode: perr.StatusCode,
		Reason:     perr.Message,
	})

	if err := uow.Commit(); err != nil {
		return s.pipelineError(run, investor, "commit failure", err)
	}

	return payoutOutcome{status: models.PayoutStatusFailed}
}

// pipelineError handles infrastructure failures inside a payout's pipeline.
// Fatal for that payout only: durable state is never advanced without its
// audit entry, the payout stays re-runnable, and the run continues.
func (s *payoutService) pipelineError(run *models.PayoutRun, investor *models.Investor, stage string, err error) payoutOutcome {
	log.WithFields(log.Fields{
		"runId":      run.ID,
		"investorId": investor.ID,
		"stage":      stage,
		"error":      err,
	}).Error("Payout pipeline error")
	return payoutOutcome{status: models.PayoutStatusFailed}
}

// buildOrderRequest maps a routed payout onto the provider contract
func buildOrderRequest(event *models.LiquidationEvent, payout *models.Payout, investor *models.Investor, account *models.ExternalAccount, decision routing.Decision) *provider.OrderRequest {
	descriptor := investor.ID
	if len(descriptor) > 10 {
		descriptor = descriptor[:10]
	}

	name := investor.Name
	if name == "" {
		name = investor.ID
	}

	return &provider.OrderRequest{
		Rail:                 decision.Rail,
		Currency:             decision.Currency,
		AmountCents:          payout.AmountCents,
		Direction:            "credit",
		OriginatingAccountID: originatingAccountID,
		ReceivingAccountID:   account.ID,
		EffectiveDate:        event.PayoutDate,
		Description:          fmt.Sprintf("Payout to %s", name),
		StatementDescriptor:  descriptor,
		Purpose:              decision.Purpose,
		CrossBorder:          decision.CrossBorder,
		FXIndicator:          decision.FXIndicator,
		Metadata: map[string]string{
			"event_id":    payout.LiquidationEventID,
			"investor_id": investor.ID,
			"country":     investor.Country,
		},
	}
}
