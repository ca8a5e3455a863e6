package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"payengine/events"
	"payengine/models"
	"payengine/routing"
)

// MockPayoutRepository is a mock implementation of PayoutRepository
type MockPayoutRepository struct {
	mock.Mock
}

func (m *MockPayoutRepository) EnsureForEvent(ctx context.Context, eventID string, investor *models.Investor, amountCents int64, currency string) (*models.Payout, error) {
	args := m.Called(ctx, eventID, investor, amountCents, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *MockPayoutRepository) GetByEventAndInvestor(ctx context.Context, eventID, investorID string) (*models.Payout, error) {
	args := m.Called(ctx, eventID, investorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *MockPayoutRepository) GetByID(ctx context.Context, id string) (*models.Payout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *MockPayoutRepository) ClaimForRouting(ctx context.Context, payoutID, runID string, decision routing.Decision) (bool, error) {
	args := m.Called(ctx, payoutID, runID, decision)
	return args.Bool(0), args.Error(1)
}

func (m *MockPayoutRepository) MarkSkipped(ctx context.Context, payoutID, runID string, reason models.SkipReason) error {
	args := m.Called(ctx, payoutID, runID, reason)
	return args.Error(0)
}

func (m *MockPayoutRepository) MarkCreated(ctx context.Context, payoutID, paymentOrderID string) (bool, error) {
	args := m.Called(ctx, payoutID, paymentOrderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPayoutRepository) MarkFailed(ctx context.Context, payoutID string) error {
	args := m.Called(ctx, payoutID)
	return args.Error(0)
}

func (m *MockPayoutRepository) List(ctx context.Context, filter models.PayoutFilter) ([]*models.Payout, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payout), args.Error(1)
}

func (m *MockPayoutRepository) ListByRun(ctx context.Context, runID string) ([]*models.Payout, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payout), args.Error(1)
}

func (m *MockPayoutRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

// MockPayoutRunRepository is a mock implementation of PayoutRunRepository
type MockPayoutRunRepository struct {
	mock.Mock
}

func (m *MockPayoutRunRepository) Create(ctx context.Context, run *models.PayoutRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockPayoutRunRepository) GetByID(ctx context.Context, id string) (*models.PayoutRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayoutRun), args.Error(1)
}

func (m *MockPayoutRunRepository) List(ctx context.Context) ([]*models.PayoutRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PayoutRun), args.Error(1)
}

func (m *MockPayoutRunRepository) Complete(ctx context.Context, run *models.PayoutRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockPayoutRunRepository) MarkFailed(ctx context.Context, runID string) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

// MockAuditLogRepository is a mock implementation of AuditLogRepository
type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Append(ctx context.Context, entry *models.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditLogRepository) ListByPayout(ctx context.Context, payoutID string) ([]*models.AuditLogEntry, error) {
	args := m.Called(ctx, payoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLogEntry), args.Error(1)
}

// MockInvestorRepository is a mock implementation of InvestorRepository
type MockInvestorRepository struct {
	mock.Mock
}

func (m *MockInvestorRepository) GetAll(ctx context.Context) ([]*models.Investor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Investor), args.Error(1)
}

func (m *MockInvestorRepository) GetByID(ctx context.Context, id string) (*models.Investor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Investor), args.Error(1)
}

// MockExternalAccountRepository is a mock implementation of ExternalAccountRepository
type MockExternalAccountRepository struct {
	mock.Mock
}

func (m *MockExternalAccountRepository) GetByInvestorID(ctx context.Context, investorID string) (*models.ExternalAccount, error) {
	args := m.Called(ctx, investorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExternalAccount), args.Error(1)
}

// MockLiquidationEventRepository is a mock implementation of LiquidationEventRepository
type MockLiquidationEventRepository struct {
	mock.Mock
}

func (m *MockLiquidationEventRepository) GetByID(ctx context.Context, id string) (*models.LiquidationEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LiquidationEvent), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// plain fields so tests can wire concrete mocks with SetRepositories.
type MockUnitOfWork struct {
	mock.Mock

	payoutRepo  PayoutRepository
	runRepo     PayoutRunRepository
	auditRepo   AuditLogRepository
	investRepo  InvestorRepository
	accountRepo ExternalAccountRepository
	eventRepo   LiquidationEventRepository
	eventBus    EventPublisher
}

// SetRepositories wires the repository mocks the unit of work hands out
func (m *MockUnitOfWork) SetRepositories(
	payoutRepo PayoutRepository,
	runRepo PayoutRunRepository,
	auditRepo AuditLogRepository,
	investRepo InvestorRepository,
	accountRepo ExternalAccountRepository,
	eventRepo LiquidationEventRepository,
	eventBus EventPublisher,
) {
	m.payoutRepo = payoutRepo
	m.runRepo = runRepo
	m.auditRepo = auditRepo
	m.investRepo = investRepo
	m.accountRepo = accountRepo
	m.eventRepo = eventRepo
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) PayoutRepository() PayoutRepository {
	return m.payoutRepo
}

func (m *MockUnitOfWork) PayoutRunRepository() PayoutRunRepository {
	return m.runRepo
}

func (m *MockUnitOfWork) AuditLogRepository() AuditLogRepository {
	return m.auditRepo
}

func (m *MockUnitOfWork) InvestorRepository() InvestorRepository {
	return m.investRepo
}

func (m *MockUnitOfWork) ExternalAccountRepository() ExternalAccountRepository {
	return m.accountRepo
}

func (m *MockUnitOfWork) LiquidationEventRepository() LiquidationEventRepository {
	return m.eventRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
