package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"payengine/events"
	"payengine/models"
	"payengine/provider"
	"payengine/routing"
)

// stubProvider returns a scripted response and records the requests it saw
type stubProvider struct {
	resp  *provider.OrderResponse
	err   error
	calls int
	last  *provider.OrderRequest
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) CreatePaymentOrder(ctx context.Context, req *provider.OrderRequest) (*provider.OrderResponse, error) {
	p.calls++
	p.last = req
	if p.err != nil {
		return nil, p.err
	}
	return p.resp, nil
}

type orchestratorFixture struct {
	factory     *MockUnitOfWorkFactory
	uow         *MockUnitOfWork
	payoutRepo  *MockPayoutRepository
	runRepo     *MockPayoutRunRepository
	auditRepo   *MockAuditLogRepository
	investRepo  *MockInvestorRepository
	accountRepo *MockExternalAccountRepository
	eventRepo   *MockLiquidationEventRepository
	bus         *MockEventPublisher
	provider    *stubProvider
}

func newOrchestratorFixture() *orchestratorFixture {
	f := &orchestratorFixture{
		factory:     new(MockUnitOfWorkFactory),
		uow:         new(MockUnitOfWork),
		payoutRepo:  new(MockPayoutRepository),
		runRepo:     new(MockPayoutRunRepository),
		auditRepo:   new(MockAuditLogRepository),
		investRepo:  new(MockInvestorRepository),
		accountRepo: new(MockExternalAccountRepository),
		eventRepo:   new(MockLiquidationEventRepository),
		bus:         new(MockEventPublisher),
		provider:    &stubProvider{},
	}
	f.uow.SetRepositories(f.payoutRepo, f.runRepo, f.auditRepo, f.investRepo, f.accountRepo, f.eventRepo, f.bus)
	f.factory.On("Create").Return(f.uow)
	f.uow.On("Begin", mock.Anything).Return(nil)
	f.uow.On("Commit").Return(nil)
	f.uow.On("Rollback").Return(nil)
	return f
}

// service constructs the orchestrator with a single worker and no retries so
// tests are deterministic
func (f *orchestratorFixture) service() PayoutOrchestrator {
	return NewPayoutService(f.factory, f.provider, provider.NewRetryPolicy(0), 1)
}

func (f *orchestratorFixture) expectRunLifecycle(eventID string, event *models.LiquidationEvent, investors []*models.Investor) {
	f.runRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.PayoutRun")).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.PayoutRun).ID = "run_1"
	})
	f.eventRepo.On("GetByID", mock.Anything, eventID).Return(event, nil)
	f.investRepo.On("GetAll", mock.Anything).Return(investors, nil)
	f.auditRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *models.AuditLogEntry) bool {
		return e.Action == models.AuditActionRunStarted
	})).Return(nil)
	f.auditRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *models.AuditLogEntry) bool {
		return e.Action == models.AuditActionRunCompleted
	})).Return(nil)
	f.runRepo.On("Complete", mock.Anything, mock.AnythingOfType("*models.PayoutRun")).Return(nil)
	f.bus.On("Publish", mock.AnythingOfType("events.RunCompletedEvent")).Return()
}

func auditAction(action models.AuditAction) interface{} {
	return mock.MatchedBy(func(e *models.AuditLogEntry) bool {
		return e.Action == action
	})
}

func TestRunPayouts_CreatesPaymentOrder(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()

	event := &models.LiquidationEvent{ID: "LIQ-2024-001", TotalAmountCents: 500_000}
	investor := &models.Investor{ID: "inv_jp", Name: "Kenji Sato", Country: "JP", ExternalAccountID: "ea_jp"}
	account := &models.ExternalAccount{ID: "ea_jp", InvestorID: "inv_jp", Country: "JP", Currency: "JPY", AccountType: models.AccountTypeACH}
	payout := &models.Payout{ID: "p_1", LiquidationEventID: event.ID, InvestorID: investor.ID, AmountCents: 500_000, Currency: "USD", Status: models.PayoutStatusPending}

	f.expectRunLifecycle(event.ID, event, []*models.Investor{investor})
	f.payoutRepo.On("EnsureForEvent", mock.Anything, event.ID, investor, int64(500_000), "USD").Return(payout, nil)
	f.accountRepo.On("GetByInvestorID", mock.Anything, "inv_jp").Return(account, nil)
	f.auditRepo.On("Append", mock.Anything, auditAction(models.AuditActionEligibilityChecked)).Return(nil)
	f.auditRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *models.AuditLogEntry) bool {
		return e.Action == models.AuditActionRailSelected && e.Details["rail"] == "zengin" && e.Details["currency"] == "JPY"
	})).Return(nil)
	f.payoutRepo.On("ClaimForRouting", mock.Anything, "p_1", "run_1", mock.MatchedBy(func(d routing.Decision) bool {
		return d.Rail == "zengin" && d.Currency == "JPY" && !d.CrossBorder
	})).Return(true, nil)
	f.payoutRepo.On("MarkCreated", mock.Anything, "p_1", "po_zengin_1").Return(true, nil)
	f.auditRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *models.AuditLogEntry) bool {
		return e.Action == models.AuditActionPaymentCreated && e.Details["payment_order_id"] == "po_zengin_1"
	})).Return(nil)
	f.bus.On("Publish", mock.MatchedBy(func(e events.PayoutCreatedEvent) bool {
		return e.PayoutID == "p_1" && e.Rail == "zengin"
	})).Return()

	f.provider.resp = &provider.OrderResponse{PaymentOrderID: "po_zengin_1", Status: "pending", Provider: "stub"}

	run, err := f.service().RunPayouts(ctx, event.ID)

	assert.NoError(t, err)
	assert.Equal(t, 1, run.CreatedCount)
	assert.Equal(t, 0, run.SkippedCount)
	assert.Equal(t, 0, run.FailedCount)
	assert.Equal(t, 1, f.provider.calls)
	assert.Equal(t, "zengin", f.provider.last.Rail)
	assert.Equal(t, "JPY", f.provider.last.Currency)
	assert.Equal(t, int64(500_000), f.provider.last.AmountCents)

	f.payoutRepo.AssertExpectations(t)
	f.auditRepo.AssertExpectations(t)
	f.runRepo.AssertExpectations(t)
	f.bus.AssertExpectations(t)
}

func TestRunPayouts_SkipsInvestorWithoutAccount(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()

	event := &models.LiquidationEvent{ID: "LIQ-2024-001", TotalAmountCents: 100_000}
	investor := &models.Investor{ID: "inv_noacct", Name: "Dana Webb", Country: "US"}
	payout := &models.Payout{ID: "p_2", LiquidationEventID: event.ID, InvestorID: investor.ID, AmountCents: 100_000, Currency: "USD", Status: models.PayoutStatusPending}

	f.expectRunLifecycle(event.ID, event, []*models.Investor{investor})
	f.payoutRepo.On("EnsureForEvent", mock.Anything, event.ID, investor, int64(100_000), "USD").Return(payout, nil)
	f.accountRepo.On("GetByInvestorID", mock.Anything, "inv_noacct").Return(nil, nil)
	f.auditRepo.On("Append", mock.Anything, auditAction(models.AuditActionEligibilityChecked)).Return(nil)
	f.auditRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *models.AuditLogEntry) bool {
		return e.Action == models.AuditActionPaymentSkipped && e.Details["reason"] == string(models.SkipReasonMissingExternalAccount)
	})).Return(nil)
	f.payoutRepo.On("MarkSkipped", mock.Anything, "p_2", "run_1", models.SkipReasonMissingExternalAccount).Return(nil)

	run, err := f.service().RunPayouts(ctx, event.ID)

	assert.NoError(t, err)
	assert.Equal(t, 0, run.CreatedCount)
	assert.Equal(t, 1, run.SkippedCount)
	assert.Equal(t, map[string]int{"missing_external_account": 1}, run.SkipBreakdown)
	assert.Zero(t, f.provider.calls, "ineligible payouts must never reach the provider")

	f.payoutRepo.AssertExpectations(t)
	f.auditRepo.AssertExpectations(t)
}

func TestRunPayouts_IdempotentRerun(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()

	event := &models.LiquidationEvent{ID: "LIQ-2024-001", TotalAmountCents: 100_000}
	investor := &models.Investor{ID: "inv_done", Name: "Priya Nair", Country: "IN", ExternalAccountID: "ea_in"}
	account := &models.ExternalAccount{ID: "ea_in", InvestorID: "inv_done", Country: "IN", Currency: "INR", AccountType: models.AccountTypeACH}
	payout := &models.Payout{
		ID:                 "p_3",
		LiquidationEventID: event.ID,
		InvestorID:         investor.ID,
		AmountCents:        100_000,
		Currency:           "USD",
		Status:             models.PayoutStatusCreated,
		PaymentOrderID:     "po_neft_prev",
	}

	f.expectRunLifecycle(event.ID, event, []*models.Investor{investor})
	f.payoutRepo.On("EnsureForEvent", mock.Anything, event.ID, investor, int64(100_000), "USD").Return(payout, nil)
	f.accountRepo.On("GetByInvestorID", mock.Anything, "inv_done").Return(account, nil)
	f.auditRepo.On("Append", mock.Anything, auditAction(models.AuditActionEligibilityChecked)).Return(nil)
	f.auditRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *models.AuditLogEntry) bool {
		return e.Action == models.AuditActionPaymentSkipped && e.Details["reason"] == string(models.SkipReasonExistingPaymentOrder)
	})).Return(nil)
	f.payoutRepo.On("MarkSkipped", mock.Anything, "p_3", "run_1", models.SkipReasonExistingPaymentOrder).Return(nil)

	run, err := f.service().RunPayouts(ctx, event.ID)

	assert.NoError(t, err)
	assert.Equal(t, 0, run.CreatedCount, "re-run must not create a second payment order")
	assert.Equal(t, 1, run.SkippedCount)
	assert.Zero(t, f.provider.calls)

	f.payoutRepo.AssertExpectations(t)
}

func TestRunPayouts_PermanentProviderFailure(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()

	event := &models.LiquidationEvent{ID: "LIQ-2024-001", TotalAmountCents: 100_000}
	investor := &models.Investor{ID: "inv_de", Name: "Lukas Braun", Country: "DE", ExternalAccountID: "ea_de"}
	account := &models.ExternalAccount{ID: "ea_de", InvestorID: "inv_de", Country: "DE", Currency: "EUR", AccountType: models.AccountTypeACH}
	payout := &models.Payout{ID: "p_4", LiquidationEventID: event.ID, InvestorID: investor.ID, AmountCents: 100_000, Currency: "USD", Status: models.PayoutStatusPending}

	f.expectRunLifecycle(event.ID, event, []*models.Investor{investor})
	f.payoutRepo.On("EnsureForEvent", mock.Anything, event.ID, investor, int64(100_000), "USD").Return(payout, nil)
	f.accountRepo.On("GetByInvestorID", mock.Anything, "inv_de").Return(account, nil)
	f.auditRepo.On("Append", mock.Anything, auditAction(models.AuditActionEligibilityChecked)).Return(nil)
	f.auditRepo.On("Append", mock.Anything, auditAction(models.AuditActionRailSelected)).Return(nil)
	f.payoutRepo.On("ClaimForRouting", mock.Anything, "p_4", "run_1", mock.AnythingOfType("routing.Decision")).Return(true, nil)
	f.payoutRepo.On("MarkFailed", mock.Anything, "p_4").Return(nil)
	f.auditRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *models.AuditLogEntry) bool {
		return e.Action == models.AuditActionPaymentFailed &&
			e.Details["status_code"] == 400 &&
			e.Details["classification"] == "permanent"
	})).Return(nil)
	f.bus.On("Publish", mock.MatchedBy(func(e events.PayoutFailedEvent) bool {
		return e.PayoutID == "p_4" && e.StatusCode == 400
	})).Return()

	f.provider.err = provider.NewPermanentError("invalid receiving account", 400)

	run, err := f.service().RunPayouts(ctx, event.ID)

	assert.NoError(t, err)
	assert.Equal(t, 1, run.FailedCount)
	assert.Equal(t, 0, run.CreatedCount)
	assert.Equal(t, 1, f.provider.calls, "permanent failures must not be retried")

	f.payoutRepo.AssertExpectations(t)
	f.auditRepo.AssertExpectations(t)
	f.bus.AssertExpectations(t)
}

func TestRunPayouts_ClaimRaceResolvesToSkip(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()

	event := &models.LiquidationEvent{ID: "LIQ-2024-001", TotalAmountCents: 100_000}
	investor := &models.Investor{ID: "inv_fr", Name: "Marie Dubois", Country: "FR", ExternalAccountID: "ea_fr"}
	account := &models.ExternalAccount{ID: "ea_fr", InvestorID: "inv_fr", Country: "FR", Currency: "EUR", AccountType: models.AccountTypeACH}
	payout := &models.Payout{ID: "p_5", LiquidationEventID: event.ID, InvestorID: investor.ID, AmountCents: 100_000, Currency: "USD", Status: models.PayoutStatusPending}

	f.expectRunLifecycle(event.ID, event, []*models.Investor{investor})
	f.payoutRepo.On("EnsureForEvent", mock.Anything, event.ID, investor, int64(100_000), "USD").Return(payout, nil)
	f.accountRepo.On("GetByInvestorID", mock.Anything, "inv_fr").Return(account, nil)
	f.auditRepo.On("Append", mock.Anything, auditAction(models.AuditActionEligibilityChecked)).Return(nil)
	f.auditRepo.On("Append", mock.Anything, auditAction(models.AuditActionRailSelected)).Return(nil)
	f.payoutRepo.On("ClaimForRouting", mock.Anything, "p_5", "run_1", mock.AnythingOfType("routing.Decision")).Return(false, nil)
	recorded := &models.Payout{ID: "p_5", LiquidationEventID: event.ID, InvestorID: investor.ID, Status: models.PayoutStatusCreated, PaymentOrderID: "po_sepa_other"}
	f.payoutRepo.On("GetByID", mock.Anything, "p_5").Return(recorded, nil)
	f.auditRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *models.AuditLogEntry) bool {
		return e.Action == models.AuditActionPaymentSkipped && e.Details["reason"] == string(models.SkipReasonExistingPaymentOrder)
	})).Return(nil)
	f.payoutRepo.On("MarkSkipped", mock.Anything, "p_5", "run_1", models.SkipReasonExistingPaymentOrder).Return(nil)

	run, err := f.service().RunPayouts(ctx, event.ID)

	assert.NoError(t, err)
	assert.Equal(t, 1, run.SkippedCount)
	assert.Zero(t, f.provider.calls, "a lost claim race must not reach the provider")

	f.payoutRepo.AssertExpectations(t)
}

// A claim lost to a run that has not recorded an order yet is reported as
// in progress, not as an existing payment order.
func TestRunPayouts_ClaimRaceAgainstInFlightRun(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()

	event := &models.LiquidationEvent{ID: "LIQ-2024-001", TotalAmountCents: 100_000}
	investor := &models.Investor{ID: "inv_fr", Name: "Marie Dubois", Country: "FR", ExternalAccountID: "ea_fr"}
	account := &models.ExternalAccount{ID: "ea_fr", InvestorID: "inv_fr", Country: "FR", Currency: "EUR", AccountType: models.AccountTypeACH}
	payout := &models.Payout{ID: "p_5", LiquidationEventID: event.ID, InvestorID: investor.ID, AmountCents: 100_000, Currency: "USD", Status: models.PayoutStatusPending}

	f.expectRunLifecycle(event.ID, event, []*models.Investor{investor})
	f.payoutRepo.On("EnsureForEvent", mock.Anything, event.ID, investor, int64(100_000), "USD").Return(payout, nil)
	f.accountRepo.On("GetByInvestorID", mock.Anything, "inv_fr").Return(account, nil)
	f.auditRepo.On("Append", mock.Anything, auditAction(models.AuditActionEligibilityChecked)).Return(nil)
	f.auditRepo.On("Append", mock.Anything, auditAction(models.AuditActionRailSelected)).Return(nil)
	f.payoutRepo.On("ClaimForRouting", mock.Anything, "p_5", "run_1", mock.AnythingOfType("routing.Decision")).Return(false, nil)
	inFlight := &models.Payout{ID: "p_5", LiquidationEventID: event.ID, InvestorID: investor.ID, Status: models.PayoutStatusProcessing}
	f.payoutRepo.On("GetByID", mock.Anything, "p_5").Return(inFlight, nil)
	f.auditRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *models.AuditLogEntry) bool {
		return e.Action == models.AuditActionPaymentSkipped && e.Details["reason"] == string(models.SkipReasonPayoutInProgress)
	})).Return(nil)
	f.payoutRepo.On("MarkSkipped", mock.Anything, "p_5", "run_1", models.SkipReasonPayoutInProgress).Return(nil)

	run, err := f.service().RunPayouts(ctx, event.ID)

	assert.NoError(t, err)
	assert.Equal(t, 1, run.SkippedCount)
	assert.Equal(t, map[string]int{string(models.SkipReasonPayoutInProgress): 1}, run.SkipBreakdown)
	assert.Zero(t, f.provider.calls)

	f.payoutRepo.AssertExpectations(t)
}

func TestRunPayouts_UnknownEvent(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()

	f.runRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.PayoutRun")).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.PayoutRun).ID = "run_1"
	})
	f.eventRepo.On("GetByID", mock.Anything, "LIQ-MISSING").Return(nil, nil)
	f.runRepo.On("MarkFailed", mock.Anything, "run_1").Return(nil)

	run, err := f.service().RunPayouts(ctx, "LIQ-MISSING")

	assert.Error(t, err)
	assert.ErrorIs(t, err, models.ErrEventNotFound)
	assert.Contains(t, err.Error(), "LIQ-MISSING")
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Zero(t, f.provider.calls)

	f.runRepo.AssertExpectations(t)
	f.eventRepo.AssertExpectations(t)
}

// An audit write failure rolls back the whole stage: the payout keeps its
// prior state and counts as failed for the run summary.
func TestRunPayouts_AuditFailureHaltsPayout(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()

	event := &models.LiquidationEvent{ID: "LIQ-2024-001", TotalAmountCents: 100_000}
	investor := &models.Investor{ID: "inv_gb", Name: "Owen Hughes", Country: "GB", ExternalAccountID: "ea_gb"}
	account := &models.ExternalAccount{ID: "ea_gb", InvestorID: "inv_gb", Country: "GB", Currency: "GBP", AccountType: models.AccountTypeACH}
	payout := &models.Payout{ID: "p_6", LiquidationEventID: event.ID, InvestorID: investor.ID, AmountCents: 100_000, Currency: "USD", Status: models.PayoutStatusPending}

	f.expectRunLifecycle(event.ID, event, []*models.Investor{investor})
	f.payoutRepo.On("EnsureForEvent", mock.Anything, event.ID, investor, int64(100_000), "USD").Return(payout, nil)
	f.accountRepo.On("GetByInvestorID", mock.Anything, "inv_gb").Return(account, nil)
	f.auditRepo.On("Append", mock.Anything, auditAction(models.AuditActionEligibilityChecked)).Return(errors.New("audit table unavailable"))

	run, err := f.service().RunPayouts(ctx, event.ID)

	assert.NoError(t, err)
	assert.Equal(t, 1, run.FailedCount)
	assert.Zero(t, f.provider.calls, "no provider call without a durable audit trail")
	f.payoutRepo.AssertNotCalled(t, "MarkSkipped", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.payoutRepo.AssertNotCalled(t, "ClaimForRouting", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunPayouts_SplitsEventAcrossInvestors(t *testing.T) {
	ctx := context.Background()
	f := newOrchestratorFixture()

	event := &models.LiquidationEvent{ID: "LIQ-2024-001", TotalAmountCents: 900_000}
	investors := []*models.Investor{
		{ID: "inv_a", Name: "A", Country: "US", ExternalAccountID: "ea_a"},
		{ID: "inv_b", Name: "B", Country: "US", ExternalAccountID: "ea_b"},
		{ID: "inv_c", Name: "C", Country: "US", ExternalAccountID: "ea_c"},
	}

	f.expectRunLifecycle(event.ID, event, investors)
	f.auditRepo.On("Append", mock.Anything, mock.AnythingOfType("*models.AuditLogEntry")).Return(nil)
	f.bus.On("Publish", mock.Anything).Return()

	for _, inv := range investors {
		payout := &models.Payout{
			ID:                 inv.ID + "_payout",
			LiquidationEventID: event.ID,
			InvestorID:         inv.ID,
			AmountCents:        300_000,
			Currency:           "USD",
			Status:             models.PayoutStatusPending,
		}
		account := &models.ExternalAccount{ID: inv.ExternalAccountID, InvestorID: inv.ID, Country: "US", Currency: "USD", AccountType: models.AccountTypeACH}
		f.payoutRepo.On("EnsureForEvent", mock.Anything, event.ID, inv, int64(300_000), "USD").Return(payout, nil)
		f.accountRepo.On("GetByInvestorID", mock.Anything, inv.ID).Return(account, nil)
		f.payoutRepo.On("ClaimForRouting", mock.Anything, payout.ID, "run_1", mock.AnythingOfType("routing.Decision")).Return(true, nil)
		f.payoutRepo.On("MarkCreated", mock.Anything, payout.ID, mock.AnythingOfType("string")).Return(true, nil)
	}

	f.provider.resp = &provider.OrderResponse{PaymentOrderID: "po_ach_1", Status: "pending", Provider: "stub"}

	run, err := f.service().RunPayouts(ctx, event.ID)

	assert.NoError(t, err)
	assert.Equal(t, 3, run.CreatedCount)
	assert.Equal(t, 3, f.provider.calls)
	assert.Equal(t, int64(300_000), f.provider.last.AmountCents, "event total is split equally across investors")

	f.payoutRepo.AssertExpectations(t)
}
