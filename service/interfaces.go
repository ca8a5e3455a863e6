package service

import (
	"context"

	"payengine/events"
	"payengine/models"
	"payengine/routing"
)

// PayoutRepository defines the interface for payout data access
type PayoutRepository interface {
	// EnsureForEvent guarantees a payout row exists for the (event, investor)
	// pair and returns it; safe under concurrent runs
	EnsureForEvent(ctx context.Context, eventID string, investor *models.Investor, amountCents int64, currency string) (*models.Payout, error)

	// GetByEventAndInvestor retrieves the payout for an (event, investor) pair
	GetByEventAndInvestor(ctx context.Context, eventID, investorID string) (*models.Payout, error)

	// GetByID retrieves a payout by its ID
	GetByID(ctx context.Context, id string) (*models.Payout, error)

	// ClaimForRouting records the rail decision and moves the payout to
	// processing; false means another run already owns or completed the payout
	ClaimForRouting(ctx context.Context, payoutID, runID string, decision routing.Decision) (bool, error)

	// MarkSkipped records a skip verdict
	MarkSkipped(ctx context.Context, payoutID, runID string, reason models.SkipReason) error

	// MarkCreated durably records the provider order; false means an order
	// was already recorded by a concurrent run
	MarkCreated(ctx context.Context, payoutID, paymentOrderID string) (bool, error)

	// MarkFailed records a terminal provider failure
	MarkFailed(ctx context.Context, payoutID string) error

	// List returns payouts matching the filter
	List(ctx context.Context, filter models.PayoutFilter) ([]*models.Payout, error)

	// ListByRun returns the payouts most recently touched by a run
	ListByRun(ctx context.Context, runID string) ([]*models.Payout, error)

	// CountByEvent returns the total number of payout rows for an event
	CountByEvent(ctx context.Context, eventID string) (int, error)
}

// PayoutRunRepository defines the interface for run data access
type PayoutRunRepository interface {
	// Create inserts a new run in the pending state
	Create(ctx context.Context, run *models.PayoutRun) error

	// GetByID retrieves a run by its ID
	GetByID(ctx context.Context, id string) (*models.PayoutRun, error)

	// List returns all runs, newest first
	List(ctx context.Context) ([]*models.PayoutRun, error)

	// Complete stores the run summary and marks the run completed
	Complete(ctx context.Context, run *models.PayoutRun) error

	// MarkFailed records that the run could not execute
	MarkFailed(ctx context.Context, runID string) error
}

// AuditLogRepository defines the interface for the append-only audit trail
type AuditLogRepository interface {
	// Append writes one immutable audit entry
	Append(ctx context.Context, entry *models.AuditLogEntry) error

	// ListByPayout returns the full trail for a payout, ordered by sequence ID
	ListByPayout(ctx context.Context, payoutID string) ([]*models.AuditLogEntry, error)
}

// InvestorRepository defines read access to the investor directory
type InvestorRepository interface {
	// GetAll returns every investor in the directory
	GetAll(ctx context.Context) ([]*models.Investor, error)

	// GetByID retrieves an investor by ID
	GetByID(ctx context.Context, id string) (*models.Investor, error)
}

// ExternalAccountRepository defines read access to bank-account metadata
type ExternalAccountRepository interface {
	// GetByInvestorID returns the investor's bank account, nil when absent
	GetByInvestorID(ctx context.Context, investorID string) (*models.ExternalAccount, error)
}

// LiquidationEventRepository defines read access to liquidation events
type LiquidationEventRepository interface {
	// GetByID retrieves a liquidation event, nil when unknown
	GetByID(ctx context.Context, id string) (*models.LiquidationEvent, error)
}

// EventPublisher publishes domain events within a unit of work; events are
// delivered only after the surrounding transaction commits
type EventPublisher interface {
	Publish(e events.Event)
}

// UnitOfWork bundles repositories over a single transaction
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	PayoutRepository() PayoutRepository
	PayoutRunRepository() PayoutRunRepository
	AuditLogRepository() AuditLogRepository
	InvestorRepository() InvestorRepository
	ExternalAccountRepository() ExternalAccountRepository
	LiquidationEventRepository() LiquidationEventRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// PayoutOrchestrator drives payout runs
type PayoutOrchestrator interface {
	// RunPayouts executes a full payout run for a liquidation event and
	// returns the completed run with its summary counters. Re-running the
	// same event is safe: previously created payouts resolve to skips and no
	// new payment orders are placed.
	RunPayouts(ctx context.Context, liquidationEventID string) (*models.PayoutRun, error)
}

// PayoutQuery answers read-only questions about runs, payouts and trails
type PayoutQuery interface {
	// ListRuns returns all runs, newest first
	ListRuns(ctx context.Context) ([]*models.PayoutRun, error)

	// GetRun returns a run and the payouts it touched, nil run when unknown
	GetRun(ctx context.Context, runID string) (*models.PayoutRun, []*models.Payout, error)

	// ListPayouts returns payouts matching the filter
	ListPayouts(ctx context.Context, filter models.PayoutFilter) ([]*models.Payout, error)

	// GetPayout returns a payout by ID, nil when unknown
	GetPayout(ctx context.Context, payoutID string) (*models.Payout, error)

	// TracePayout returns a payout and its ordered audit trail
	TracePayout(ctx context.Context, payoutID string) (*models.Payout, []*models.AuditLogEntry, error)
}
