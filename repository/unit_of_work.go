package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"payengine/database"
	"payengine/events"
	"payengine/service"
)

// unitOfWork implements the service.UnitOfWork interface. All repositories
// it exposes share one transaction, so an audit entry and the state change
// it describes commit or roll back together.
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	payoutRepo       service.PayoutRepository
	runRepo          service.PayoutRunRepository
	auditRepo        service.AuditLogRepository
	investorRepo     service.InvestorRepository
	accountRepo      service.ExternalAccountRepository
	eventRepo        service.LiquidationEventRepository
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.payoutRepo = newPayoutRepositoryWithTx(tx)
	u.runRepo = newPayoutRunRepositoryWithTx(tx)
	u.auditRepo = newAuditLogRepositoryWithTx(tx)
	u.investorRepo = newInvestorRepositoryWithTx(tx)
	u.accountRepo = newExternalAccountRepositoryWithTx(tx)
	u.eventRepo = newLiquidationEventRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}
	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// PayoutRepository returns the payout repository for this unit of work
func (u *unitOfWork) PayoutRepository() service.PayoutRepository {
	if u.payoutRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.payoutRepo
}

// PayoutRunRepository returns the run repository for this unit of work
func (u *unitOfWork) PayoutRunRepository() service.PayoutRunRepository {
	if u.runRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.runRepo
}

// AuditLogRepository returns the audit log repository for this unit of work
func (u *unitOfWork) AuditLogRepository() service.AuditLogRepository {
	if u.auditRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.auditRepo
}

// InvestorRepository returns the investor repository for this unit of work
func (u *unitOfWork) InvestorRepository() service.InvestorRepository {
	if u.investorRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.investorRepo
}

// ExternalAccountRepository returns the account repository for this unit of work
func (u *unitOfWork) ExternalAccountRepository() service.ExternalAccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

// LiquidationEventRepository returns the event repository for this unit of work
func (u *unitOfWork) LiquidationEventRepository() service.LiquidationEventRepository {
	if u.eventRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.eventRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
