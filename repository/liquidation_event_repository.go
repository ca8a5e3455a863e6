package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"payengine/database"
	"payengine/models"
)

// LiquidationEventRepository reads and seeds liquidation events
type LiquidationEventRepository struct {
	q queryable
}

// NewLiquidationEventRepository creates a new liquidation event repository
func NewLiquidationEventRepository(db *database.DB) *LiquidationEventRepository {
	return &LiquidationEventRepository{q: db.Pool}
}

// newLiquidationEventRepositoryWithTx creates an event repository bound to a transaction
func newLiquidationEventRepositoryWithTx(tx queryable) *LiquidationEventRepository {
	return &LiquidationEventRepository{q: tx}
}

// GetByID retrieves a liquidation event, or nil when unknown
func (r *LiquidationEventRepository) GetByID(ctx context.Context, id string) (*models.LiquidationEvent, error) {
	query := `
		SELECT id, name, total_amount_cents, payout_date, status, created_at
		FROM liquidation_events
		WHERE id = $1
	`
	var event models.LiquidationEvent
	err := r.q.QueryRow(ctx, query, id).Scan(
		&event.ID,
		&event.Name,
		&event.TotalAmountCents,
		&event.PayoutDate,
		&event.Status,
		&event.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get liquidation event %s: %w", id, err)
	}
	return &event, nil
}

// Create inserts a liquidation event. Used by the seed loader only.
func (r *LiquidationEventRepository) Create(ctx context.Context, event *models.LiquidationEvent) error {
	query := `
		INSERT INTO liquidation_events (id, name, total_amount_cents, payout_date, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.q.Exec(ctx, query,
		event.ID,
		event.Name,
		event.TotalAmountCents,
		event.PayoutDate,
		event.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create liquidation event %s: %w", event.ID, err)
	}
	return nil
}
