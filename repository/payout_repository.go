package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"payengine/database"
	"payengine/models"
	"payengine/routing"
)

// PayoutRepository implements the service.PayoutRepository interface
type PayoutRepository struct {
	q queryable
}

// NewPayoutRepository creates a new payout repository
func NewPayoutRepository(db *database.DB) *PayoutRepository {
	return &PayoutRepository{q: db.Pool}
}

// newPayoutRepositoryWithTx creates a payout repository bound to a transaction
func newPayoutRepositoryWithTx(tx queryable) *PayoutRepository {
	return &PayoutRepository{q: tx}
}

const payoutColumns = `
	id, COALESCE(run_id::text, ''), liquidation_event_id, investor_id,
	investor_name, amount_cents, currency, country, rail, rail_currency,
	fx_indicator, status, skip_reason, COALESCE(payment_order_id, ''),
	created_at, updated_at
`

func scanPayout(row pgx.Row) (*models.Payout, error) {
	var p models.Payout
	err := row.Scan(
		&p.ID,
		&p.RunID,
		&p.LiquidationEventID,
		&p.InvestorID,
		&p.InvestorName,
		&p.AmountCents,
		&p.Currency,
		&p.Country,
		&p.Rail,
		&p.RailCurrency,
		&p.FXIndicator,
		&p.Status,
		&p.SkipReason,
		&p.PaymentOrderID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// EnsureForEvent guarantees a payout row exists for the (event, investor)
// pair and returns it. The unique constraint on the pair makes this safe
// under concurrent runs: the insert is ON CONFLICT DO NOTHING and the row is
// re-read afterwards, so whichever run inserted first wins and both observe
// the same row.
func (r *PayoutRepository) EnsureForEvent(ctx context.Context, eventID string, investor *models.Investor, amountCents int64, currency string) (*models.Payout, error) {
	insert := `
		INSERT INTO payouts (id, liquidation_event_id, investor_id, investor_name, amount_cents, currency, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (liquidation_event_id, investor_id) DO NOTHING
	`
	_, err := r.q.Exec(ctx, insert,
		uuid.NewString(),
		eventID,
		investor.ID,
		investor.Name,
		amountCents,
		currency,
		investor.Country,
	)
	if err != nil && !isUniqueViolation(err) {
		return nil, fmt.Errorf("failed to ensure payout for investor %s: %w", investor.ID, err)
	}

	payout, err := r.GetByEventAndInvestor(ctx, eventID, investor.ID)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, fmt.Errorf("payout for event %s investor %s missing after insert", eventID, investor.ID)
	}
	return payout, nil
}

// GetByEventAndInvestor retrieves the payout for an (event, investor) pair
func (r *PayoutRepository) GetByEventAndInvestor(ctx context.Context, eventID, investorID string) (*models.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE liquidation_event_id = $1 AND investor_id = $2`

	payout, err := scanPayout(r.q.QueryRow(ctx, query, eventID, investorID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payout for event %s investor %s: %w", eventID, investorID, err)
	}
	return payout, nil
}

// GetByID retrieves a payout by its ID
func (r *PayoutRepository) GetByID(ctx context.Context, id string) (*models.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = $1`

	payout, err := scanPayout(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payout %s: %w", id, err)
	}
	return payout, nil
}

// ClaimForRouting records the rail decision and moves the payout to
// processing. The claim only succeeds while no payment order exists and no
// other run is processing the row; a false return means another run won the
// race and the caller must re-resolve to a skip instead of executing.
// Processing rows older than the staleness window are reclaimable: they were
// orphaned by a run that died mid-execution without recording an order.
func (r *PayoutRepository) ClaimForRouting(ctx context.Context, payoutID, runID string, decision routing.Decision) (bool, error) {
	query := `
		UPDATE payouts
		SET run_id = $2, rail = $3, rail_currency = $4, fx_indicator = $5,
		    status = 'processing', skip_reason = '', updated_at = NOW()
		WHERE id = $1
		  AND payment_order_id IS NULL
		  AND (status IN ('pending', 'skipped', 'failed')
		       OR (status = 'processing' AND updated_at < NOW() - INTERVAL '10 minutes'))
	`
	result, err := r.q.Exec(ctx, query, payoutID, runID, decision.Rail, decision.Currency, decision.FXIndicator)
	if err != nil {
		return false, fmt.Errorf("failed to claim payout %s for routing: %w", payoutID, err)
	}
	return result.RowsAffected() == 1, nil
}

// MarkSkipped records a skip verdict. Rows that already carry a payment
// order, or that another run is actively processing, are left untouched: the
// recorded order or the in-flight claim stays authoritative and only the run
// summary counts the skip.
func (r *PayoutRepository) MarkSkipped(ctx context.Context, payoutID, runID string, reason models.SkipReason) error {
	query := `
		UPDATE payouts
		SET status = 'skipped', skip_reason = $3, run_id = $2, updated_at = NOW()
		WHERE id = $1 AND payment_order_id IS NULL AND status <> 'processing'
	`
	if _, err := r.q.Exec(ctx, query, payoutID, runID, reason); err != nil {
		return fmt.Errorf("failed to mark payout %s skipped: %w", payoutID, err)
	}
	return nil
}

// MarkCreated durably records the provider order and moves the payout to
// created. Returns false when an order was already recorded, which callers
// treat as the idempotency race being lost.
func (r *PayoutRepository) MarkCreated(ctx context.Context, payoutID, paymentOrderID string) (bool, error) {
	query := `
		UPDATE payouts
		SET status = 'created', payment_order_id = $2, skip_reason = '', updated_at = NOW()
		WHERE id = $1 AND payment_order_id IS NULL
	`
	result, err := r.q.Exec(ctx, query, payoutID, paymentOrderID)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to mark payout %s created: %w", payoutID, err)
	}
	return result.RowsAffected() == 1, nil
}

// MarkFailed records a terminal provider failure
func (r *PayoutRepository) MarkFailed(ctx context.Context, payoutID string) error {
	query := `
		UPDATE payouts
		SET status = 'failed', updated_at = NOW()
		WHERE id = $1 AND payment_order_id IS NULL
	`
	if _, err := r.q.Exec(ctx, query, payoutID); err != nil {
		return fmt.Errorf("failed to mark payout %s failed: %w", payoutID, err)
	}
	return nil
}

// List returns payouts matching the filter, newest first
func (r *PayoutRepository) List(ctx context.Context, filter models.PayoutFilter) ([]*models.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE 1=1`
	args := []any{}

	if filter.LiquidationEventID != "" {
		args = append(args, filter.LiquidationEventID)
		query += fmt.Sprintf(" AND liquidation_event_id = $%d", len(args))
	}
	if filter.Country != "" {
		args = append(args, filter.Country)
		query += fmt.Sprintf(" AND country = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Rail != "" {
		args = append(args, filter.Rail)
		query += fmt.Sprintf(" AND rail = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, investor_id"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	defer rows.Close()

	var payouts []*models.Payout
	for rows.Next() {
		payout, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		payouts = append(payouts, payout)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payouts: %w", err)
	}
	return payouts, nil
}

// ListByRun returns the payouts most recently touched by a run
func (r *PayoutRepository) ListByRun(ctx context.Context, runID string) ([]*models.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE run_id = $1 ORDER BY investor_id`

	rows, err := r.q.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts for run %s: %w", runID, err)
	}
	defer rows.Close()

	var payouts []*models.Payout
	for rows.Next() {
		payout, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		payouts = append(payouts, payout)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payouts: %w", err)
	}
	return payouts, nil
}

// CountByEvent returns the total number of payout rows for an event
func (r *PayoutRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM payouts WHERE liquidation_event_id = $1`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count payouts for event %s: %w", eventID, err)
	}
	return count, nil
}
