package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"payengine/database"
	"payengine/models"
)

// PayoutRunRepository implements the service.PayoutRunRepository interface
type PayoutRunRepository struct {
	q queryable
}

// NewPayoutRunRepository creates a new payout run repository
func NewPayoutRunRepository(db *database.DB) *PayoutRunRepository {
	return &PayoutRunRepository{q: db.Pool}
}

// newPayoutRunRepositoryWithTx creates a run repository bound to a transaction
func newPayoutRunRepositoryWithTx(tx queryable) *PayoutRunRepository {
	return &PayoutRunRepository{q: tx}
}

// Create inserts a new run in the pending state and assigns its ID
func (r *PayoutRunRepository) Create(ctx context.Context, run *models.PayoutRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = models.RunStatusPending
	}

	query := `
		INSERT INTO payout_runs (id, liquidation_event_id, status)
		VALUES ($1, $2, $3)
		RETURNING started_at
	`
	err := r.q.QueryRow(ctx, query, run.ID, run.LiquidationEventID, run.Status).Scan(&run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create payout run for event %s: %w", run.LiquidationEventID, err)
	}
	return nil
}

func scanRun(row pgx.Row) (*models.PayoutRun, error) {
	var run models.PayoutRun
	var breakdownJSON []byte

	err := row.Scan(
		&run.ID,
		&run.LiquidationEventID,
		&run.Status,
		&run.CreatedCount,
		&run.SkippedCount,
		&run.FailedCount,
		&breakdownJSON,
		&run.StartedAt,
		&run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(breakdownJSON) > 0 {
		if err := json.Unmarshal(breakdownJSON, &run.SkipBreakdown); err != nil {
			return nil, fmt.Errorf("failed to unmarshal skip breakdown: %w", err)
		}
	}
	return &run, nil
}

const runColumns = `
	id, liquidation_event_id, status, created_count, skipped_count,
	failed_count, skip_breakdown, started_at, completed_at
`

// GetByID retrieves a run by its ID
func (r *PayoutRunRepository) GetByID(ctx context.Context, id string) (*models.PayoutRun, error) {
	query := `SELECT ` + runColumns + ` FROM payout_runs WHERE id = $1`

	run, err := scanRun(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payout run %s: %w", id, err)
	}
	return run, nil
}

// List returns all runs, newest first
func (r *PayoutRunRepository) List(ctx context.Context) ([]*models.PayoutRun, error) {
	query := `SELECT ` + runColumns + ` FROM payout_runs ORDER BY started_at DESC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list payout runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.PayoutRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payout runs: %w", err)
	}
	return runs, nil
}

// Complete stores the run summary and marks the run completed
func (r *PayoutRunRepository) Complete(ctx context.Context, run *models.PayoutRun) error {
	breakdownJSON, err := json.Marshal(run.SkipBreakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal skip breakdown: %w", err)
	}

	query := `
		UPDATE payout_runs
		SET status = 'completed', created_count = $2, skipped_count = $3,
		    failed_count = $4, skip_breakdown = $5, completed_at = NOW()
		WHERE id = $1
		RETURNING completed_at
	`
	err = r.q.QueryRow(ctx, query,
		run.ID,
		run.CreatedCount,
		run.SkippedCount,
		run.FailedCount,
		breakdownJSON,
	).Scan(&run.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to complete payout run %s: %w", run.ID, err)
	}

	run.Status = models.RunStatusCompleted
	return nil
}

// MarkFailed records that the run could not execute, e.g. unknown event
func (r *PayoutRunRepository) MarkFailed(ctx context.Context, runID string) error {
	query := `UPDATE payout_runs SET status = 'failed', completed_at = NOW() WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, runID); err != nil {
		return fmt.Errorf("failed to mark payout run %s failed: %w", runID, err)
	}
	return nil
}
