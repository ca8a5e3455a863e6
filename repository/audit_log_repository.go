package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"payengine/database"
	"payengine/models"
)

// AuditLogRepository implements the service.AuditLogRepository interface.
// The table is append-only: Append is the only mutator, entries are never
// updated or deleted, and the serial ID is the total order per payout.
type AuditLogRepository struct {
	q queryable
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{q: db.Pool}
}

// newAuditLogRepositoryWithTx creates an audit log repository bound to a transaction
func newAuditLogRepositoryWithTx(tx queryable) *AuditLogRepository {
	return &AuditLogRepository{q: tx}
}

// Append writes one immutable audit entry and assigns its sequence ID
func (r *AuditLogRepository) Append(ctx context.Context, entry *models.AuditLogEntry) error {
	var detailsJSON []byte
	if entry.Details != nil {
		var err error
		detailsJSON, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
	}

	query := `
		INSERT INTO audit_logs (run_id, payout_id, action, details)
		VALUES (NULLIF($1, '')::uuid, NULLIF($2, '')::uuid, $3, $4)
		RETURNING id, created_at
	`
	err := r.q.QueryRow(ctx, query, entry.RunID, entry.PayoutID, entry.Action, detailsJSON).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit entry %s: %w", entry.Action, err)
	}
	return nil
}

// ListByPayout returns the full trail for a payout, ordered by sequence ID
// ascending. Entries are never omitted or reordered once written.
func (r *AuditLogRepository) ListByPayout(ctx context.Context, payoutID string) ([]*models.AuditLogEntry, error) {
	query := `
		SELECT id, COALESCE(run_id::text, ''), COALESCE(payout_id::text, ''), action, details, created_at
		FROM audit_logs
		WHERE payout_id = $1
		ORDER BY id ASC
	`
	rows, err := r.q.Query(ctx, query, payoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries for payout %s: %w", payoutID, err)
	}
	defer rows.Close()

	var entries []*models.AuditLogEntry
	for rows.Next() {
		var entry models.AuditLogEntry
		var detailsJSON []byte

		if err := rows.Scan(&entry.ID, &entry.RunID, &entry.PayoutID, &entry.Action, &detailsJSON, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &entry.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit details: %w", err)
			}
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}
