package models

import (
	"time"
)

// AuditAction identifies the state transition an audit entry records
type AuditAction string

const (
	AuditActionRunStarted         AuditAction = "run_started"
	AuditActionRunCompleted       AuditAction = "run_completed"
	AuditActionEligibilityChecked AuditAction = "eligibility_checked"
	AuditActionRailSelected       AuditAction = "rail_selected"
	AuditActionPaymentCreated     AuditAction = "payment_created"
	AuditActionPaymentFailed      AuditAction = "payment_failed"
	AuditActionPaymentSkipped     AuditAction = "payment_skipped"
)

// AuditLogEntry is an append-only record of a state transition. Entries are
// never updated or deleted; the trail for a payout is the sequence of its
// entries ordered by ID ascending.
type AuditLogEntry struct {
	ID        int64                  `db:"id" json:"id"`
	RunID     string                 `db:"run_id" json:"run_id"`
	PayoutID  string                 `db:"payout_id" json:"payout_id,omitempty"` // empty for run-level entries
	Action    AuditAction            `db:"action" json:"action"`
	Details   map[string]interface{} `db:"details" json:"details"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}
