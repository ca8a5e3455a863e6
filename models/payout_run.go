package models

import (
	"time"
)

// RunStatus represents the lifecycle state of a payout run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// PayoutRun represents one orchestrator execution against a liquidation
// event. Multiple runs may target the same event; idempotency guarantees
// that repeat runs create zero new payment orders.
type PayoutRun struct {
	ID                 string         `db:"id" json:"id"`
	LiquidationEventID string         `db:"liquidation_event_id" json:"liquidation_event_id"`
	Status             RunStatus      `db:"status" json:"status"`
	CreatedCount       int            `db:"created_count" json:"created_count"`
	SkippedCount       int            `db:"skipped_count" json:"skipped_count"`
	FailedCount        int            `db:"failed_count" json:"failed_count"`
	SkipBreakdown      map[string]int `db:"skip_breakdown" json:"skip_breakdown,omitempty"` // skip counts by reason
	StartedAt          time.Time      `db:"started_at" json:"started_at"`
	CompletedAt        *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
}
