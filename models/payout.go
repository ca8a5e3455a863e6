package models

import (
	"time"
)

// PayoutStatus represents the lifecycle state of an individual payout
type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCreated    PayoutStatus = "created"
	PayoutStatusSkipped    PayoutStatus = "skipped"
	PayoutStatusFailed     PayoutStatus = "failed"
)

// SkipReason categorizes why a payout was not executed
type SkipReason string

const (
	SkipReasonExistingPaymentOrder   SkipReason = "existing_payment_order"
	SkipReasonPayoutInProgress       SkipReason = "payout_in_progress"
	SkipReasonMissingExternalAccount SkipReason = "missing_external_account"
	SkipReasonMissingCountry         SkipReason = "missing_country"
	SkipReasonInvalidMethod          SkipReason = "invalid_method"
	SkipReasonInvalidAmount          SkipReason = "invalid_amount"
)

// Payout represents one investor's disbursement within a liquidation event.
// The pair (liquidation_event_id, investor_id) is unique across all payouts
// ever created; re-runs resolve to the existing row instead of inserting a
// duplicate.
type Payout struct {
	ID                 string       `db:"id" json:"id"`
	RunID              string       `db:"run_id" json:"run_id,omitempty"` // most recent run that touched this payout
	LiquidationEventID string       `db:"liquidation_event_id" json:"liquidation_event_id"`
	InvestorID         string       `db:"investor_id" json:"investor_id"`
	InvestorName       string       `db:"investor_name" json:"investor_name"`
	AmountCents        int64        `db:"amount_cents" json:"amount_cents"`
	Currency           string       `db:"currency" json:"currency"`
	Country            string       `db:"country" json:"country"`
	Rail               string       `db:"rail" json:"rail,omitempty"` // empty until routed
	RailCurrency       string       `db:"rail_currency" json:"rail_currency,omitempty"`
	FXIndicator        string       `db:"fx_indicator" json:"fx_indicator,omitempty"`
	Status             PayoutStatus `db:"status" json:"status"`
	SkipReason         SkipReason   `db:"skip_reason" json:"skip_reason,omitempty"`
	PaymentOrderID     string       `db:"payment_order_id" json:"payment_order_id,omitempty"` // empty until executed
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at" json:"updated_at"`
}

// HasPaymentOrder reports whether a provider order was already recorded for
// this payout. Once true, the orchestrator must never execute it again.
func (p *Payout) HasPaymentOrder() bool {
	return p.PaymentOrderID != ""
}

// PayoutFilter narrows payout queries; empty fields match everything
type PayoutFilter struct {
	LiquidationEventID string
	Country            string
	Status             PayoutStatus
	Rail               string
}
