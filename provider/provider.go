// Package provider defines the boundary to external banking providers:
// the payment order contract, provider error classification, the retry
// policy for transient failures, and a mock implementation for demos.
package provider

import (
	"context"
)

// OrderRequest asks the provider to move funds over a specific rail. One
// rail-tagged request covers domestic ACH, local cross-border rails and
// international wires; the Rail field selects the variant.
type OrderRequest struct {
	Rail                 string
	Currency             string // ISO 4217
	AmountCents          int64  // smallest currency unit
	Direction            string // always "credit" for payouts
	OriginatingAccountID string
	ReceivingAccountID   string
	EffectiveDate        string // YYYY-MM-DD
	Description          string
	StatementDescriptor  string
	Purpose              string // purpose code where the rail requires one
	CrossBorder          bool
	FXIndicator          string // "fixed_to_variable" on cross-border orders
	Metadata             map[string]string
}

// OrderResponse is the provider's acknowledgment of a created payment order
type OrderResponse struct {
	PaymentOrderID string
	Status         string // provider-side status, e.g. "pending"
	Provider       string // provider identifier, e.g. "mock_provider"
	Message        string
}

// PaymentProvider executes payment orders against an external banking API.
// Implementations map one rail-tagged request onto whatever wire protocol
// the provider speaks. The orchestrator never calls a provider twice for the
// same payout once an order ID has been durably recorded.
type PaymentProvider interface {
	// Name returns the provider identifier
	Name() string

	// CreatePaymentOrder submits a payment order. Failures are reported as
	// *provider.Error so the retry policy can classify them.
	CreatePaymentOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error)
}
