package provider

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockProvider simulates a banking API for demos and local development:
// configurable latency, a failure rate split across rate limits, transient
// server errors and permanent rejections, and realistic order IDs. Real
// deployments replace it with an adapter for the actual provider.
type MockProvider struct {
	failureRate float64
	latency     time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockProvider creates a mock provider. failureRate is the total fraction
// of calls that fail (split 30% rate limit, 30% transient, 40% permanent).
func NewMockProvider(failureRate float64, latency time.Duration) *MockProvider {
	return &MockProvider{
		failureRate: failureRate,
		latency:     latency,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Name returns the provider identifier
func (m *MockProvider) Name() string {
	return "mock_provider"
}

// CreatePaymentOrder simulates submitting a payment order
func (m *MockProvider) CreatePaymentOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	if m.latency > 0 {
		jitter := 0.5 + m.roll()
		if err := sleepContext(ctx, time.Duration(float64(m.latency)*jitter)); err != nil {
			return nil, err
		}
	}

	roll := m.roll()
	switch {
	case roll < m.failureRate*0.3:
		return nil, NewRateLimitError("mock rate limit: too many requests", 1*time.Second)
	case roll < m.failureRate*0.6:
		return nil, NewTransientError("mock transient error: service temporarily unavailable", 503)
	case roll < m.failureRate:
		return nil, NewPermanentError("mock permanent error: invalid account details", 400)
	}

	return &OrderResponse{
		PaymentOrderID: fmt.Sprintf("po_%s_%s", req.Rail, uuid.NewString()[:8]),
		Status:         "pending",
		Provider:       m.Name(),
		Message:        fmt.Sprintf("%s payment order created (%s %.2f)", req.Rail, req.Currency, float64(req.AmountCents)/100),
	}, nil
}

// roll draws from the shared RNG. rand.Rand is not safe for concurrent use
// and the provider is called from every orchestrator worker.
func (m *MockProvider) roll() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Float64()
}
