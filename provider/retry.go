package provider

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultMaxRetries bounds retries after the first attempt
	DefaultMaxRetries = 5
	// BaseDelay is the first backoff interval; it doubles per retriable failure
	BaseDelay = 1 * time.Second
	// MaxDelay caps the backoff schedule
	MaxDelay = 30 * time.Second
)

// RetryPolicy wraps provider calls with exponential backoff on transient
// failures. The schedule is 1s, 2s, 4s, 8s, 16s, then capped at 30s; a 429
// carrying a Retry-After hint overrides the computed delay for that attempt
// only. Permanent failures and exhausted budgets surface the terminal error
// to the caller.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// sleep is swapped out in tests to capture the schedule
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy creates a retry policy with the default backoff schedule
func NewRetryPolicy(maxRetries int) *RetryPolicy {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &RetryPolicy{
		MaxRetries: maxRetries,
		BaseDelay:  BaseDelay,
		MaxDelay:   MaxDelay,
		sleep:      sleepContext,
	}
}

// Execute runs the provider call, retrying retriable failures until the
// attempt budget is exhausted. The final failure is always returned, never
// swallowed.
func (p *RetryPolicy) Execute(ctx context.Context, pr PaymentProvider, req *OrderRequest) (*OrderResponse, error) {
	delay := p.BaseDelay
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		resp, err := pr.CreatePaymentOrder(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		perr, retriable := Classify(err)
		if !retriable {
			return nil, err
		}

		if attempt == p.MaxRetries {
			log.WithFields(log.Fields{
				"rail":       req.Rail,
				"statusCode": perr.StatusCode,
				"attempts":   attempt + 1,
			}).Error("Exhausted provider retries")
			return nil, err
		}

		sleepFor := delay
		if sleepFor > p.MaxDelay {
			sleepFor = p.MaxDelay
		}
		// Retry-After overrides the computed delay for this attempt only
		if perr.StatusCode == 429 && perr.RetryAfter > 0 {
			sleepFor = perr.RetryAfter
			if sleepFor > p.MaxDelay {
				sleepFor = p.MaxDelay
			}
		}

		log.WithFields(log.Fields{
			"rail":       req.Rail,
			"statusCode": perr.StatusCode,
			"attempt":    attempt + 1,
			"maxRetries": p.MaxRetries,
			"sleep":      sleepFor,
		}).Warn("Retriable provider error, backing off")

		if err := p.sleep(ctx, sleepFor); err != nil {
			return nil, err
		}

		delay *= 2
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return nil, lastErr
}

// sleepContext waits for d or until the context is cancelled
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
