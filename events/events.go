package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeRunCompleted  EventType = "run_completed"
	EventTypePayoutCreated EventType = "payout_created"
	EventTypePayoutFailed  EventType = "payout_failed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// RunCompletedEvent fires after a payout run reaches its terminal state
type RunCompletedEvent struct {
	RunID              string
	LiquidationEventID string
	Created            int
	Skipped            int
	Failed             int
	SkipBreakdown      map[string]int
}

func (e RunCompletedEvent) Type() EventType {
	return EventTypeRunCompleted
}

// PayoutCreatedEvent fires after a payment order is durably recorded
type PayoutCreatedEvent struct {
	RunID          string
	PayoutID       string
	InvestorID     string
	Rail           string
	Currency       string
	AmountCents    int64
	PaymentOrderID string
}

func (e PayoutCreatedEvent) Type() EventType {
	return EventTypePayoutCreated
}

// PayoutFailedEvent fires after a payout reaches the failed terminal state
type PayoutFailedEvent struct {
	RunID      string
	PayoutID   string
	InvestorID string
	Rail       string
	StatusCode int
	Reason     string
}

func (e PayoutFailedEvent) Type() EventType {
	return EventTypePayoutFailed
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking the orchestrator
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus stashes events published during a unit of work and
// forwards them to the underlying bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

// NewTransactionalBus wraps a bus for use within one transaction
func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes an event until Flush
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events. Called after a successful commit.
func (b *TransactionalBus) Flush(ctx context.Context) {
	// Events outlive the transaction, so emission uses a fresh context
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events. Called after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// RegisterLogSubscribers wires structured logging for payout lifecycle events
func RegisterLogSubscribers(bus *Bus) {
	bus.Subscribe(EventTypePayoutCreated, func(ctx context.Context, event Event) {
		if e, ok := event.(PayoutCreatedEvent); ok {
			log.WithFields(log.Fields{
				"runId":          e.RunID,
				"payoutId":       e.PayoutID,
				"investorId":     e.InvestorID,
				"rail":           e.Rail,
				"currency":       e.Currency,
				"paymentOrderId": e.PaymentOrderID,
			}).Info("Payment order created")
		}
	})
	bus.Subscribe(EventTypePayoutFailed, func(ctx context.Context, event Event) {
		if e, ok := event.(PayoutFailedEvent); ok {
			log.WithFields(log.Fields{
				"runId":      e.RunID,
				"payoutId":   e.PayoutID,
				"investorId": e.InvestorID,
				"statusCode": e.StatusCode,
				"reason":     e.Reason,
			}).Warn("Payout failed")
		}
	})
	bus.Subscribe(EventTypeRunCompleted, func(ctx context.Context, event Event) {
		if e, ok := event.(RunCompletedEvent); ok {
			log.WithFields(log.Fields{
				"runId":   e.RunID,
				"eventId": e.LiquidationEventID,
				"created": e.Created,
				"skipped": e.Skipped,
				"failed":  e.Failed,
			}).Info("Payout run completed")
		}
	})
}
