package provider

import (
	"errors"
	"fmt"
	"time"
)

// Error is a classified failure from a payment provider. StatusCode follows
// HTTP semantics: 429 and 5xx server-side failures are retriable, everything
// else is permanent.
type Error struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration // provider-supplied backoff hint on 429, 0 if absent
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
}

// Retriable reports whether the error is transient. Only the explicitly
// classified statuses retry; unknown failure modes fail fast rather than
// loop on a failure the policy does not understand.
func (e *Error) Retriable() bool {
	switch e.StatusCode {
	case 429, 502, 503, 504:
		return true
	}
	return false
}

// NewRateLimitError builds a 429 with an optional Retry-After hint
func NewRateLimitError(message string, retryAfter time.Duration) *Error {
	return &Error{StatusCode: 429, Message: message, RetryAfter: retryAfter}
}

// NewTransientError builds a retriable server-side error
func NewTransientError(message string, statusCode int) *Error {
	return &Error{StatusCode: statusCode, Message: message}
}

// NewPermanentError builds a non-retriable client-side error
func NewPermanentError(message string, statusCode int) *Error {
	return &Error{StatusCode: statusCode, Message: message}
}

// Classify extracts the provider error from err. Errors that are not
// *provider.Error are treated as permanent with status 500.
func Classify(err error) (*Error, bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr, perr.Retriable()
	}
	return &Error{StatusCode: 500, Message: err.Error()}, false
}
