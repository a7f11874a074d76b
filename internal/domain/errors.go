package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals a malformed search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUpstreamUnavailable signals a network failure or 5xx from the catalog.
	ErrUpstreamUnavailable = errors.New("upstream catalog unavailable")
	// ErrUpstreamRejected signals that the catalog refused the request (success=false or 4xx).
	ErrUpstreamRejected = errors.New("upstream catalog rejected request")
	// ErrCacheTierUnavailable signals a durable cache tier read or write failure.
	ErrCacheTierUnavailable = errors.New("cache tier unavailable")
	// ErrTimeout signals that a call exceeded its time bound.
	ErrTimeout = errors.New("timeout")
	// ErrQuotaExceeded signals an exhausted upstream request quota.
	ErrQuotaExceeded = errors.New("upstream quota exceeded")
	// ErrInvalidRecord signals an upstream record that failed boundary validation.
	ErrInvalidRecord = errors.New("invalid catalog record")
)

// UpstreamError carries the HTTP status of a failed catalog call.
// It unwraps to ErrUpstreamUnavailable or ErrUpstreamRejected.
type UpstreamError struct {
	Status  int
	Message string
	kind    error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.kind.Error(), e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.kind.Error(), e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.kind }

// NewUpstreamError classifies a failed catalog call by status:
// 0 (transport failure), 429 and 5xx are unavailable, other 4xx are rejected.
func NewUpstreamError(status int, message string) error {
	kind := ErrUpstreamRejected
	if status == 0 || status == 429 || status >= 500 {
		kind = ErrUpstreamUnavailable
	}
	return &UpstreamError{Status: status, Message: message, kind: kind}
}

// IsTransient reports whether err describes a failure worth retrying later
// (as opposed to a legitimately empty or rejected search).
func IsTransient(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrCacheTierUnavailable)
}
