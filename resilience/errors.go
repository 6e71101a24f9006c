package resilience

import "errors"

// Sentinel errors for isolation primitives. The gateway's classifier branches
// on these, so they must be returned unwrapped or wrapped with %w.
var (
	// ErrBulkheadFull is returned when the worker pool rejects admission.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrCircuitOpen is returned when the circuit breaker rejects admission.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrRateLimited is returned when the per-client rate limit is exceeded.
	ErrRateLimited = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadClosed is returned when work is submitted after Close.
	ErrBulkheadClosed = errors.New("resilience: bulkhead is closed")
)
