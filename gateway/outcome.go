package gateway

import (
	"net/http"

	"github.com/jonwraymond/relaygate/transport"
)

// Status is the classification of one settled call. It is the only channel
// by which failure information crosses back to the caller.
type Status int

const (
	// StatusOK means the transport's response is carried unchanged.
	StatusOK Status = iota

	// StatusPoolSaturated means the endpoint's worker pool rejected
	// admission. The request never left the pool; retry is always safe.
	StatusPoolSaturated

	// StatusCircuitOpen means the operation's breaker rejected admission.
	// The request never reached the transport; retry after backoff, or
	// route to a fallback instance.
	StatusCircuitOpen

	// StatusRetryableIO means the exchange failed before the request was
	// written to the wire. Safe to retry unconditionally.
	StatusRetryableIO

	// StatusNonRetryableIO means the exchange failed after the request was
	// sent; the server may have partially processed it. Retry only
	// idempotent operations.
	StatusNonRetryableIO

	// StatusRateLimited means the per-client rate limiter rejected the
	// call before pool admission. Retry after backoff.
	StatusRateLimited
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusPoolSaturated:
		return "pool-saturated"
	case StatusCircuitOpen:
		return "circuit-open"
	case StatusRetryableIO:
		return "retryable-io"
	case StatusNonRetryableIO:
		return "non-retryable-io"
	case StatusRateLimited:
		return "rate-limited"
	default:
		return "unknown"
	}
}

// Synthesized wire codes for failure outcomes, outside the standard HTTP
// range so they can never collide with a real upstream status.
const (
	CodeCircuitOpen    = 581
	CodePoolSaturated  = 582
	CodeRetryableIO    = 583
	CodeNonRetryableIO = 584
	CodeRateLimited    = 585
)

// WireCode returns the synthesized status code for a failure status, or 0
// for StatusOK (the real response carries its own code).
func (s Status) WireCode() int {
	switch s {
	case StatusCircuitOpen:
		return CodeCircuitOpen
	case StatusPoolSaturated:
		return CodePoolSaturated
	case StatusRetryableIO:
		return CodeRetryableIO
	case StatusNonRetryableIO:
		return CodeNonRetryableIO
	case StatusRateLimited:
		return CodeRateLimited
	default:
		return 0
	}
}

// Retryable reports whether a blind retry of the same request is safe.
// StatusNonRetryableIO is the one failure where the server may have seen the
// request; the caller's error decoder decides based on idempotency.
func (s Status) Retryable() bool {
	switch s {
	case StatusPoolSaturated, StatusCircuitOpen, StatusRetryableIO, StatusRateLimited:
		return true
	default:
		return false
	}
}

// Outcome is the settled result of one Execute. Exactly one of Response
// (StatusOK) or Message (failure statuses) is meaningful.
type Outcome struct {
	Status   Status
	Response *transport.Response
	Message  string
}

// OK reports whether the call completed with a transport response.
func (o *Outcome) OK() bool { return o.Status == StatusOK }

// SynthesizeResponse renders a failure outcome as a transport.Response
// carrying the synthesized wire code, for callers that only speak HTTP.
// Returns the real response unchanged for StatusOK.
func (o *Outcome) SynthesizeResponse() *transport.Response {
	if o.Status == StatusOK {
		return o.Response
	}
	return &transport.Response{
		StatusCode: o.Status.WireCode(),
		Status:     o.Message,
		Header:     http.Header{},
	}
}
