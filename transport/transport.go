package transport

import (
	"context"
	"net/http"
	"time"
)

// Request is one outbound RPC exchange. URL addresses a concrete endpoint
// instance chosen by the load balancer upstream; ClientID and Operation are
// the logical-client metadata the gateway keys its isolation resources on.
type Request struct {
	// Method is the HTTP verb.
	Method string

	// URL is the absolute target URL, host and port already resolved.
	URL string

	// Header holds request headers. May be nil.
	Header http.Header

	// Body is the request payload. May be nil.
	Body []byte

	// ClientID is the logical client's configuration identifier. Distinct
	// from the service's name: two logical clients pointed at the same
	// physical service carry independent isolation configuration.
	ClientID string

	// Operation is the canonical signature of the invoked operation,
	// e.g. "GET /orders/{id}".
	Operation string
}

// CallOptions carries per-call transport tuning.
type CallOptions struct {
	// Timeout bounds the whole exchange. Zero means the transport imposes
	// no bound of its own; the caller's context governs.
	Timeout time.Duration
}

// Response is one settled transport response. The body is fully read before
// the response is returned; there is no streaming across this boundary.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// Transport performs one synchronous exchange.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: I/O failures are reported as *IOError; a non-2xx status is a
//     valid Response, not an error.
//   - Context: Execute must honor cancellation/deadlines on ctx.
type Transport interface {
	Execute(ctx context.Context, req *Request, opts CallOptions) (*Response, error)
}
