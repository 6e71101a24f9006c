package stats

import "context"

// Recorder receives per-endpoint call events. The endpoint is the concrete
// "host:port" the load balancer chose.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: recording is best-effort; implementations log failures
//     internally and never panic.
//   - Latency: implementations must not block materially; the gateway
//     calls them on the request path.
type Recorder interface {
	// RecordAttempt notes that a call to endpoint is about to be dispatched.
	RecordAttempt(ctx context.Context, endpoint string)

	// RecordOutcome notes that a previously attempted call settled.
	RecordOutcome(ctx context.Context, endpoint string, success bool)
}

// Nop is a Recorder that discards everything.
type Nop struct{}

func (Nop) RecordAttempt(ctx context.Context, endpoint string)               {}
func (Nop) RecordOutcome(ctx context.Context, endpoint string, success bool) {}
