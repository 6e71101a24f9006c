// Package gateway is the resilient-execution layer between an RPC client
// abstraction and the transport. For every outbound call it derives the
// endpoint keys, resolves the endpoint's worker pool and the operation's
// circuit breaker from the registries, composes the isolation pipeline
// (pool admission, then breaker admission, then the transport exchange on a
// pool worker with the caller's trace context reinstated), records attempt
// and outcome events around the dispatch, and classifies every failure into
// an Outcome the retry layer above can reason about.
//
// Execute never returns a raw isolation or transport error for the
// conditions in the failure taxonomy; the Outcome value is the error
// channel. Only unrecoverable conditions (a target URL that cannot be
// parsed, invalid registry configuration) surface as Go errors.
package gateway
