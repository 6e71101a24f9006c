// Package resilience provides the isolation primitives the call gateway
// composes around outbound RPC invocations.
//
// Two primitives carry the core semantics:
//
//   - Bulkhead: a bounded worker pool dedicated to one endpoint. Work
//     submitted to a saturated pool is rejected immediately, so one slow
//     endpoint cannot exhaust capacity needed by calls to other endpoints.
//
//   - CircuitBreaker: a per-operation gate that stops admitting calls once
//     recent failures cross a threshold, then probes for recovery after a
//     cool-down.
//
// A RateLimiter is also provided for callers that want to cap the request
// rate to a logical client ahead of pool admission.
//
// Instances are long-lived and safe for concurrent use. Ownership belongs to
// the registries in package registry; the gateway only resolves and uses them.
package resilience
