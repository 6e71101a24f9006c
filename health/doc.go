// Package health exposes the gateway's operational state: readiness and
// liveness probes plus a snapshot endpoint with per-endpoint pool, breaker,
// and call counters. Open breakers degrade readiness rather than failing it;
// an open circuit is the gateway doing its job, not the gateway being down.
package health
