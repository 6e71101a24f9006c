// Package stats records per-endpoint call bookkeeping for load-balancing
// visibility: one attempt event before each dispatch and exactly one outcome
// event after it settles.
//
// Recorders are fire-and-forget: they must return quickly and must not fail
// the call. Backends include an in-memory store for tests and single-process
// use, a Redis store for sharing counts across gateway instances, and an
// OpenTelemetry store feeding the configured metrics pipeline.
package stats
