// Package registry owns the long-lived isolation resources the gateway
// resolves per call: one worker-pool bulkhead per endpoint, one circuit
// breaker per endpoint method, and optionally one rate limiter per logical
// client.
//
// Resolution is lazy and identity-stable: the first lookup under a key
// creates the resource, every later lookup returns the same instance.
// Configuration is an explicit per-client record registered up front; a key
// whose client has no record falls back to the registry's defaults. There is
// no error path for an unconfigured client; the default configuration
// always exists.
package registry
