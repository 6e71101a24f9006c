// Package observe provides telemetry for the call gateway: OpenTelemetry
// tracing and metrics behind an Observer, a structured JSON logger, and the
// trace carrier that moves a caller's span context across the bulkhead's
// worker boundary.
package observe
