// Package config loads the gateway's YAML configuration: registry defaults,
// explicit per-client resilience records, transport tuning, stats backend
// selection, and telemetry settings. Loading applies defaults and validates
// before anything is handed to the registries, so a client either has a
// complete valid record or falls back to the defaults as a whole.
package config
