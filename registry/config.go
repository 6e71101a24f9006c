package registry

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/relaygate/resilience"
)

// ClientConfig is the explicit configuration record for one logical client,
// keyed by the client's configuration identifier. Nil sections inherit the
// registry defaults.
type ClientConfig struct {
	Pool    *resilience.BulkheadConfig
	Breaker *resilience.BreakerConfig
	Rate    *resilience.RateLimiterConfig
}

func validateClientID(clientID string) error {
	if clientID == "" {
		return errors.New("registry: client id is required")
	}
	return nil
}

func validatePoolConfig(cfg resilience.BulkheadConfig) error {
	if cfg.Workers < 0 {
		return fmt.Errorf("registry: negative worker count %d", cfg.Workers)
	}
	if cfg.QueueDepth < 0 {
		return fmt.Errorf("registry: negative queue depth %d", cfg.QueueDepth)
	}
	return nil
}

func validateBreakerConfig(cfg resilience.BreakerConfig) error {
	if cfg.FailureThreshold < 0 {
		return fmt.Errorf("registry: negative failure threshold %d", cfg.FailureThreshold)
	}
	if cfg.OpenTimeout < 0 {
		return fmt.Errorf("registry: negative open timeout %v", cfg.OpenTimeout)
	}
	return nil
}
