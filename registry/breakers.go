package registry

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/relaygate/resilience"
)

// BreakerRegistry resolves the circuit breaker for an endpoint-method key.
// Breaker state is method-specific: every operation on every endpoint
// instance gets its own breaker, while all of a client's breakers share the
// client's configuration.
type BreakerRegistry struct {
	defaults resilience.BreakerConfig

	mu       sync.RWMutex
	breakers map[string]*resilience.CircuitBreaker
	configs  map[string]resilience.BreakerConfig

	group singleflight.Group
}

// NewBreakerRegistry creates a registry whose unconfigured clients fall back
// to defaults.
func NewBreakerRegistry(defaults resilience.BreakerConfig) *BreakerRegistry {
	return &BreakerRegistry{
		defaults: defaults,
		breakers: make(map[string]*resilience.CircuitBreaker),
		configs:  make(map[string]resilience.BreakerConfig),
	}
}

// Configure registers the breaker configuration for one logical client.
func (r *BreakerRegistry) Configure(clientID string, cfg resilience.BreakerConfig) error {
	if err := validateClientID(clientID); err != nil {
		return err
	}
	if err := validateBreakerConfig(cfg); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[clientID] = cfg
	return nil
}

// Breaker returns the circuit breaker for key, creating it on first use with
// the client's configuration, or the defaults when the client has none.
func (r *BreakerRegistry) Breaker(key, clientID string) *resilience.CircuitBreaker {
	r.mu.RLock()
	if cb, ok := r.breakers[key]; ok {
		r.mu.RUnlock()
		return cb
	}
	r.mu.RUnlock()

	v, _, _ := r.group.Do(key, func() (any, error) {
		r.mu.Lock()
		defer r.mu.Unlock()

		if cb, ok := r.breakers[key]; ok {
			return cb, nil
		}

		cfg, ok := r.configs[clientID]
		if !ok {
			cfg = r.defaults
		}
		cb := resilience.NewCircuitBreaker(key, cfg)
		r.breakers[key] = cb
		return cb, nil
	})
	return v.(*resilience.CircuitBreaker)
}

// Snapshot returns current metrics for every resolved breaker, keyed by
// endpoint-method key.
func (r *BreakerRegistry) Snapshot() map[string]resilience.BreakerMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]resilience.BreakerMetrics, len(r.breakers))
	for key, cb := range r.breakers {
		out[key] = cb.Metrics()
	}
	return out
}
