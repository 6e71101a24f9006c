package registry

import (
	"sync"

	"github.com/jonwraymond/relaygate/resilience"
)

// LimiterRegistry resolves the optional per-client rate limiter. Unlike
// pools and breakers, a limiter only exists for clients that configured one:
// there is no default rate cap.
type LimiterRegistry struct {
	mu       sync.RWMutex
	limiters map[string]*resilience.RateLimiter
	configs  map[string]resilience.RateLimiterConfig
}

// NewLimiterRegistry creates an empty limiter registry.
func NewLimiterRegistry() *LimiterRegistry {
	return &LimiterRegistry{
		limiters: make(map[string]*resilience.RateLimiter),
		configs:  make(map[string]resilience.RateLimiterConfig),
	}
}

// Configure registers a rate limit for one logical client.
func (r *LimiterRegistry) Configure(clientID string, cfg resilience.RateLimiterConfig) error {
	if err := validateClientID(clientID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[clientID] = cfg
	return nil
}

// Limiter returns the client's rate limiter, creating it on first use.
// Returns nil when the client has no rate limit configured.
func (r *LimiterRegistry) Limiter(clientID string) *resilience.RateLimiter {
	r.mu.RLock()
	if rl, ok := r.limiters[clientID]; ok {
		r.mu.RUnlock()
		return rl
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if rl, ok := r.limiters[clientID]; ok {
		return rl
	}
	cfg, ok := r.configs[clientID]
	if !ok {
		return nil
	}
	rl := resilience.NewRateLimiter(cfg)
	r.limiters[clientID] = rl
	return rl
}
