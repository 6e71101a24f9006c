package registry

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/relaygate/resilience"
)

// PoolRegistry resolves the worker-pool bulkhead for an endpoint key.
// Exactly one bulkhead exists per distinct key; all methods of the same
// endpoint share it.
type PoolRegistry struct {
	defaults resilience.BulkheadConfig

	mu      sync.RWMutex
	pools   map[string]*resilience.Bulkhead
	configs map[string]resilience.BulkheadConfig

	group singleflight.Group
}

// NewPoolRegistry creates a registry whose unconfigured clients fall back to
// defaults.
func NewPoolRegistry(defaults resilience.BulkheadConfig) *PoolRegistry {
	return &PoolRegistry{
		defaults: defaults,
		pools:    make(map[string]*resilience.Bulkhead),
		configs:  make(map[string]resilience.BulkheadConfig),
	}
}

// Configure registers the pool configuration for one logical client.
// Must be called before the first resolution for that client takes effect.
func (r *PoolRegistry) Configure(clientID string, cfg resilience.BulkheadConfig) error {
	if err := validateClientID(clientID); err != nil {
		return err
	}
	if err := validatePoolConfig(cfg); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[clientID] = cfg
	return nil
}

// Pool returns the bulkhead for key, creating it on first use with the
// client's configuration, or the defaults when the client has none.
// Concurrent first lookups under the same key yield one instance.
func (r *PoolRegistry) Pool(key, clientID string) *resilience.Bulkhead {
	r.mu.RLock()
	if pool, ok := r.pools[key]; ok {
		r.mu.RUnlock()
		return pool
	}
	r.mu.RUnlock()

	v, _, _ := r.group.Do(key, func() (any, error) {
		r.mu.Lock()
		defer r.mu.Unlock()

		if pool, ok := r.pools[key]; ok {
			return pool, nil
		}

		cfg, ok := r.configs[clientID]
		if !ok {
			cfg = r.defaults
		}
		pool := resilience.NewBulkhead(cfg)
		r.pools[key] = pool
		return pool, nil
	})
	return v.(*resilience.Bulkhead)
}

// Snapshot returns current metrics for every resolved pool, keyed by
// endpoint key. Intended for load-balancing visibility.
func (r *PoolRegistry) Snapshot() map[string]resilience.BulkheadMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]resilience.BulkheadMetrics, len(r.pools))
	for key, pool := range r.pools {
		out[key] = pool.Metrics()
	}
	return out
}

// Close shuts down every resolved pool and waits for in-flight work.
func (r *PoolRegistry) Close() {
	r.mu.Lock()
	pools := make([]*resilience.Bulkhead, 0, len(r.pools))
	for _, pool := range r.pools {
		pools = append(pools, pool)
	}
	r.pools = make(map[string]*resilience.Bulkhead)
	r.mu.Unlock()

	for _, pool := range pools {
		pool.Close()
	}
}
