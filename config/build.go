package config

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/relaygate/observe"
	"github.com/jonwraymond/relaygate/registry"
	"github.com/jonwraymond/relaygate/resilience"
	"github.com/jonwraymond/relaygate/stats"
	"github.com/jonwraymond/relaygate/transport"
)

// Registries holds the three resolution registries built from one Config.
type Registries struct {
	Pools    *registry.PoolRegistry
	Breakers *registry.BreakerRegistry
	Limiters *registry.LimiterRegistry
}

// BuildRegistries constructs the registries with the configured defaults and
// registers every explicit client record. Clients without a section fall back
// to the defaults at resolution time.
func (c *Config) BuildRegistries() (*Registries, error) {
	r := &Registries{
		Pools:    registry.NewPoolRegistry(poolConfig(c.Defaults.Pool)),
		Breakers: registry.NewBreakerRegistry(breakerConfig(c.Defaults.Breaker)),
		Limiters: registry.NewLimiterRegistry(),
	}

	for id, client := range c.Clients {
		if err := r.Register(id, client.clientConfig()); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register applies one explicit client record across the registries. Nil
// sections of the record leave that registry on its defaults for the client.
func (r *Registries) Register(clientID string, cfg registry.ClientConfig) error {
	if cfg.Pool != nil {
		if err := r.Pools.Configure(clientID, *cfg.Pool); err != nil {
			return fmt.Errorf("pool for %s: %w", clientID, err)
		}
	}
	if cfg.Breaker != nil {
		if err := r.Breakers.Configure(clientID, *cfg.Breaker); err != nil {
			return fmt.Errorf("breaker for %s: %w", clientID, err)
		}
	}
	if cfg.Rate != nil {
		if err := r.Limiters.Configure(clientID, *cfg.Rate); err != nil {
			return fmt.Errorf("rate limit for %s: %w", clientID, err)
		}
	}
	return nil
}

// clientConfig translates one YAML client section into the registries'
// explicit record form.
func (s ClientSettings) clientConfig() registry.ClientConfig {
	var cc registry.ClientConfig
	if s.Pool != nil {
		p := poolConfig(s.Pool)
		cc.Pool = &p
	}
	if s.Breaker != nil {
		b := breakerConfig(s.Breaker)
		cc.Breaker = &b
	}
	if s.Rate != nil {
		rl := resilience.RateLimiterConfig{
			Rate:  s.Rate.Rate,
			Burst: s.Rate.Burst,
		}
		cc.Rate = &rl
	}
	return cc
}

// BuildTransport constructs the HTTP transport from the transport section.
func (c *Config) BuildTransport() *transport.HTTPTransport {
	return transport.NewHTTPTransport(transport.HTTPConfig{
		ConnectTimeout:      c.Transport.ConnectTimeout,
		MaxIdleConnsPerHost: c.Transport.MaxIdleConnsPerHost,
		DisableKeepAlives:   c.Transport.DisableKeepAlives,
	})
}

// BuildRecorder constructs the stats backend named by the stats section. The
// observer supplies the meter for the otel backend and the logger for redis
// write failures.
func (c *Config) BuildRecorder(obs observe.Observer) (stats.Recorder, error) {
	switch c.Stats.Backend {
	case "memory":
		return stats.NewMemory(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     c.Stats.Redis.Addr,
			Password: c.Stats.Redis.Password,
			DB:       c.Stats.Redis.DB,
		})
		opts := []stats.RedisOption{}
		if c.Stats.Redis.Prefix != "" {
			opts = append(opts, stats.WithRedisPrefix(c.Stats.Redis.Prefix))
		}
		if obs != nil {
			opts = append(opts, stats.WithRedisLogger(obs.Logger()))
		}
		return stats.NewRedis(client, opts...), nil
	case "otel":
		if obs == nil {
			return nil, fmt.Errorf("otel stats backend requires an observer")
		}
		return stats.NewOtel(obs.Meter())
	case "none":
		return stats.Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown stats backend: %s", c.Stats.Backend)
	}
}

// ObserveConfig translates the telemetry section for the observer.
func (c *Config) ObserveConfig(version string) observe.Config {
	return observe.Config{
		ServiceName: c.Telemetry.ServiceName,
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Telemetry.Tracing,
			Exporter:  c.Telemetry.Exporter,
			SamplePct: c.Telemetry.SamplePct,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.Telemetry.LogLevel,
		},
	}
}

func poolConfig(s *PoolSettings) resilience.BulkheadConfig {
	if s == nil {
		return resilience.BulkheadConfig{}
	}
	return resilience.BulkheadConfig{
		Workers:    s.Workers,
		QueueDepth: s.QueueDepth,
	}
}

func breakerConfig(s *BreakerSettings) resilience.BreakerConfig {
	if s == nil {
		return resilience.BreakerConfig{}
	}
	return resilience.BreakerConfig{
		FailureThreshold: s.FailureThreshold,
		OpenTimeout:      s.OpenTimeout,
		HalfOpenProbes:   s.HalfOpenProbes,
	}
}
