package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the gateway configuration.
type Config struct {
	Defaults  ClientSettings            `yaml:"defaults"`
	Clients   map[string]ClientSettings `yaml:"clients"`
	Transport TransportSettings         `yaml:"transport"`
	Stats     StatsSettings             `yaml:"stats"`
	Telemetry TelemetrySettings         `yaml:"telemetry"`
}

// ClientSettings is the explicit resilience record for one logical client.
// A nil section means the client inherits that section from the defaults.
type ClientSettings struct {
	Pool    *PoolSettings    `yaml:"pool"`
	Breaker *BreakerSettings `yaml:"breaker"`
	Rate    *RateSettings    `yaml:"rate"`
}

// PoolSettings configures the per-endpoint worker pool.
type PoolSettings struct {
	Workers    int `yaml:"workers"`
	QueueDepth int `yaml:"queue_depth"`
}

// BreakerSettings configures the per-operation circuit breaker.
type BreakerSettings struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	OpenTimeout      time.Duration `yaml:"open_timeout"`
	HalfOpenProbes   int           `yaml:"half_open_probes"`
}

// RateSettings configures the optional per-client rate limiter.
type RateSettings struct {
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
}

// TransportSettings configures the HTTP transport.
type TransportSettings struct {
	ConnectTimeout      time.Duration `yaml:"connect_timeout"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	DisableKeepAlives   bool          `yaml:"disable_keep_alives"`
}

// StatsSettings selects the endpoint-stats backend.
type StatsSettings struct {
	Backend string        `yaml:"backend"` // memory|redis|otel|none
	Redis   RedisSettings `yaml:"redis"`
}

// RedisSettings configures the redis stats backend.
type RedisSettings struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// TelemetrySettings configures tracing, metrics, and logging.
type TelemetrySettings struct {
	ServiceName string  `yaml:"service_name"`
	Tracing     bool    `yaml:"tracing"`
	Exporter    string  `yaml:"exporter"` // otlp|jaeger|stdout|none
	SamplePct   float64 `yaml:"sample_pct"`
	LogLevel    string  `yaml:"log_level"` // debug|info|warn|error
}

// Load loads configuration from file. Environment references of the form
// ${VAR} in the file are expanded first and must be set.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded, err := expandEnv(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to expand config file: %w", err)
	}
	return Parse([]byte(expanded))
}

// Parse parses, defaults, and validates raw YAML configuration.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Defaults.Pool == nil {
		c.Defaults.Pool = &PoolSettings{}
	}
	if c.Defaults.Pool.Workers == 0 {
		c.Defaults.Pool.Workers = 10
	}
	if c.Defaults.Breaker == nil {
		c.Defaults.Breaker = &BreakerSettings{}
	}
	if c.Defaults.Breaker.FailureThreshold == 0 {
		c.Defaults.Breaker.FailureThreshold = 5
	}
	if c.Defaults.Breaker.OpenTimeout == 0 {
		c.Defaults.Breaker.OpenTimeout = 30 * time.Second
	}
	if c.Defaults.Breaker.HalfOpenProbes == 0 {
		c.Defaults.Breaker.HalfOpenProbes = 1
	}

	if c.Transport.ConnectTimeout == 0 {
		c.Transport.ConnectTimeout = 5 * time.Second
	}
	if c.Transport.MaxIdleConnsPerHost == 0 {
		c.Transport.MaxIdleConnsPerHost = 10
	}

	if c.Stats.Backend == "" {
		c.Stats.Backend = "memory"
	}
	if c.Stats.Backend == "redis" && c.Stats.Redis.Addr == "" {
		c.Stats.Redis.Addr = "localhost:6379"
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "relaygate"
	}
	if c.Telemetry.Exporter == "" {
		c.Telemetry.Exporter = "none"
	}
	if c.Telemetry.LogLevel == "" {
		c.Telemetry.LogLevel = "info"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Defaults.validate("defaults"); err != nil {
		return err
	}
	for id, client := range c.Clients {
		if id == "" {
			return fmt.Errorf("client id cannot be empty")
		}
		if err := client.validate("client " + id); err != nil {
			return err
		}
	}

	if c.Transport.ConnectTimeout <= 0 {
		return fmt.Errorf("transport connect_timeout must be positive")
	}
	if c.Transport.MaxIdleConnsPerHost <= 0 {
		return fmt.Errorf("transport max_idle_conns_per_host must be positive")
	}

	validBackends := map[string]bool{
		"memory": true, "redis": true, "otel": true, "none": true,
	}
	if !validBackends[c.Stats.Backend] {
		return fmt.Errorf("invalid stats backend: %s (must be memory, redis, otel, or none)", c.Stats.Backend)
	}
	if c.Stats.Backend == "redis" && c.Stats.Redis.Addr == "" {
		return fmt.Errorf("redis addr cannot be empty when the redis backend is selected")
	}

	if c.Telemetry.SamplePct < 0 || c.Telemetry.SamplePct > 1.0 {
		return fmt.Errorf("sample_pct must be between 0 and 1, got %f", c.Telemetry.SamplePct)
	}
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Telemetry.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Telemetry.LogLevel)
	}

	return nil
}

func (s ClientSettings) validate(section string) error {
	if s.Pool != nil {
		if s.Pool.Workers < 0 {
			return fmt.Errorf("%s: workers cannot be negative", section)
		}
		if s.Pool.QueueDepth < 0 {
			return fmt.Errorf("%s: queue_depth cannot be negative", section)
		}
	}
	if s.Breaker != nil {
		if s.Breaker.FailureThreshold < 0 {
			return fmt.Errorf("%s: failure_threshold cannot be negative", section)
		}
		if s.Breaker.OpenTimeout < 0 {
			return fmt.Errorf("%s: open_timeout cannot be negative", section)
		}
		if s.Breaker.HalfOpenProbes < 0 {
			return fmt.Errorf("%s: half_open_probes cannot be negative", section)
		}
	}
	if s.Rate != nil {
		if s.Rate.Rate <= 0 {
			return fmt.Errorf("%s: rate must be positive", section)
		}
		if s.Rate.Burst < 0 {
			return fmt.Errorf("%s: burst cannot be negative", section)
		}
	}
	return nil
}
