package resilience

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures the per-client rate limiter.
type RateLimiterConfig struct {
	// Rate is the number of calls allowed per second.
	// Default: 100
	Rate float64

	// Burst is the maximum burst size.
	// Default: 10
	Burst int
}

// RateLimiter caps the call rate to one logical client. It sits ahead of
// pool admission and never waits: a call over the limit is rejected.
type RateLimiter struct {
	lim *rate.Limiter

	mu      sync.Mutex
	allowed int64
	limited int64
}

// NewRateLimiter creates a token-bucket rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 100
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}

	return &RateLimiter{
		lim: rate.NewLimiter(rate.Limit(config.Rate), config.Burst),
	}
}

// Allow reports whether one call may proceed, consuming a token if so.
func (rl *RateLimiter) Allow() error {
	ok := rl.lim.Allow()

	rl.mu.Lock()
	if ok {
		rl.allowed++
	} else {
		rl.limited++
	}
	rl.mu.Unlock()

	if !ok {
		return ErrRateLimited
	}
	return nil
}

// Metrics returns a snapshot of limiter statistics.
func (rl *RateLimiter) Metrics() RateLimiterMetrics {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return RateLimiterMetrics{
		Allowed: rl.allowed,
		Limited: rl.limited,
	}
}

// RateLimiterMetrics contains rate limiter statistics.
type RateLimiterMetrics struct {
	Allowed int64
	Limited int64
}
