package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/relaygate/registry"
	"github.com/jonwraymond/relaygate/resilience"
)

// Status represents the health status of a component.
type Status int

const (
	// StatusHealthy indicates the component is functioning normally.
	StatusHealthy Status = iota
	// StatusDegraded indicates the component is functioning but with issues.
	StatusDegraded
	// StatusUnhealthy indicates the component is not functioning properly.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result contains the outcome of a health check.
type Result struct {
	Status    Status
	Message   string
	Details   map[string]any
	Duration  time.Duration
	Timestamp time.Time
	Error     error
}

// Checker is the interface for health checks.
type Checker interface {
	// Name returns the name of this checker.
	Name() string

	// Check performs the health check and returns the result.
	Check(ctx context.Context) Result
}

// CheckerFunc adapts an ordinary function to the Checker interface.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

func (f *CheckerFunc) Name() string                     { return f.name }
func (f *CheckerFunc) Check(ctx context.Context) Result { return f.fn(ctx) }

// NewBreakerChecker reports on the breaker registry. Open breakers degrade
// the result and are listed by key; they never make it unhealthy, since an
// open circuit is protecting the caller from a bad endpoint, not a fault in
// the gateway itself.
func NewBreakerChecker(breakers *registry.BreakerRegistry) Checker {
	return NewCheckerFunc("breakers", func(ctx context.Context) Result {
		snapshot := breakers.Snapshot()

		var open []string
		for key, m := range snapshot {
			if m.State != resilience.StateClosed {
				open = append(open, key)
			}
		}

		r := Result{
			Status:    StatusHealthy,
			Message:   fmt.Sprintf("%d breakers, all closed", len(snapshot)),
			Timestamp: time.Now(),
		}
		if len(open) > 0 {
			r.Status = StatusDegraded
			r.Message = fmt.Sprintf("%d of %d breakers open", len(open), len(snapshot))
			r.Details = map[string]any{"open": open}
		}
		return r
	})
}

// NewPoolChecker reports on the pool registry. Saturated pools degrade the
// result and are listed with their occupancy.
func NewPoolChecker(pools *registry.PoolRegistry) Checker {
	return NewCheckerFunc("pools", func(ctx context.Context) Result {
		snapshot := pools.Snapshot()

		saturated := make(map[string]any)
		for key, m := range snapshot {
			if inFlight := m.Active + m.Queued; m.Capacity > 0 && inFlight >= m.Capacity {
				saturated[key] = fmt.Sprintf("%d/%d", inFlight, m.Capacity)
			}
		}

		r := Result{
			Status:    StatusHealthy,
			Message:   fmt.Sprintf("%d pools", len(snapshot)),
			Timestamp: time.Now(),
		}
		if len(saturated) > 0 {
			r.Status = StatusDegraded
			r.Message = fmt.Sprintf("%d of %d pools saturated", len(saturated), len(snapshot))
			r.Details = map[string]any{"saturated": saturated}
		}
		return r
	})
}

// NewPingChecker wraps a reachability probe, typically a stats backend ping.
// A failed ping is unhealthy: the gateway still forwards calls, but shared
// state the operator relies on is gone.
func NewPingChecker(name string, ping func(ctx context.Context) error) Checker {
	return NewCheckerFunc(name, func(ctx context.Context) Result {
		if err := ping(ctx); err != nil {
			return Result{
				Status:    StatusUnhealthy,
				Message:   "ping failed",
				Error:     err,
				Timestamp: time.Now(),
			}
		}
		return Result{
			Status:    StatusHealthy,
			Message:   "reachable",
			Timestamp: time.Now(),
		}
	})
}
