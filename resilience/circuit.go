package resilience

import (
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means calls are admitted normally.
	StateClosed State = iota
	// StateOpen means calls are rejected without touching the transport.
	StateOpen
	// StateHalfOpen means a limited number of probe calls are admitted.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the circuit.
	// Default: 5
	FailureThreshold int

	// OpenTimeout is how long the circuit stays open before admitting
	// recovery probes.
	// Default: 30 seconds
	OpenTimeout time.Duration

	// HalfOpenProbes is the number of calls admitted in half-open state.
	// Default: 1
	HalfOpenProbes int

	// OnStateChange, when set, is called with the breaker's name on every
	// transition. Called with the breaker's mutex held; keep it cheap.
	OnStateChange func(name string, from, to State)

	// IsFailure decides whether an error counts against the threshold.
	// Default: every non-nil error counts.
	IsFailure func(err error) bool
}

// CircuitBreaker gates admission for one RPC operation on one endpoint.
// It is keyed finer than the bulkhead: breaker state is method-specific while
// the worker pool is shared by all methods of the endpoint.
type CircuitBreaker struct {
	name   string
	config BreakerConfig

	mu         sync.Mutex
	state      State
	failures   int
	openedAt   time.Time
	probes     int
	rejections int64
}

// NewCircuitBreaker creates a breaker in the closed state. The name is used
// only for state-change notifications and diagnostics.
func NewCircuitBreaker(name string, config BreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = 30 * time.Second
	}
	if config.HalfOpenProbes <= 0 {
		config.HalfOpenProbes = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}

	return &CircuitBreaker{
		name:   name,
		config: config,
		state:  StateClosed,
	}
}

// Name returns the breaker's key string.
func (cb *CircuitBreaker) Name() string { return cb.name }

// Allow reports whether a call may proceed. Returns ErrCircuitOpen when the
// circuit is open or the half-open probe budget is spent. A call admitted by
// Allow must be settled with Record.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.stateLocked() {
	case StateOpen:
		cb.rejections++
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.probes >= cb.config.HalfOpenProbes {
			cb.rejections++
			return ErrCircuitOpen
		}
		cb.probes++
	}
	return nil
}

// Record settles a call previously admitted by Allow.
func (cb *CircuitBreaker) Record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := cb.config.IsFailure(err)

	switch cb.state {
	case StateClosed:
		if failed {
			cb.failures++
			if cb.failures >= cb.config.FailureThreshold {
				cb.transitionLocked(StateOpen)
			}
		} else {
			cb.failures = 0
		}

	case StateHalfOpen:
		if failed {
			// Probe failed, restart the open timeout.
			cb.transitionLocked(StateOpen)
		} else {
			cb.failures = 0
			cb.transitionLocked(StateClosed)
		}
	}
}

// Do runs op through the breaker: admission check, then settle.
func (cb *CircuitBreaker) Do(op func() error) error {
	if err := cb.Allow(); err != nil {
		return err
	}
	err := op()
	cb.Record(err)
	return err
}

// State returns the current circuit state, applying the open-timeout
// transition if it is due.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked()
}

// Reset forces the breaker back to closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.probes = 0
	if cb.state != StateClosed {
		cb.transitionLocked(StateClosed)
	}
}

func (cb *CircuitBreaker) stateLocked() State {
	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.config.OpenTimeout {
		cb.transitionLocked(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) transitionLocked(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to

	switch to {
	case StateOpen:
		cb.openedAt = time.Now()
	case StateHalfOpen:
		cb.probes = 0
	}

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.name, from, to)
	}
}

// Metrics returns a snapshot of breaker statistics.
func (cb *CircuitBreaker) Metrics() BreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return BreakerMetrics{
		State:      cb.stateLocked(),
		Failures:   cb.failures,
		Rejections: cb.rejections,
	}
}

// BreakerMetrics contains circuit breaker statistics.
type BreakerMetrics struct {
	State      State
	Failures   int
	Rejections int64
}
