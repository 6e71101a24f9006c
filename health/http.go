package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jonwraymond/relaygate/registry"
	"github.com/jonwraymond/relaygate/resilience"
)

// LivenessHandler answers liveness probes: the process is up.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler answers readiness probes by running every registered
// check. Degraded still answers 200; only unhealthy takes the gateway out of
// rotation.
func ReadinessHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		results := agg.CheckAll(ctx)
		status := OverallStatus(results)

		w.Header().Set("Content-Type", "text/plain")
		if status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_, _ = w.Write([]byte(statusBody(status)))
	}
}

func statusBody(s Status) string {
	switch s {
	case StatusHealthy:
		return "OK"
	case StatusDegraded:
		return "DEGRADED"
	default:
		return "UNHEALTHY"
	}
}

// HealthResponse is the JSON body of the detailed health endpoint.
type HealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Checks    map[string]CheckResponse `json:"checks,omitempty"`
}

// CheckResponse is the JSON body for a single check.
type CheckResponse struct {
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// DetailedHandler reports every check's result as JSON.
func DetailedHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		results := agg.CheckAll(ctx)
		status := OverallStatus(results)

		response := HealthResponse{
			Status:    status.String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    make(map[string]CheckResponse, len(results)),
		}
		for name, result := range results {
			check := CheckResponse{
				Status:   result.Status.String(),
				Message:  result.Message,
				Duration: result.Duration.String(),
				Details:  result.Details,
			}
			if result.Error != nil {
				check.Error = result.Error.Error()
			}
			response.Checks[name] = check
		}

		w.Header().Set("Content-Type", "application/json")
		if status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(response)
	}
}

// SnapshotResponse is the JSON body of the snapshot endpoint: the live state
// of every resolved pool and breaker, for load-balancing decisions and
// operator inspection.
type SnapshotResponse struct {
	Pools    map[string]PoolSnapshot    `json:"pools"`
	Breakers map[string]BreakerSnapshot `json:"breakers"`
}

// PoolSnapshot is one worker pool's counters.
type PoolSnapshot struct {
	Workers   int   `json:"workers"`
	Capacity  int   `json:"capacity"`
	Active    int   `json:"active"`
	Queued    int   `json:"queued"`
	MaxActive int   `json:"max_active"`
	Rejected  int64 `json:"rejected"`
	Completed int64 `json:"completed"`
}

// BreakerSnapshot is one circuit breaker's state.
type BreakerSnapshot struct {
	State      string `json:"state"`
	Failures   int    `json:"failures"`
	Rejections int64  `json:"rejections"`
}

// SnapshotHandler serves the pool and breaker snapshots as JSON.
func SnapshotHandler(pools *registry.PoolRegistry, breakers *registry.BreakerRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := SnapshotResponse{
			Pools:    make(map[string]PoolSnapshot),
			Breakers: make(map[string]BreakerSnapshot),
		}

		for key, m := range pools.Snapshot() {
			response.Pools[key] = PoolSnapshot{
				Workers:   m.Workers,
				Capacity:  m.Capacity,
				Active:    m.Active,
				Queued:    m.Queued,
				MaxActive: m.MaxActive,
				Rejected:  m.Rejected,
				Completed: m.Completed,
			}
		}
		for key, m := range breakers.Snapshot() {
			response.Breakers[key] = breakerSnapshot(m)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

func breakerSnapshot(m resilience.BreakerMetrics) BreakerSnapshot {
	return BreakerSnapshot{
		State:      m.State.String(),
		Failures:   m.Failures,
		Rejections: m.Rejections,
	}
}

// RegisterRoutes mounts the health and snapshot endpoints on the router.
func RegisterRoutes(r *mux.Router, agg *Aggregator, pools *registry.PoolRegistry, breakers *registry.BreakerRegistry) {
	r.HandleFunc("/healthz", LivenessHandler()).Methods(http.MethodGet)
	r.HandleFunc("/readyz", ReadinessHandler(agg)).Methods(http.MethodGet)
	r.HandleFunc("/health", DetailedHandler(agg)).Methods(http.MethodGet)
	r.HandleFunc("/snapshots", SnapshotHandler(pools, breakers)).Methods(http.MethodGet)
}
