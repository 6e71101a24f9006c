package stats

import (
	"context"
	"sync"
)

// EndpointStats is a snapshot of one endpoint's counters.
type EndpointStats struct {
	Attempts  int64
	Successes int64
	Failures  int64
}

// Memory is an in-process Recorder. Suitable for a single gateway instance
// and for tests.
type Memory struct {
	mu        sync.Mutex
	endpoints map[string]*EndpointStats
}

// NewMemory creates an empty in-memory recorder.
func NewMemory() *Memory {
	return &Memory{endpoints: make(map[string]*EndpointStats)}
}

func (m *Memory) RecordAttempt(ctx context.Context, endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statsLocked(endpoint).Attempts++
}

func (m *Memory) RecordOutcome(ctx context.Context, endpoint string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.statsLocked(endpoint)
	if success {
		s.Successes++
	} else {
		s.Failures++
	}
}

func (m *Memory) statsLocked(endpoint string) *EndpointStats {
	s, ok := m.endpoints[endpoint]
	if !ok {
		s = &EndpointStats{}
		m.endpoints[endpoint] = s
	}
	return s
}

// Snapshot returns a copy of all endpoint counters.
func (m *Memory) Snapshot() map[string]EndpointStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]EndpointStats, len(m.endpoints))
	for k, v := range m.endpoints {
		out[k] = *v
	}
	return out
}
