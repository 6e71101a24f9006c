package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/relaygate/resilience"
)

func TestPoolRegistry_IdentityStable(t *testing.T) {
	r := NewPoolRegistry(resilience.BulkheadConfig{Workers: 2})
	defer r.Close()

	a := r.Pool("orders:10.0.0.1:8080", "orders")
	b := r.Pool("orders:10.0.0.1:8080", "orders")
	if a != b {
		t.Error("same key resolved two pool instances")
	}

	c := r.Pool("orders:10.0.0.2:8080", "orders")
	if a == c {
		t.Error("distinct keys resolved the same pool instance")
	}
}

func TestPoolRegistry_ClientConfigOverridesDefaults(t *testing.T) {
	r := NewPoolRegistry(resilience.BulkheadConfig{Workers: 2})
	defer r.Close()

	if err := r.Configure("orders", resilience.BulkheadConfig{Workers: 1}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	configured := r.Pool("orders:10.0.0.1:8080", "orders")
	if got := configured.Metrics().Workers; got != 1 {
		t.Errorf("configured pool Workers = %d, want 1", got)
	}

	fallback := r.Pool("billing:10.0.0.1:8080", "billing")
	if got := fallback.Metrics().Workers; got != 2 {
		t.Errorf("fallback pool Workers = %d, want 2", got)
	}
}

func TestPoolRegistry_ConfigureRejectsInvalid(t *testing.T) {
	r := NewPoolRegistry(resilience.BulkheadConfig{})
	defer r.Close()

	if err := r.Configure("", resilience.BulkheadConfig{}); err == nil {
		t.Error("Configure() with empty client id, want error")
	}
	if err := r.Configure("c", resilience.BulkheadConfig{Workers: -1}); err == nil {
		t.Error("Configure() with negative workers, want error")
	}
}

func TestPoolRegistry_ConcurrentResolveSingleInstance(t *testing.T) {
	r := NewPoolRegistry(resilience.BulkheadConfig{Workers: 1})
	defer r.Close()

	const n = 32
	var wg sync.WaitGroup
	pools := make([]*resilience.Bulkhead, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pools[i] = r.Pool("k:10.0.0.1:80", "k")
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if pools[i] != pools[0] {
			t.Fatal("concurrent resolution created more than one pool")
		}
	}
}

func TestPoolRegistry_Snapshot(t *testing.T) {
	r := NewPoolRegistry(resilience.BulkheadConfig{Workers: 3})
	defer r.Close()

	_ = r.Pool("a:h:1", "a")
	_ = r.Pool("b:h:2", "b")

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot() has %d entries, want 2", len(snap))
	}
	if snap["a:h:1"].Workers != 3 {
		t.Errorf("Snapshot Workers = %d, want 3", snap["a:h:1"].Workers)
	}
}

func TestBreakerRegistry_IdentityStablePerMethod(t *testing.T) {
	r := NewBreakerRegistry(resilience.BreakerConfig{FailureThreshold: 3})

	get := r.Breaker("orders:10.0.0.1:8080:GET /orders/{id}", "orders")
	get2 := r.Breaker("orders:10.0.0.1:8080:GET /orders/{id}", "orders")
	post := r.Breaker("orders:10.0.0.1:8080:POST /orders", "orders")

	if get != get2 {
		t.Error("same method key resolved two breaker instances")
	}
	if get == post {
		t.Error("distinct methods share a breaker instance")
	}
}

func TestBreakerRegistry_Fallback(t *testing.T) {
	r := NewBreakerRegistry(resilience.BreakerConfig{FailureThreshold: 5})
	if err := r.Configure("orders", resilience.BreakerConfig{
		FailureThreshold: 1,
		OpenTimeout:      time.Minute,
	}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	cb := r.Breaker("orders:h:1:GET /x", "orders")
	_ = cb.Allow()
	cb.Record(errFake)
	if got := cb.State(); got != resilience.StateOpen {
		t.Errorf("configured breaker State() = %v, want open after 1 failure", got)
	}

	def := r.Breaker("billing:h:1:GET /x", "billing")
	_ = def.Allow()
	def.Record(errFake)
	if got := def.State(); got != resilience.StateClosed {
		t.Errorf("default breaker State() = %v, want closed after 1 failure", got)
	}
}

func TestLimiterRegistry_NilWithoutConfig(t *testing.T) {
	r := NewLimiterRegistry()

	if rl := r.Limiter("orders"); rl != nil {
		t.Error("Limiter() without config, want nil")
	}

	if err := r.Configure("orders", resilience.RateLimiterConfig{Rate: 1, Burst: 1}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	rl := r.Limiter("orders")
	if rl == nil {
		t.Fatal("Limiter() after config, want instance")
	}
	if rl != r.Limiter("orders") {
		t.Error("limiter not identity-stable")
	}
}

type fakeErr struct{}

func (fakeErr) Error() string { return "fake" }

var errFake = fakeErr{}
