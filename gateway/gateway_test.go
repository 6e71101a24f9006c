package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/relaygate/observe"
	"github.com/jonwraymond/relaygate/registry"
	"github.com/jonwraymond/relaygate/resilience"
	"github.com/jonwraymond/relaygate/transport"
)

// fakeTransport counts invocations and answers from a script function.
type fakeTransport struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, req *transport.Request) (*transport.Response, error)
}

func (f *fakeTransport) Execute(ctx context.Context, req *transport.Request, opts transport.CallOptions) (*transport.Response, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.fn != nil {
		return f.fn(ctx, req)
	}
	return &transport.Response{StatusCode: 200, Body: []byte("ok")}, nil
}

func (f *fakeTransport) invocations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// eventRecorder captures the exact sequence of stats events.
type eventRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *eventRecorder) RecordAttempt(ctx context.Context, endpoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "attempt:"+endpoint)
}

func (r *eventRecorder) RecordOutcome(ctx context.Context, endpoint string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if success {
		r.events = append(r.events, "success:"+endpoint)
	} else {
		r.events = append(r.events, "failure:"+endpoint)
	}
}

func (r *eventRecorder) sequence() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type gatewayHarness struct {
	gw        *Gateway
	transport *fakeTransport
	recorder  *eventRecorder
	pools     *registry.PoolRegistry
	breakers  *registry.BreakerRegistry
	limiters  *registry.LimiterRegistry
}

func newHarness(t *testing.T, configure func(h *gatewayHarness)) *gatewayHarness {
	t.Helper()

	h := &gatewayHarness{
		transport: &fakeTransport{},
		recorder:  &eventRecorder{},
		pools:     registry.NewPoolRegistry(resilience.BulkheadConfig{Workers: 4}),
		breakers:  registry.NewBreakerRegistry(resilience.BreakerConfig{FailureThreshold: 100}),
		limiters:  registry.NewLimiterRegistry(),
	}
	t.Cleanup(h.pools.Close)

	if configure != nil {
		configure(h)
	}

	gw, err := New(Options{
		Transport: h.transport,
		Pools:     h.pools,
		Breakers:  h.breakers,
		Limiters:  h.limiters,
		Recorder:  h.recorder,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.gw = gw
	return h
}

func testRequest() *transport.Request {
	return &transport.Request{
		Method:    "GET",
		URL:       "http://10.0.0.1:8080/orders/1",
		ClientID:  "orders",
		Operation: "GET /orders/{id}",
	}
}

func TestGateway_SuccessReturnsResponseUnchanged(t *testing.T) {
	h := newHarness(t, nil)

	out, err := h.gw.Execute(context.Background(), testRequest(), transport.CallOptions{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !out.OK() {
		t.Fatalf("Status = %v, want ok (%s)", out.Status, out.Message)
	}
	if out.Response == nil || out.Response.StatusCode != 200 || string(out.Response.Body) != "ok" {
		t.Errorf("Response = %+v", out.Response)
	}

	want := []string{"attempt:10.0.0.1:8080", "success:10.0.0.1:8080"}
	if got := h.recorder.sequence(); len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestGateway_MetricEventsPairOnEveryPath(t *testing.T) {
	tests := []struct {
		name      string
		configure func(h *gatewayHarness)
		terminal  string
	}{
		{
			name:     "completed",
			terminal: "success",
		},
		{
			name: "transport failure",
			configure: func(h *gatewayHarness) {
				h.transport.fn = func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
					return nil, errors.New("Connection refused")
				}
			},
			terminal: "failure",
		},
		{
			name: "breaker open",
			configure: func(h *gatewayHarness) {
				_ = h.breakers.Configure("orders", resilience.BreakerConfig{
					FailureThreshold: 1,
					OpenTimeout:      time.Hour,
				})
				h.transport.fn = func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
					return nil, errors.New("Connection refused")
				}
			},
			terminal: "failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.configure)

			// Two calls so breaker-open paths are exercised on the second.
			for i := 0; i < 2; i++ {
				if _, err := h.gw.Execute(context.Background(), testRequest(), transport.CallOptions{}); err != nil {
					t.Fatalf("Execute() #%d error = %v", i, err)
				}
			}

			events := h.recorder.sequence()
			if len(events) != 4 {
				t.Fatalf("events = %v, want 2 attempt/outcome pairs", events)
			}
			for i := 0; i < 4; i += 2 {
				if events[i] != "attempt:10.0.0.1:8080" {
					t.Errorf("events[%d] = %q, want attempt", i, events[i])
				}
				if want := tt.terminal + ":10.0.0.1:8080"; events[i+1] != want {
					t.Errorf("events[%d] = %q, want %q", i+1, events[i+1], want)
				}
			}
		})
	}
}

func TestGateway_PoolSaturated(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	h := newHarness(t, func(h *gatewayHarness) {
		_ = h.pools.Configure("orders", resilience.BulkheadConfig{Workers: 1})
		h.transport.fn = func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			close(entered)
			<-release
			return &transport.Response{StatusCode: 200}, nil
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.gw.Execute(context.Background(), testRequest(), transport.CallOptions{})
	}()
	<-entered

	out, err := h.gw.Execute(context.Background(), testRequest(), transport.CallOptions{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out.Status != StatusPoolSaturated {
		t.Errorf("Status = %v, want pool-saturated", out.Status)
	}
	if got := h.transport.invocations(); got != 1 {
		t.Errorf("transport invocations = %d, want 1 (saturated call must not dispatch)", got)
	}

	// The saturated call still records its attempt/failure pair; only the
	// blocked call's attempt precedes it.
	events := h.recorder.sequence()
	if len(events) != 3 || events[1] != "attempt:10.0.0.1:8080" || events[2] != "failure:10.0.0.1:8080" {
		t.Errorf("events = %v, want a trailing attempt/failure pair for the saturated call", events)
	}

	close(release)
	<-done
}

func TestGateway_CircuitOpen(t *testing.T) {
	h := newHarness(t, func(h *gatewayHarness) {
		_ = h.breakers.Configure("orders", resilience.BreakerConfig{
			FailureThreshold: 1,
			OpenTimeout:      time.Hour,
		})
		h.transport.fn = func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			return nil, errors.New("Connection refused")
		}
	})

	first, err := h.gw.Execute(context.Background(), testRequest(), transport.CallOptions{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if first.Status != StatusRetryableIO {
		t.Fatalf("first Status = %v, want retryable-io", first.Status)
	}

	second, err := h.gw.Execute(context.Background(), testRequest(), transport.CallOptions{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if second.Status != StatusCircuitOpen {
		t.Errorf("second Status = %v, want circuit-open", second.Status)
	}
	if got := h.transport.invocations(); got != 1 {
		t.Errorf("transport invocations = %d, want 1 (open breaker must not dispatch)", got)
	}
}

func TestGateway_IOClassificationThroughExecute(t *testing.T) {
	tests := []struct {
		message string
		want    Status
	}{
		{"Read timed out", StatusNonRetryableIO},
		{"Connection refused", StatusRetryableIO},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			h := newHarness(t, func(h *gatewayHarness) {
				h.transport.fn = func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
					return nil, errors.New(tt.message)
				}
			})

			out, err := h.gw.Execute(context.Background(), testRequest(), transport.CallOptions{})
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if out.Status != tt.want {
				t.Errorf("Status = %v, want %v", out.Status, tt.want)
			}
			if out.Message != tt.message {
				t.Errorf("Message = %q, want %q", out.Message, tt.message)
			}
		})
	}
}

func TestGateway_MalformedTargetIsUnrecoverable(t *testing.T) {
	h := newHarness(t, nil)

	req := testRequest()
	req.URL = "http://host:notaport/x"

	out, err := h.gw.Execute(context.Background(), req, transport.CallOptions{})
	if !errors.Is(err, ErrMalformedTarget) {
		t.Fatalf("Execute() error = %v, want ErrMalformedTarget", err)
	}
	if out != nil {
		t.Error("Execute() returned an outcome for an unrecoverable error")
	}
	if got := h.transport.invocations(); got != 0 {
		t.Errorf("transport invocations = %d, want 0", got)
	}
	if events := h.recorder.sequence(); len(events) != 0 {
		t.Errorf("events = %v, want none before key derivation succeeds", events)
	}
}

func TestGateway_RateLimited(t *testing.T) {
	h := newHarness(t, func(h *gatewayHarness) {
		_ = h.limiters.Configure("orders", resilience.RateLimiterConfig{Rate: 0.001, Burst: 1})
	})

	first, err := h.gw.Execute(context.Background(), testRequest(), transport.CallOptions{})
	if err != nil || !first.OK() {
		t.Fatalf("first Execute() = %v, %v", first, err)
	}

	second, err := h.gw.Execute(context.Background(), testRequest(), transport.CallOptions{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if second.Status != StatusRateLimited {
		t.Errorf("Status = %v, want rate-limited", second.Status)
	}
	if got := h.transport.invocations(); got != 1 {
		t.Errorf("transport invocations = %d, want 1", got)
	}
}

func TestGateway_TraceContextCrossesWorkerBoundary(t *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	defer tp.Shutdown(context.Background())
	tracer := tp.Tracer("test")

	var inWorker trace.SpanContext
	h := newHarness(t, func(h *gatewayHarness) {
		h.transport.fn = func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			inWorker = trace.SpanContextFromContext(ctx)
			return &transport.Response{StatusCode: 200}, nil
		}
	})

	callerCtx, span := tracer.Start(context.Background(), "caller")
	defer span.End()
	callerSC := trace.SpanContextFromContext(callerCtx)

	gw, err := New(Options{
		Transport: h.transport,
		Pools:     h.pools,
		Breakers:  h.breakers,
		Recorder:  h.recorder,
		Tracer:    observe.NewTracer(tracer),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out, err := gw.Execute(callerCtx, testRequest(), transport.CallOptions{})
	if err != nil || !out.OK() {
		t.Fatalf("Execute() = %v, %v", out, err)
	}

	if !inWorker.IsValid() {
		t.Fatal("no span context observed inside the isolated execution")
	}
	if inWorker.TraceID() != callerSC.TraceID() {
		t.Errorf("worker trace id = %v, want caller's %v", inWorker.TraceID(), callerSC.TraceID())
	}

	// The caller's ambient context is unchanged after Execute returns.
	if after := trace.SpanContextFromContext(callerCtx); !after.Equal(callerSC) {
		t.Error("caller's span context changed across Execute")
	}
}

type panickingRecorder struct{}

func (panickingRecorder) RecordAttempt(ctx context.Context, endpoint string) { panic("attempt") }
func (panickingRecorder) RecordOutcome(ctx context.Context, endpoint string, success bool) {
	panic("outcome")
}

func TestGateway_RecorderFailureNeverAffectsOutcome(t *testing.T) {
	h := newHarness(t, nil)

	gw, err := New(Options{
		Transport: h.transport,
		Pools:     h.pools,
		Breakers:  h.breakers,
		Recorder:  panickingRecorder{},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out, err := gw.Execute(context.Background(), testRequest(), transport.CallOptions{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !out.OK() {
		t.Errorf("Status = %v, want ok despite recorder panics", out.Status)
	}
}

func TestGateway_TransportPanicIsClassifiedNotPropagated(t *testing.T) {
	h := newHarness(t, func(h *gatewayHarness) {
		h.transport.fn = func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			panic("codec blew up")
		}
	})

	out, err := h.gw.Execute(context.Background(), testRequest(), transport.CallOptions{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out.OK() {
		t.Fatal("outcome is ok, want a classified failure")
	}
	if out.Message == "" {
		t.Error("classified outcome carries no message")
	}
}

func TestGateway_New_RequiredOptions(t *testing.T) {
	h := newHarness(t, nil)

	if _, err := New(Options{Pools: h.pools, Breakers: h.breakers}); err == nil {
		t.Error("New() without transport, want error")
	}
	if _, err := New(Options{Transport: h.transport, Breakers: h.breakers}); err == nil {
		t.Error("New() without pools, want error")
	}
	if _, err := New(Options{Transport: h.transport, Pools: h.pools}); err == nil {
		t.Error("New() without breakers, want error")
	}
}
