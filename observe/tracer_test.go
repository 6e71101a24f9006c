package observe

import (
	"context"
	"errors"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func testTracer() (Tracer, *sdktrace.TracerProvider) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	return NewTracer(tp.Tracer("test")), tp
}

func TestTracer_StartEndSpan(t *testing.T) {
	tr, tp := testTracer()
	defer tp.Shutdown(context.Background())

	ctx, span := tr.StartSpan(context.Background(), CallMeta{
		CallID:   "c-1",
		ClientID: "orders",
		Endpoint: "10.0.0.1:8080",
	})
	if !span.SpanContext().IsValid() {
		t.Fatal("span context is not valid")
	}
	if got := trace.SpanContextFromContext(ctx); !got.Equal(span.SpanContext()) {
		t.Error("returned context does not carry the span")
	}

	tr.EndSpan(span, errors.New("boom"))
}

func TestCarrier_CaptureAndReinstate(t *testing.T) {
	tr, tp := testTracer()
	defer tp.Shutdown(context.Background())

	callerCtx, span := tr.StartSpan(context.Background(), CallMeta{CallID: "c", ClientID: "x", Endpoint: "h:1"})
	defer tr.EndSpan(span, nil)

	captured := CaptureSpanContext(callerCtx)
	if !captured.IsValid() {
		t.Fatal("captured span context is not valid")
	}

	// Simulate the worker: fresh context, caller's span reinstated.
	got := make(chan trace.SpanContext, 1)
	go func() {
		workerCtx := WithSpanContext(context.Background(), captured)
		got <- trace.SpanContextFromContext(workerCtx)
	}()

	inWorker := <-got
	if inWorker.TraceID() != captured.TraceID() {
		t.Errorf("worker trace id = %v, want %v", inWorker.TraceID(), captured.TraceID())
	}
	if inWorker.SpanID() != captured.SpanID() {
		t.Errorf("worker span id = %v, want %v", inWorker.SpanID(), captured.SpanID())
	}

	// Caller's ambient context is untouched by the round trip.
	if after := CaptureSpanContext(callerCtx); !after.Equal(captured) {
		t.Error("caller's span context changed")
	}
}

func TestWithSpanContext_InvalidIsNoop(t *testing.T) {
	ctx := context.Background()
	out := WithSpanContext(ctx, trace.SpanContext{})
	if out != ctx {
		t.Error("invalid span context should leave ctx unchanged")
	}
}

func TestCallMeta_SpanName(t *testing.T) {
	m := CallMeta{ClientID: "orders"}
	if got := m.SpanName(); got != "rpc.exec.orders" {
		t.Errorf("SpanName() = %q", got)
	}
}

func TestNopTracer(t *testing.T) {
	tr := NewNopTracer()
	_, span := tr.StartSpan(context.Background(), CallMeta{ClientID: "x"})
	tr.EndSpan(span, nil)
}
