package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CallMeta identifies one gateway call for telemetry purposes.
type CallMeta struct {
	CallID    string // correlation id, unique per call
	ClientID  string // logical client configuration identifier
	Endpoint  string // concrete host:port
	Operation string // canonical operation signature (may be empty)
}

// SpanName returns the deterministic span name for this call.
// Format: rpc.exec.<clientID>
func (m CallMeta) SpanName() string {
	return "rpc.exec." + m.ClientID
}

// Tracer wraps OpenTelemetry tracing with call-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for one gateway call.
	StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new client span with call metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("rpc.call_id", meta.CallID),
		attribute.String("rpc.client_id", meta.ClientID),
		attribute.String("rpc.endpoint", meta.Endpoint),
	}
	if meta.Operation != "" {
		attrs = append(attrs, attribute.String("rpc.operation", meta.Operation))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NewNopTracer creates a tracer that records nothing.
func NewNopTracer() Tracer {
	return &tracerImpl{
		tracer: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

// CaptureSpanContext reads the ambient span context from the caller's
// context. It is the first half of the trace carrier: call it on the
// submitting goroutine, before work is handed to a pool worker.
func CaptureSpanContext(ctx context.Context) trace.SpanContext {
	return trace.SpanContextFromContext(ctx)
}

// WithSpanContext reinstates a captured span context into ctx, so telemetry
// emitted on the worker correlates with the caller's trace. The caller's own
// context is never modified; Go contexts are immutable, so restoring on exit
// is implicit.
func WithSpanContext(ctx context.Context, sc trace.SpanContext) context.Context {
	if !sc.IsValid() {
		return ctx
	}
	return trace.ContextWithSpanContext(ctx, sc)
}
