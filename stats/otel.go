package stats

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Otel feeds endpoint call counters into an OpenTelemetry meter.
type Otel struct {
	attempts metric.Int64Counter
	outcomes metric.Int64Counter
}

// NewOtel creates a recorder on the given meter.
func NewOtel(meter metric.Meter) (*Otel, error) {
	attempts, err := meter.Int64Counter(
		"gateway.calls.attempted",
		metric.WithDescription("Calls dispatched toward an endpoint"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	outcomes, err := meter.Int64Counter(
		"gateway.calls.settled",
		metric.WithDescription("Calls settled, by success"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	return &Otel{attempts: attempts, outcomes: outcomes}, nil
}

func (o *Otel) RecordAttempt(ctx context.Context, endpoint string) {
	o.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
	))
}

func (o *Otel) RecordOutcome(ctx context.Context, endpoint string, success bool) {
	o.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.Bool("success", success),
	))
}
