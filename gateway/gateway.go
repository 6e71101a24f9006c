package gateway

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jonwraymond/relaygate/observe"
	"github.com/jonwraymond/relaygate/registry"
	"github.com/jonwraymond/relaygate/resilience"
	"github.com/jonwraymond/relaygate/stats"
	"github.com/jonwraymond/relaygate/transport"
)

// Options configures a Gateway.
type Options struct {
	// Transport performs the actual exchange. Required.
	Transport transport.Transport

	// Pools resolves the per-endpoint worker pool. Required.
	Pools *registry.PoolRegistry

	// Breakers resolves the per-operation circuit breaker. Required.
	Breakers *registry.BreakerRegistry

	// Limiters resolves optional per-client rate limiters.
	Limiters *registry.LimiterRegistry

	// Recorder receives attempt/outcome events for load-balancing
	// visibility. Default: discard.
	Recorder stats.Recorder

	// Tracer spans each call. Default: no-op.
	Tracer observe.Tracer

	// Logger receives call-scoped structured logs. Default: discard.
	Logger observe.Logger
}

// Gateway drives one isolated, classified execution per call. It holds no
// per-call state and is safe for concurrent use; the registries own all
// long-lived resources.
type Gateway struct {
	transport transport.Transport
	pools     *registry.PoolRegistry
	breakers  *registry.BreakerRegistry
	limiters  *registry.LimiterRegistry
	recorder  stats.Recorder
	tracer    observe.Tracer
	logger    observe.Logger
}

// New creates a Gateway.
func New(opts Options) (*Gateway, error) {
	if opts.Transport == nil {
		return nil, errors.New("gateway: transport is required")
	}
	if opts.Pools == nil {
		return nil, errors.New("gateway: pool registry is required")
	}
	if opts.Breakers == nil {
		return nil, errors.New("gateway: breaker registry is required")
	}
	if opts.Recorder == nil {
		opts.Recorder = stats.Nop{}
	}
	if opts.Tracer == nil {
		opts.Tracer = observe.NewNopTracer()
	}
	if opts.Logger == nil {
		opts.Logger = observe.NewNopLogger()
	}

	return &Gateway{
		transport: opts.Transport,
		pools:     opts.Pools,
		breakers:  opts.Breakers,
		limiters:  opts.Limiters,
		recorder:  opts.Recorder,
		tracer:    opts.Tracer,
		logger:    opts.Logger,
	}, nil
}

// Execute runs one call through the isolation pipeline and returns its
// settled Outcome. Every condition in the failure taxonomy comes back as an
// Outcome, never as an error; the error return is reserved for unrecoverable
// conditions (a target that does not parse). The attempt event is recorded
// before dispatch and exactly one outcome event after settling, on every
// path.
func (g *Gateway) Execute(ctx context.Context, req *transport.Request, opts transport.CallOptions) (*Outcome, error) {
	ek, mk, err := DeriveKeys(req)
	if err != nil {
		return nil, err
	}

	pool := g.pools.Pool(ek.String(), ek.ClientID)
	breaker := g.breakers.Breaker(mk.String(), ek.ClientID)
	var limiter *resilience.RateLimiter
	if g.limiters != nil {
		limiter = g.limiters.Limiter(ek.ClientID)
	}

	meta := observe.CallMeta{
		CallID:    uuid.NewString(),
		ClientID:  ek.ClientID,
		Endpoint:  ek.Addr(),
		Operation: req.Operation,
	}
	logger := g.logger.WithCall(meta)

	ctx, span := g.tracer.StartSpan(ctx, meta)

	p := &pipeline{
		pool:    pool,
		breaker: breaker,
		limiter: limiter,
		logger:  logger,
		call: func(ctx context.Context) (*transport.Response, error) {
			return g.transport.Execute(ctx, req, opts)
		},
	}

	endpoint := ek.Addr()
	g.recordAttempt(ctx, endpoint, logger)

	resp, callErr := p.run(ctx)
	if callErr == nil {
		g.recordOutcome(ctx, endpoint, true, logger)
		g.tracer.EndSpan(span, nil)
		return &Outcome{Status: StatusOK, Response: resp}, nil
	}

	g.recordOutcome(ctx, endpoint, false, logger)
	g.tracer.EndSpan(span, callErr)

	status := Classify(callErr)
	logger.Warn(ctx, "call classified",
		observe.Field{Key: "status", Value: status.String()},
		observe.Field{Key: "error", Value: callErr.Error()},
	)

	return &Outcome{Status: status, Message: callErr.Error()}, nil
}

// recordAttempt forwards to the recorder, isolating the call path from a
// misbehaving backend.
func (g *Gateway) recordAttempt(ctx context.Context, endpoint string, logger observe.Logger) {
	defer g.swallowRecorderPanic(ctx, logger)
	g.recorder.RecordAttempt(ctx, endpoint)
}

func (g *Gateway) recordOutcome(ctx context.Context, endpoint string, success bool, logger observe.Logger) {
	defer g.swallowRecorderPanic(ctx, logger)
	g.recorder.RecordOutcome(ctx, endpoint, success)
}

func (g *Gateway) swallowRecorderPanic(ctx context.Context, logger observe.Logger) {
	if r := recover(); r != nil {
		logger.Warn(ctx, "stats recorder panicked",
			observe.Field{Key: "panic", Value: r},
		)
	}
}
