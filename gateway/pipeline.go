package gateway

import (
	"context"
	"fmt"

	"github.com/jonwraymond/relaygate/observe"
	"github.com/jonwraymond/relaygate/resilience"
	"github.com/jonwraymond/relaygate/transport"
)

// pipeline is the composed, two-layer isolated call: pool admission outside,
// breaker admission inside, the transport exchange at the core. One pipeline
// is built per Execute and runs once.
type pipeline struct {
	pool    *resilience.Bulkhead
	breaker *resilience.CircuitBreaker
	limiter *resilience.RateLimiter // nil unless the client configured one
	call    func(ctx context.Context) (*transport.Response, error)
	logger  observe.Logger
}

type settled struct {
	resp *transport.Response
	err  error
}

// run dispatches the call and blocks until it settles. The exchange itself
// executes on a worker owned by the pool, with the caller's span context
// reinstated; rejections by the limiter or the pool return before any worker
// is touched.
func (p *pipeline) run(ctx context.Context) (*transport.Response, error) {
	if p.limiter != nil {
		if err := p.limiter.Allow(); err != nil {
			return nil, err
		}
	}

	span := observe.CaptureSpanContext(ctx)

	ch := make(chan settled, 1)
	err := p.pool.Submit(func() {
		// The worker's context carries the caller's trace but not its
		// cancellation: dispatched work runs to completion.
		wctx := observe.WithSpanContext(context.Background(), span)

		var resp *transport.Response
		callErr := p.breaker.Do(func() error {
			return p.exchange(wctx, &resp)
		})
		ch <- settled{resp: resp, err: callErr}
	})
	if err != nil {
		return nil, err
	}

	s := <-ch
	return s.resp, s.err
}

// exchange performs the transport call on the worker. The return value is
// the only error channel upward, so a panicking transport is converted, not
// propagated.
func (p *pipeline) exchange(ctx context.Context, resp **transport.Response) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gateway: transport panic: %v", r)
		}
	}()

	p.logger.Info(ctx, "dispatching call",
		observe.Field{Key: "pool", Value: p.pool.Metrics()},
		observe.Field{Key: "breaker", Value: p.breaker.Metrics()},
	)

	r, err := p.call(ctx)
	if err != nil {
		return err
	}

	p.logger.Info(ctx, "response received",
		observe.Field{Key: "status", Value: r.StatusCode},
	)
	*resp = r
	return nil
}
