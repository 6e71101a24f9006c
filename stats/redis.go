package stats

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/relaygate/observe"
)

// RedisOption configures the Redis recorder.
type RedisOption func(*Redis)

// WithRedisPrefix overrides the key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = strings.Trim(prefix, ":") }
}

// WithRedisTimeout bounds each recording round trip.
func WithRedisTimeout(d time.Duration) RedisOption {
	return func(r *Redis) { r.timeout = d }
}

// WithRedisLogger sets the logger for recording failures.
func WithRedisLogger(l observe.Logger) RedisOption {
	return func(r *Redis) { r.logger = l }
}

// Redis records endpoint counters in a shared Redis instance, so several
// gateway processes fronting the same services aggregate their call data.
// One hash per endpoint, fields attempts/successes/failures.
type Redis struct {
	rdb     *redis.Client
	prefix  string
	timeout time.Duration
	logger  observe.Logger
}

// NewRedis creates a Redis-backed recorder.
func NewRedis(rdb *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		rdb:     rdb,
		prefix:  "relaygate:endpoint",
		timeout: 250 * time.Millisecond,
		logger:  observe.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) RecordAttempt(ctx context.Context, endpoint string) {
	r.incr(ctx, endpoint, "attempts")
}

func (r *Redis) RecordOutcome(ctx context.Context, endpoint string, success bool) {
	field := "failures"
	if success {
		field = "successes"
	}
	r.incr(ctx, endpoint, field)
}

func (r *Redis) incr(ctx context.Context, endpoint, field string) {
	if r.rdb == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	key := r.prefix + ":" + endpoint
	if err := r.rdb.HIncrBy(ctx, key, field, 1).Err(); err != nil {
		// Recording is best-effort; a metrics failure never affects the call.
		r.logger.Warn(ctx, "stats recording failed",
			observe.Field{Key: "endpoint", Value: endpoint},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
}

// Ping probes the backing Redis instance. Suitable as a health check.
func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.rdb.Ping(ctx).Err()
}

// Snapshot reads one endpoint's counters back.
func (r *Redis) Snapshot(ctx context.Context, endpoint string) (EndpointStats, error) {
	vals, err := r.rdb.HGetAll(ctx, r.prefix+":"+endpoint).Result()
	if err != nil {
		return EndpointStats{}, err
	}

	var s EndpointStats
	s.Attempts = parseCount(vals["attempts"])
	s.Successes = parseCount(vals["successes"])
	s.Failures = parseCount(vals["failures"])
	return s, nil
}

func parseCount(v string) int64 {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
