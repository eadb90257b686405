package datafinder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/sandrolain/gomathex/pkg/types"
)

// Redis looks parameters up as string keys in Redis. Calls go through a
// circuit breaker so that an unreachable server fails fast.
type Redis struct {
	client redis.UniversalClient
	prefix string
	cb     *gobreaker.CircuitBreaker
}

// RedisOption configures a Redis finder.
type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix   string
	settings gobreaker.Settings
}

// WithKeyPrefix prepends prefix to every key.
func WithKeyPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		o.prefix = prefix
	}
}

// WithBreakerSettings replaces the circuit breaker settings.
func WithBreakerSettings(s gobreaker.Settings) RedisOption {
	return func(o *redisOptions) {
		o.settings = s
	}
}

// NewRedis creates a finder over client.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	o := redisOptions{
		settings: gobreaker.Settings{
			Name:        "gomathex-redis-finder",
			MaxRequests: 1,
			Interval:    10 * time.Second,
			Timeout:     5 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	// A caller that gave up says nothing about the server.
	o.settings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, errCallerDone)
	}
	return &Redis{
		client: client,
		prefix: o.prefix,
		cb:     gobreaker.NewCircuitBreaker(o.settings),
	}
}

// errCallerDone marks a lookup abandoned because the caller's context ended.
// Network timeouts also match context.DeadlineExceeded, so the decision is
// taken from ctx rather than from the error.
var errCallerDone = errors.New("caller context done")

// TryGetData implements types.DataFinder.
func (r *Redis) TryGetData(ctx context.Context, key string) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	res, err := r.cb.Execute(func() (interface{}, error) {
		s, err := r.client.Get(ctx, r.prefix+key).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, errCallerDone
			}
			return nil, err
		}
		return s, nil
	})
	if errors.Is(err, errCallerDone) {
		return nil, false, ctx.Err()
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis lookup %q: %w", key, err)
	}
	if res == nil {
		return nil, false, nil
	}
	return Decode(res.(string)), true, nil
}

// Set stores v under key with an optional expiration.
func (r *Redis) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	v, err := types.FromGo(value)
	if err != nil {
		return fmt.Errorf("redis store %q: %w", key, err)
	}
	if err := r.client.Set(ctx, r.prefix+key, Encode(v), expiration).Err(); err != nil {
		return fmt.Errorf("redis store %q: %w", key, err)
	}
	return nil
}

// State returns the circuit breaker state.
func (r *Redis) State() gobreaker.State {
	return r.cb.State()
}
