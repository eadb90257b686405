package datafinder

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gomathex/pkg/types"
)

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	prefix := "gomathex-test:" + t.Name() + ":"
	f := NewRedis(client, WithKeyPrefix(prefix))
	ctx := context.Background()

	require.NoError(t, f.Set(ctx, "limit", 12, time.Minute))
	require.NoError(t, f.Set(ctx, "name", "abc", time.Minute))

	v, found, err := f.TryGetData(ctx, "limit")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, types.Int(12), v)

	v, found, err = f.TryGetData(ctx, "name")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, types.String("abc"), v)

	_, found, err = f.TryGetData(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisBreakerOpensOnUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	f := NewRedis(client, WithBreakerSettings(gobreaker.Settings{
		Name:    "test",
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	}))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, found, err := f.TryGetData(ctx, "x")
		require.Error(t, err)
		assert.False(t, found)
	}
	assert.Equal(t, gobreaker.StateOpen, f.State())

	_, _, err := f.TryGetData(ctx, "x")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestRedisCanceledDoesNotTrip(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	f := NewRedis(client, WithBreakerSettings(gobreaker.Settings{
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := f.TryGetData(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gobreaker.StateClosed, f.State())
}

// failingHook answers every command with err without touching the network.
type failingHook struct {
	before func()
	err    error
}

func (h failingHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h failingHook) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		if h.before != nil {
			h.before()
		}
		cmd.SetErr(h.err)
		return h.err
	}
}

func (h failingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisBreakerCountsNetworkTimeouts(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	client.AddHook(failingHook{err: &net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded}})

	f := NewRedis(client, WithBreakerSettings(gobreaker.Settings{
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	}))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _, err := f.TryGetData(ctx, "x")
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
	assert.Equal(t, gobreaker.StateOpen, f.State())

	_, _, err := f.TryGetData(ctx, "x")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestRedisCallerGivingUpMidCallDoesNotTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	client.AddHook(failingHook{before: cancel, err: context.Canceled})

	f := NewRedis(client, WithBreakerSettings(gobreaker.Settings{
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
	}))

	_, found, err := f.TryGetData(ctx, "x")
	assert.False(t, found)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gobreaker.StateClosed, f.State())
}
