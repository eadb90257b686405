package cache_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gomathex/pkg/cache"
	"github.com/sandrolain/gomathex/pkg/computed"
	"github.com/sandrolain/gomathex/pkg/parser"
	"github.com/sandrolain/gomathex/pkg/resolver"
	"github.com/sandrolain/gomathex/pkg/types"
)

func interpret(ctx context.Context, text string) (*computed.Expression, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.Canceled(err)
	}
	tree, err := parser.Parse(ctx, text, nil)
	if err == nil {
		err = resolver.Resolve(ctx, tree)
	}
	if err != nil {
		return computed.Unrecognized(text, err), nil
	}
	return computed.New(text, tree), nil
}

func counting(calls *atomic.Int64, fn cache.InterpretFunc) cache.InterpretFunc {
	return func(ctx context.Context, text string) (*computed.Expression, error) {
		calls.Add(1)
		return fn(ctx, text)
	}
}

func TestGetOrInterpret(t *testing.T) {
	c := cache.New()
	var calls atomic.Int64
	fn := counting(&calls, interpret)

	first, err := c.GetOrInterpret(context.Background(), "x + 1", fn)
	require.NoError(t, err)
	second, err := c.GetOrInterpret(context.Background(), "x + 1", fn)
	require.NoError(t, err)

	assert.Equal(t, int64(1), calls.Load())
	assert.NotSame(t, first, second, "parameterized expressions are cloned")
	assert.Equal(t, first.Source(), second.Source())

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Interpretations)
	assert.Equal(t, 1, stats.Entries)
}

func TestSharedReferenceForConstants(t *testing.T) {
	c := cache.New()
	for _, text := range []string{"2 + 3", "rand()"} {
		first, err := c.GetOrInterpret(context.Background(), text, interpret)
		require.NoError(t, err)
		second, err := c.GetOrInterpret(context.Background(), text, interpret)
		require.NoError(t, err)
		assert.Same(t, first, second, text)
	}
}

func TestKeysAreExactText(t *testing.T) {
	c := cache.New()
	var calls atomic.Int64
	fn := counting(&calls, interpret)

	for _, text := range []string{"x+1", "x + 1", "X + 1", "x + 1 "} {
		_, err := c.GetOrInterpret(context.Background(), text, fn)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(4), calls.Load())
	assert.Equal(t, 4, c.Len())
}

func TestConcurrentSingleInterpretation(t *testing.T) {
	c := cache.New()
	var calls atomic.Int64
	release := make(chan struct{})
	slow := func(ctx context.Context, text string) (*computed.Expression, error) {
		calls.Add(1)
		<-release
		return interpret(ctx, text)
	}

	const callers = 50
	var wg sync.WaitGroup
	var started sync.WaitGroup
	results := make([]*computed.Expression, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		started.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			results[i], errs[i] = c.GetOrInterpret(context.Background(), "a * b + c", slow)
		}(i)
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for i := range results {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.True(t, results[i].RecognizedCorrectly())
	}
	assert.Equal(t, uint64(1), c.Stats().Interpretations)
}

func TestUnrecognizedPolicy(t *testing.T) {
	var calls atomic.Int64
	fn := counting(&calls, interpret)

	c := cache.New()
	for i := 0; i < 2; i++ {
		expr, err := c.GetOrInterpret(context.Background(), "1 +", fn)
		require.NoError(t, err)
		assert.False(t, expr.RecognizedCorrectly())
	}
	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, 0, c.Len())

	calls.Store(0)
	frozen := cache.New(cache.WithStoreUnrecognized(func() bool { return true }))
	for i := 0; i < 2; i++ {
		_, err := frozen.GetOrInterpret(context.Background(), "1 +", fn)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), calls.Load())
}

func TestCanceledLeaderDoesNotPoisonFollowers(t *testing.T) {
	c := cache.New()
	leaderCtx, cancel := context.WithCancel(context.Background())
	entered := make(chan struct{})
	var calls atomic.Int64

	fn := func(ctx context.Context, text string) (*computed.Expression, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-ctx.Done()
			return nil, types.Canceled(ctx.Err())
		}
		return interpret(ctx, text)
	}

	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrInterpret(leaderCtx, "x * 2", fn)
		leaderErr <- err
	}()
	<-entered

	followerDone := make(chan *computed.Expression, 1)
	go func() {
		expr, err := c.GetOrInterpret(context.Background(), "x * 2", fn)
		if err != nil {
			followerDone <- nil
			return
		}
		followerDone <- expr
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-leaderErr, context.Canceled)
	expr := <-followerDone
	require.NotNil(t, expr)
	assert.True(t, expr.RecognizedCorrectly())
}

func TestCapacityEviction(t *testing.T) {
	c := cache.New(cache.WithCapacity(4), cache.WithShards(1))
	for i := 0; i < 10; i++ {
		_, err := c.GetOrInterpret(context.Background(), fmt.Sprintf("x + %d", i), interpret)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, 4, c.Capacity())
	assert.Equal(t, uint64(6), c.Stats().Evictions)

	_, ok := c.Get("x + 0")
	assert.False(t, ok)
	_, ok = c.Get("x + 9")
	assert.True(t, ok)
}

func TestLRUOrder(t *testing.T) {
	c := cache.New(cache.WithCapacity(2), cache.WithShards(1))
	ctx := context.Background()
	_, _ = c.GetOrInterpret(ctx, "a", interpret)
	_, _ = c.GetOrInterpret(ctx, "b", interpret)
	_, _ = c.GetOrInterpret(ctx, "a", interpret)
	_, _ = c.GetOrInterpret(ctx, "c", interpret)

	_, ok := c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestInvalidateAndClear(t *testing.T) {
	c := cache.New()
	ctx := context.Background()
	var calls atomic.Int64
	fn := counting(&calls, interpret)

	_, _ = c.GetOrInterpret(ctx, "a + 1", fn)
	_, _ = c.GetOrInterpret(ctx, "b + 1", fn)
	c.Invalidate("a + 1")
	assert.Equal(t, 1, c.Len())

	_, _ = c.GetOrInterpret(ctx, "a + 1", fn)
	assert.Equal(t, int64(3), calls.Load())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, _ = c.GetOrInterpret(ctx, "b + 1", fn)
	assert.Equal(t, int64(4), calls.Load())
}

func TestLookupObserver(t *testing.T) {
	var hits, misses atomic.Int64
	c := cache.New(cache.WithLookupObserver(func(_ context.Context, _ string, hit bool) {
		if hit {
			hits.Add(1)
		} else {
			misses.Add(1)
		}
	}))
	for i := 0; i < 3; i++ {
		_, err := c.GetOrInterpret(context.Background(), "x", interpret)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(2), hits.Load())
	assert.Equal(t, int64(1), misses.Load())
}
