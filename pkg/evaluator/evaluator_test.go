package evaluator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gomathex/pkg/computed"
	"github.com/sandrolain/gomathex/pkg/format"
	"github.com/sandrolain/gomathex/pkg/functions"
	"github.com/sandrolain/gomathex/pkg/types"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func double() functions.Definition {
	return functions.Definition{
		Name:      "double",
		Signature: "<n:n>",
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			if args[0].Type == types.TypeInteger {
				return types.Int(args[0].Int * 2), nil
			}
			return types.Float(args[0].Float * 2), nil
		},
	}
}

type recordingMetrics struct {
	mu              sync.Mutex
	recognized      int
	notRecognized   int
	evaluations     int
	evaluationError int
	hits, misses    int
}

func (m *recordingMetrics) RecordInterpretation(_ context.Context, recognized bool, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if recognized {
		m.recognized++
	} else {
		m.notRecognized++
	}
}

func (m *recordingMetrics) RecordEvaluation(_ context.Context, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluations++
	if err != nil {
		m.evaluationError++
	}
}

func (m *recordingMetrics) RecordCacheLookup(_ context.Context, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func TestInterpretAndEvaluate(t *testing.T) {
	ev := New(WithLogger(quiet))
	ctx := context.Background()

	tests := []struct {
		name     string
		text     string
		bindings map[string]any
		want     types.Value
	}{
		{"arithmetic", "price * qty", map[string]any{"price": 2.5, "qty": 4}, types.Float(10)},
		{"comparison", "a + b > 10", map[string]any{"a": 4, "b": 7}, types.Bool(true)},
		{"string", "upper(name) + \"!\"", map[string]any{"name": "go"}, types.String("GO!")},
		{"constant", "2 ** 8 - 1", nil, types.Int(255)},
		{"ternary", "x > 0 ? \"pos\" : \"neg\"", map[string]any{"x": -3}, types.String("neg")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := ev.Interpret(ctx, tt.text)
			require.NoError(t, err)
			require.True(t, expr.RecognizedCorrectly(), "%v", expr.Err())

			got, err := ev.Evaluate(ctx, expr, tt.bindings)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterpretUnrecognized(t *testing.T) {
	ev := New(WithLogger(quiet))
	ctx := context.Background()

	expr, err := ev.Interpret(ctx, "1 +")
	require.NoError(t, err)
	assert.False(t, expr.RecognizedCorrectly())
	assert.ErrorIs(t, ev.Check(ctx, "1 +"), types.ErrSyntax)
	assert.ErrorIs(t, ev.Check(ctx, "1 + true"), types.ErrNotLogicallyValid)
	assert.NoError(t, ev.Check(ctx, "1 + 2"))

	_, err = ev.EvaluateText(ctx, "1 +", nil)
	assert.ErrorIs(t, err, types.ErrNotRecognized)
	assert.ErrorIs(t, err, types.ErrSyntax)
}

func TestTableFreezesOnFirstRecognizedInterpretation(t *testing.T) {
	ev := New(WithLogger(quiet), WithCaching(true))
	ctx := context.Background()

	expr, err := ev.Interpret(ctx, "double(21)")
	require.NoError(t, err)
	assert.False(t, expr.RecognizedCorrectly())
	assert.ErrorIs(t, expr.Err(), types.ErrFunctionNotFound)
	assert.False(t, ev.Functions().Frozen())

	require.NoError(t, ev.RegisterFunctionsCatalog(functions.Definitions{double()}))

	expr, err = ev.Interpret(ctx, "double(21)")
	require.NoError(t, err)
	require.True(t, expr.RecognizedCorrectly(), "unrecognized text is not cached before freezing")
	assert.True(t, ev.Functions().Frozen())

	v, err := ev.Evaluate(ctx, expr, nil)
	require.NoError(t, err)
	assert.Equal(t, types.Int(42), v)

	err = ev.RegisterFunctionsCatalog(functions.Definitions{double()})
	assert.ErrorIs(t, err, types.ErrTableFrozen)
}

func TestRegisterCatalogErrors(t *testing.T) {
	ev := New(WithLogger(quiet))
	boom := errors.New("catalog unavailable")
	err := ev.RegisterFunctionsCatalog(functions.CatalogFunc(func() ([]functions.Definition, error) {
		return nil, boom
	}))
	assert.ErrorIs(t, err, boom)

	bad := functions.Definition{Name: "bad", Signature: "nope", Fn: double().Fn}
	assert.Error(t, ev.RegisterFunctionsCatalog(functions.Definitions{bad}))
	assert.False(t, ev.Functions().Has("bad"))
}

func TestRegisteredFunctionPrototypes(t *testing.T) {
	ev := New(WithLogger(quiet))
	require.NoError(t, ev.RegisterFunctionsCatalog(functions.Definitions{double()}))
	protos := ev.RegisteredFunctionPrototypes()
	assert.Contains(t, protos, "double(numeric): numeric")
	assert.Contains(t, protos, "atan2(float, float): float - arc tangent of y/x")
}

func TestEvaluatorDefaults(t *testing.T) {
	finder := types.DataFinderFunc(func(_ context.Context, key string) (any, bool, error) {
		if key == "limit" {
			return 10, true, nil
		}
		return nil, false, nil
	})
	ev := New(WithLogger(quiet),
		WithDataFinder(finder),
		WithTolerance(types.Tolerance{FloatRange: 0.1}),
	)
	ctx := context.Background()

	expr, err := ev.Interpret(ctx, "x < limit")
	require.NoError(t, err)

	v, err := ev.Evaluate(ctx, expr, map[string]any{"x": 10.05})
	require.NoError(t, err)
	assert.Equal(t, types.Bool(true), v, "default tolerance and finder apply")

	v, err = ev.Evaluate(ctx, expr, map[string]any{"x": 10.05}, computed.WithTolerance(types.Tolerance{}))
	require.NoError(t, err)
	assert.Equal(t, types.Bool(false), v, "per-call tolerance overrides the default")
}

func TestFormat(t *testing.T) {
	ev := New(WithLogger(quiet))
	assert.Equal(t, "0.5", ev.Format(types.Float(0.5)))
	ev.RegisterTypeFormatter(types.TypeFloat, format.Fixed(3))
	assert.Equal(t, "0.500", ev.Format(types.Float(0.5)))
	assert.Equal(t, "#0A", ev.Format(types.Bytes([]byte{10})))
}

func TestEvaluateMany(t *testing.T) {
	ev := New(WithLogger(quiet), WithConcurrency(4))
	ctx := context.Background()
	expr, err := ev.Interpret(ctx, "x * x")
	require.NoError(t, err)

	batch := make([]map[string]any, 20)
	for i := range batch {
		batch[i] = map[string]any{"x": i}
	}
	results, err := ev.EvaluateMany(ctx, expr, batch)
	require.NoError(t, err)
	require.Len(t, results, 20)
	for i, v := range results {
		assert.Equal(t, types.Int(int64(i*i)), v)
	}

	batch[7] = map[string]any{}
	_, err = ev.EvaluateMany(ctx, expr, batch)
	assert.ErrorIs(t, err, types.ErrMissingParameter)
}

func TestEvaluateNilExpression(t *testing.T) {
	ev := New(WithLogger(quiet))
	_, err := ev.Evaluate(context.Background(), nil, nil)
	assert.ErrorIs(t, err, types.ErrEvaluation)
}

func TestMetricsAndCache(t *testing.T) {
	m := &recordingMetrics{}
	ev := New(WithLogger(quiet), WithCaching(true), WithCacheCapacity(16), WithMetrics(m))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		expr, err := ev.Interpret(ctx, "a / b")
		require.NoError(t, err)
		_, _ = ev.Evaluate(ctx, expr, map[string]any{"a": 1, "b": 0})
	}
	_, err := ev.Interpret(ctx, "1 +")
	require.NoError(t, err)

	require.NotNil(t, ev.Cache())
	assert.Equal(t, 16, ev.Cache().Capacity())
	assert.Equal(t, 1, m.recognized)
	assert.Equal(t, 1, m.notRecognized)
	assert.Equal(t, 3, m.evaluations)
	assert.Equal(t, 3, m.evaluationError)
	assert.Equal(t, 2, m.hits)
	assert.Equal(t, 2, m.misses)
}

func TestConcurrentInterpretSharesOneResult(t *testing.T) {
	var interpreted atomic.Int64
	m := &countingMetrics{n: &interpreted}
	ev := New(WithLogger(quiet), WithCaching(true), WithMetrics(m))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			expr, err := ev.Interpret(context.Background(), "(a + b) * c")
			assert.NoError(t, err)
			assert.True(t, expr.RecognizedCorrectly())
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), interpreted.Load())
}

type countingMetrics struct {
	n *atomic.Int64
}

func (c *countingMetrics) RecordInterpretation(context.Context, bool, time.Duration) { c.n.Add(1) }
func (c *countingMetrics) RecordEvaluation(context.Context, time.Duration, error)    {}
func (c *countingMetrics) RecordCacheLookup(context.Context, bool)                   {}

func TestCanceled(t *testing.T) {
	ev := New(WithLogger(quiet), WithCaching(true))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ev.Interpret(ctx, "x + 1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, ev.Cache().Len())

	expr, err := ev.Interpret(context.Background(), "x + 1")
	require.NoError(t, err)
	_, err = ev.Evaluate(ctx, expr, map[string]any{"x": 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndependentEvaluatorsHaveIndependentTables(t *testing.T) {
	a := New(WithLogger(quiet))
	b := New(WithLogger(quiet))
	_, err := a.Interpret(context.Background(), "1 + 1")
	require.NoError(t, err)
	assert.True(t, a.Functions().Frozen())
	assert.NoError(t, b.RegisterFunctionsCatalog(functions.Definitions{double()}))
}

func TestCachedByteConstantsStayIntact(t *testing.T) {
	ev := New(WithLogger(quiet), WithCaching(true))
	ctx := context.Background()

	v, err := ev.EvaluateText(ctx, "#0102", nil)
	require.NoError(t, err)
	v.Bytes[0] = 0xFF

	v, err = ev.EvaluateText(ctx, "#0102", nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, v.Bytes)
}
