package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/sandrolain/gomathex/pkg/types"
)

func setupMetricsTest(t *testing.T) (MetricsRecorder, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})
	m, err := NewMetricsRecorderFor(provider)
	require.NoError(t, err)
	return m, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumWhere(t *testing.T, m *metricdata.Metrics, key string, value bool) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum[int64] for %s", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsBool() == value {
			total += dp.Value
		}
	}
	return total
}

func TestRecordInterpretation(t *testing.T) {
	m, reader := setupMetricsTest(t)
	ctx := context.Background()

	m.RecordInterpretation(ctx, true, 2*time.Millisecond)
	m.RecordInterpretation(ctx, true, time.Millisecond)
	m.RecordInterpretation(ctx, false, time.Millisecond)

	rm := collectMetrics(t, reader)
	counter := findMetric(rm, "gomathex.interpretations")
	require.NotNil(t, counter)
	assert.Equal(t, int64(2), sumWhere(t, counter, "recognized", true))
	assert.Equal(t, int64(1), sumWhere(t, counter, "recognized", false))

	latency := findMetric(rm, "gomathex.interpret.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)
	assert.Equal(t, "ms", latency.Unit)
}

func TestRecordEvaluation(t *testing.T) {
	m, reader := setupMetricsTest(t)
	ctx := context.Background()

	m.RecordEvaluation(ctx, time.Millisecond, nil)
	m.RecordEvaluation(ctx, time.Millisecond, types.Evalf(types.ErrCodeDivisionByZero, "division by zero"))
	m.RecordEvaluation(ctx, time.Millisecond, errors.New("plain"))

	rm := collectMetrics(t, reader)
	evals := findMetric(rm, "gomathex.evaluations")
	require.NotNil(t, evals)
	sum, ok := evals.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)

	errs := findMetric(rm, "gomathex.evaluation.errors")
	require.NotNil(t, errs)
	errSum, ok := errs.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byCode := map[string]int64{}
	for _, dp := range errSum.DataPoints {
		v, _ := dp.Attributes.Value("code")
		byCode[v.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{
		string(types.ErrCodeDivisionByZero): 1,
		"unknown":                           1,
	}, byCode)
}

func TestRecordCacheLookup(t *testing.T) {
	m, reader := setupMetricsTest(t)
	ctx := context.Background()

	m.RecordCacheLookup(ctx, true)
	m.RecordCacheLookup(ctx, true)
	m.RecordCacheLookup(ctx, false)

	lookups := findMetric(collectMetrics(t, reader), "gomathex.cache.lookups")
	require.NotNil(t, lookups)
	assert.Equal(t, int64(2), sumWhere(t, lookups, "hit", true))
	assert.Equal(t, int64(1), sumWhere(t, lookups, "hit", false))
}

func TestNewMetricsRecorderUsesGlobalProvider(t *testing.T) {
	m := NewMetricsRecorder()
	require.NotNil(t, m)
	assert.NotPanics(t, func() {
		m.RecordInterpretation(context.Background(), true, time.Millisecond)
		m.RecordEvaluation(context.Background(), time.Millisecond, nil)
		m.RecordCacheLookup(context.Background(), false)
	})
}

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	assert.NotPanics(t, func() {
		m.RecordInterpretation(context.Background(), false, 0)
		m.RecordEvaluation(context.Background(), 0, errors.New("x"))
		m.RecordCacheLookup(context.Background(), true)
	})
}
