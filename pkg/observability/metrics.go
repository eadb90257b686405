package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records gomathex metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordInterpretation records one interpretation and its outcome.
	RecordInterpretation(ctx context.Context, recognized bool, duration time.Duration)

	// RecordEvaluation records one evaluation with its error status.
	RecordEvaluation(ctx context.Context, duration time.Duration, err error)

	// RecordCacheLookup records a cache hit or miss.
	RecordCacheLookup(ctx context.Context, hit bool)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	interpretations   metric.Int64Counter
	interpretLatency  metric.Float64Histogram
	evaluations       metric.Int64Counter
	evaluationErrors  metric.Int64Counter
	evaluationLatency metric.Float64Histogram
	cacheLookups      metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.GetMeterProvider())
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics(provider metric.MeterProvider) (*otelMetrics, error) {
	meter := provider.Meter("gomathex")

	interpretations, err := meter.Int64Counter("gomathex.interpretations",
		metric.WithDescription("Number of expression interpretations"),
	)
	if err != nil {
		return nil, err
	}

	interpretLatency, err := meter.Float64Histogram("gomathex.interpret.latency_ms",
		metric.WithDescription("Interpretation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	evaluations, err := meter.Int64Counter("gomathex.evaluations",
		metric.WithDescription("Number of expression evaluations"),
	)
	if err != nil {
		return nil, err
	}

	evaluationErrors, err := meter.Int64Counter("gomathex.evaluation.errors",
		metric.WithDescription("Number of failed evaluations"),
	)
	if err != nil {
		return nil, err
	}

	evaluationLatency, err := meter.Float64Histogram("gomathex.evaluation.latency_ms",
		metric.WithDescription("Evaluation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter("gomathex.cache.lookups",
		metric.WithDescription("Number of expression cache lookups"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		interpretations:   interpretations,
		interpretLatency:  interpretLatency,
		evaluations:       evaluations,
		evaluationErrors:  evaluationErrors,
		evaluationLatency: evaluationLatency,
		cacheLookups:      cacheLookups,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses the global OTel
// meter provider. If metrics initialization fails, it returns a no-op
// recorder.
//
// Configure the provider before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// NewMetricsRecorderFor returns a MetricsRecorder bound to provider.
func NewMetricsRecorderFor(provider metric.MeterProvider) (MetricsRecorder, error) {
	m, err := newOtelMetrics(provider)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordInterpretation records an interpretation.
func (m *otelMetrics) RecordInterpretation(ctx context.Context, recognized bool, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("recognized", recognized))
	m.interpretations.Add(ctx, 1, attrs)
	m.interpretLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordEvaluation records an evaluation.
func (m *otelMetrics) RecordEvaluation(ctx context.Context, duration time.Duration, err error) {
	m.evaluations.Add(ctx, 1)
	m.evaluationLatency.Record(ctx, float64(duration.Microseconds())/1000)
	if err != nil {
		m.evaluationErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("code", errorCode(err))))
	}
}

// RecordCacheLookup records a cache lookup.
func (m *otelMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool("hit", hit)))
}
