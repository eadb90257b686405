package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sandrolain/gomathex/pkg/types"
)

// tracer is the gomathex tracer instance. Uses the global OTel tracer
// provider.
var tracer = otel.Tracer("gomathex")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartInterpretSpan starts a span for one interpretation.
	StartInterpretSpan(ctx context.Context, source string) (context.Context, trace.Span)

	// StartEvaluateSpan starts a span for one evaluation.
	StartEvaluateSpan(ctx context.Context, id, source string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)
}

type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager that uses the global OTel tracer
// provider.
func NewSpanManager() SpanManager {
	return &otelSpanManager{tracer: tracer}
}

// NewSpanManagerFor returns a SpanManager bound to provider.
func NewSpanManagerFor(provider trace.TracerProvider) SpanManager {
	return &otelSpanManager{tracer: provider.Tracer("gomathex")}
}

// StartInterpretSpan starts a span for one interpretation.
func (m *otelSpanManager) StartInterpretSpan(ctx context.Context, source string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "gomathex.interpret",
		trace.WithAttributes(attribute.String("expression", source)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartEvaluateSpan starts a span for one evaluation.
func (m *otelSpanManager) StartEvaluateSpan(ctx context.Context, id, source string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "gomathex.evaluate",
		trace.WithAttributes(
			attribute.String("expression.id", id),
			attribute.String("expression", source),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.code", errorCode(err)))
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// errorCode returns the code of a *types.Error, or "unknown".
func errorCode(err error) string {
	if te, ok := types.AsError(err); ok {
		return string(te.Code)
	}
	return "unknown"
}
