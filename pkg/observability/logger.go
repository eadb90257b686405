// Package observability provides logging helpers, metrics and tracing for
// gomathex.
//
// Features:
//   - Structured logging via slog
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
)

// EnrichLogger adds expression context to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, expr.ID(), expr.Source())
//	enriched.Debug("evaluating") // includes expression_id and expression
func EnrichLogger(logger *slog.Logger, id, source string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("expression_id", id),
		slog.String("expression", source),
	)
}

// LogInterpretStart logs the start of an interpretation.
func LogInterpretStart(logger *slog.Logger, source string) {
	if logger == nil {
		return
	}
	logger.Debug("interpretation starting",
		slog.String("expression", source),
	)
}

// LogInterpretComplete logs a finished interpretation.
func LogInterpretComplete(logger *slog.Logger, id, source string, durationMs float64, constant bool, params int) {
	if logger == nil {
		return
	}
	logger.Debug("interpretation completed",
		slog.String("expression_id", id),
		slog.String("expression", source),
		slog.Float64("duration_ms", durationMs),
		slog.Bool("constant", constant),
		slog.Int("parameters", params),
	)
}

// LogNotRecognized logs an expression that could not be interpreted.
func LogNotRecognized(logger *slog.Logger, source string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("expression not recognized",
		slog.String("expression", source),
		slog.String("error", errString(err)),
	)
}

// LogEvaluationError logs a failed evaluation.
func LogEvaluationError(logger *slog.Logger, id, source string, err error) {
	if logger == nil {
		return
	}
	logger.Debug("evaluation failed",
		slog.String("expression_id", id),
		slog.String("expression", source),
		slog.String("error", errString(err)),
	)
}

// LogCacheLookup logs a cache hit or miss.
func LogCacheLookup(logger *slog.Logger, source string, hit bool) {
	if logger == nil {
		return
	}
	logger.Debug("cache lookup",
		slog.String("expression", source),
		slog.Bool("hit", hit),
	)
}

// LogCatalogRegistered logs a function catalog registration.
func LogCatalogRegistered(logger *slog.Logger, catalog string, count int) {
	if logger == nil {
		return
	}
	logger.Info("function catalog registered",
		slog.String("catalog", catalog),
		slog.Int("functions", count),
	)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
