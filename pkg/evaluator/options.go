package evaluator

import (
	"log/slog"
	"time"

	"github.com/sandrolain/gomathex/pkg/cache"
	"github.com/sandrolain/gomathex/pkg/format"
	"github.com/sandrolain/gomathex/pkg/functions"
	"github.com/sandrolain/gomathex/pkg/observability"
	"github.com/sandrolain/gomathex/pkg/types"
)

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// Caching enables the expression cache keyed by exact source text.
	Caching bool
	// CacheCapacity bounds the number of cached expressions. 0 is unbounded.
	// Only used when Caching is true and no explicit Cache is provided.
	CacheCapacity int
	// CacheShards sets the number of cache shards. 0 uses cache.DefaultShards.
	CacheShards int
	// Cache is an external expression cache. If non-nil, caching is
	// implicitly enabled.
	Cache *cache.Cache
	// Functions is the function table. Defaults to a fresh table holding
	// the built-in functions.
	Functions *functions.Table
	// Formatters renders results in Format.
	Formatters *format.Registry
	// DataFinder is consulted for parameters bound neither by the call nor
	// by the expression's defaults.
	DataFinder types.DataFinder
	// Tolerance is applied to numeric comparisons unless overridden per call.
	Tolerance types.Tolerance
	// MaxDepth limits bracket and call nesting at parse time.
	MaxDepth int
	// DisableFolding keeps literal-only subtrees unevaluated.
	DisableFolding bool
	// Timeout bounds each Interpret and Evaluate call. 0 disables it.
	Timeout time.Duration
	// Concurrency bounds the goroutines used by EvaluateMany.
	Concurrency int
	// Logger for structured logging.
	Logger *slog.Logger
	// Metrics records interpretation, evaluation and cache metrics.
	Metrics observability.MetricsRecorder
	// Tracer creates spans around interpretation and evaluation.
	Tracer observability.SpanManager
}

// EvalOption configures an Evaluator.
type EvalOption func(*EvalOptions)

// WithCaching enables or disables the expression cache.
// To bound its size use WithCacheCapacity; to supply your own cache use
// WithCache.
func WithCaching(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Caching = enabled
	}
}

// WithCacheCapacity sets the maximum number of cached expressions.
// Only effective when combined with WithCaching(true).
func WithCacheCapacity(capacity int) EvalOption {
	return func(opts *EvalOptions) {
		opts.CacheCapacity = capacity
	}
}

// WithCacheShards sets the number of cache shards.
func WithCacheShards(shards int) EvalOption {
	return func(opts *EvalOptions) {
		opts.CacheShards = shards
	}
}

// WithCache attaches an external expression cache.
// The evaluator will use this cache regardless of the Caching flag.
func WithCache(c *cache.Cache) EvalOption {
	return func(opts *EvalOptions) {
		opts.Cache = c
	}
}

// WithFunctions sets the function table.
func WithFunctions(table *functions.Table) EvalOption {
	return func(opts *EvalOptions) {
		opts.Functions = table
	}
}

// WithFormatters sets the formatter registry.
func WithFormatters(r *format.Registry) EvalOption {
	return func(opts *EvalOptions) {
		opts.Formatters = r
	}
}

// WithDataFinder sets the default data finder.
func WithDataFinder(finder types.DataFinder) EvalOption {
	return func(opts *EvalOptions) {
		opts.DataFinder = finder
	}
}

// WithTolerance sets the default comparison tolerance.
func WithTolerance(tol types.Tolerance) EvalOption {
	return func(opts *EvalOptions) {
		opts.Tolerance = tol
	}
}

// WithMaxDepth sets the maximum nesting depth.
func WithMaxDepth(depth int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxDepth = depth
	}
}

// WithoutFolding disables constant folding.
func WithoutFolding() EvalOption {
	return func(opts *EvalOptions) {
		opts.DisableFolding = true
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(timeout time.Duration) EvalOption {
	return func(opts *EvalOptions) {
		opts.Timeout = timeout
	}
}

// WithConcurrency sets the number of goroutines used by EvaluateMany.
func WithConcurrency(n int) EvalOption {
	return func(opts *EvalOptions) {
		opts.Concurrency = n
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) EvalOption {
	return func(opts *EvalOptions) {
		opts.Metrics = m
	}
}

// WithTracing sets the span manager.
func WithTracing(sm observability.SpanManager) EvalOption {
	return func(opts *EvalOptions) {
		opts.Tracer = sm
	}
}
