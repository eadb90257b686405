// Package evaluator interprets and evaluates gomathex expressions.
//
// An Evaluator owns a function table, an optional expression cache, a
// formatter registry and the default evaluation settings (tolerance, data
// finder, timeout). Interpretation runs the parser, the type resolver and the
// compiler; the result is a [computed.Expression] that can be evaluated any
// number of times, concurrently.
//
// # Example
//
//	ev := evaluator.New(evaluator.WithCaching(true))
//	expr, err := ev.Interpret(ctx, "price * qty > limit")
//	if err != nil {
//	    return err // canceled
//	}
//	v, err := ev.Evaluate(ctx, expr, map[string]any{"price": 2.5, "qty": 4, "limit": 9})
//
// # Function table
//
// Functions are registered before the first successful interpretation. The
// table freezes at that point and further registration fails with
// types.ErrTableFrozen.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sandrolain/gomathex/pkg/cache"
	"github.com/sandrolain/gomathex/pkg/computed"
	"github.com/sandrolain/gomathex/pkg/format"
	"github.com/sandrolain/gomathex/pkg/functions"
	"github.com/sandrolain/gomathex/pkg/observability"
	"github.com/sandrolain/gomathex/pkg/parser"
	"github.com/sandrolain/gomathex/pkg/resolver"
	"github.com/sandrolain/gomathex/pkg/types"
)

// Evaluator interprets and evaluates expressions.
//
// Safe for concurrent use by multiple goroutines.
type Evaluator struct {
	opts       EvalOptions
	logger     *slog.Logger
	table      *functions.Table
	cache      *cache.Cache // non-nil when caching is enabled
	formatters *format.Registry
	metrics    observability.MetricsRecorder
	spans      observability.SpanManager
}

// defaultConcurrency is the default EvalOptions.Concurrency. WebAssembly
// targets lower it to 1 in evaluator_wasm.go.
var defaultConcurrency = 8

// New creates an Evaluator.
func New(opts ...EvalOption) *Evaluator {
	options := EvalOptions{
		MaxDepth:    parser.DefaultMaxDepth,
		Concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Functions == nil {
		options.Functions = functions.NewBuiltinTable()
	}
	if options.Formatters == nil {
		options.Formatters = format.NewRegistry()
	}
	if options.Metrics == nil {
		options.Metrics = observability.NoopMetrics{}
	}
	if options.Tracer == nil {
		options.Tracer = observability.NoopSpanManager{}
	}
	if options.Concurrency <= 0 {
		options.Concurrency = 1
	}

	e := &Evaluator{
		opts:       options,
		logger:     options.Logger,
		table:      options.Functions,
		formatters: options.Formatters,
		metrics:    options.Metrics,
		spans:      options.Tracer,
	}

	switch {
	case options.Cache != nil:
		e.cache = options.Cache
	case options.Caching:
		e.cache = cache.New(
			cache.WithCapacity(options.CacheCapacity),
			cache.WithShards(options.CacheShards),
			// Before the table freezes an unknown function may still be
			// registered, so unrecognized text is only stored afterwards.
			cache.WithStoreUnrecognized(e.table.Frozen),
			cache.WithLookupObserver(e.observeLookup),
		)
	}
	return e
}

// Cache returns the expression cache, or nil if caching is disabled.
func (e *Evaluator) Cache() *cache.Cache {
	return e.cache
}

// Functions returns the function table.
func (e *Evaluator) Functions() *functions.Table {
	return e.table
}

// Options returns a copy of the configuration.
func (e *Evaluator) Options() EvalOptions {
	return e.opts
}

// Interpret turns text into a computed expression. Malformed text is not an
// error: the returned expression reports RecognizedCorrectly() == false and
// carries the reason in Err(). The error is non-nil only when ctx is done.
func (e *Evaluator) Interpret(ctx context.Context, text string) (*computed.Expression, error) {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	if e.cache != nil {
		return e.cache.GetOrInterpret(ctx, text, e.interpret)
	}
	return e.interpret(ctx, text)
}

func (e *Evaluator) interpret(ctx context.Context, text string) (*computed.Expression, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.Canceled(err)
	}
	ctx, span := e.spans.StartInterpretSpan(ctx, text)
	observability.LogInterpretStart(e.logger, text)
	start := time.Now()

	var popts []parser.CompileOption
	if e.opts.MaxDepth > 0 {
		popts = append(popts, parser.WithMaxDepth(e.opts.MaxDepth))
	}
	if e.opts.DisableFolding {
		popts = append(popts, parser.WithoutFolding())
	}

	tree, err := parser.Parse(ctx, text, e.table, popts...)
	if err == nil {
		err = resolver.Resolve(ctx, tree)
	}
	if err != nil && isContextErr(err) {
		e.spans.EndSpanWithError(span, err)
		return nil, err
	}

	var expr *computed.Expression
	if err != nil {
		expr = computed.Unrecognized(text, err)
	} else {
		expr = computed.New(text, tree)
	}
	elapsed := time.Since(start)
	e.metrics.RecordInterpretation(ctx, expr.RecognizedCorrectly(), elapsed)

	if !expr.RecognizedCorrectly() {
		observability.LogNotRecognized(e.logger, text, expr.Err())
		e.spans.EndSpanWithError(span, expr.Err())
		return expr, nil
	}

	e.table.Freeze()
	observability.LogInterpretComplete(e.logger, expr.ID(), text,
		float64(elapsed.Microseconds())/1000, expr.IsConstant(), len(expr.Parameters()))
	e.spans.EndSpanWithError(span, nil)
	return expr, nil
}

// Check reports why text cannot be interpreted, or nil when it can.
func (e *Evaluator) Check(ctx context.Context, text string) error {
	expr, err := e.Interpret(ctx, text)
	if err != nil {
		return err
	}
	return expr.Err()
}

// Evaluate runs expr with bindings. The evaluator's default tolerance and data
// finder apply unless opts override them.
func (e *Evaluator) Evaluate(ctx context.Context, expr *computed.Expression, bindings map[string]any, opts ...computed.EvalOption) (types.Value, error) {
	if expr == nil {
		return types.Value{}, types.Evalf(types.ErrCodeInvalidArgument, "nil expression")
	}
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	ctx, span := e.spans.StartEvaluateSpan(ctx, expr.ID(), expr.Source())
	start := time.Now()
	v, err := expr.Evaluate(ctx, bindings, e.evalOptions(opts)...)
	e.metrics.RecordEvaluation(ctx, time.Since(start), err)
	e.spans.EndSpanWithError(span, err)
	if err != nil {
		observability.LogEvaluationError(e.logger, expr.ID(), expr.Source(), err)
		return types.Value{}, err
	}
	return v, nil
}

// EvaluateText interprets text and evaluates it. Unrecognized text fails with
// types.ErrNotRecognized wrapping the interpretation error.
func (e *Evaluator) EvaluateText(ctx context.Context, text string, bindings map[string]any, opts ...computed.EvalOption) (types.Value, error) {
	expr, err := e.Interpret(ctx, text)
	if err != nil {
		return types.Value{}, err
	}
	return e.Evaluate(ctx, expr, bindings, opts...)
}

// EvaluateMany evaluates expr once per binding set, using up to
// EvalOptions.Concurrency goroutines. Results keep the order of batch. The
// first failure cancels the remaining evaluations.
func (e *Evaluator) EvaluateMany(ctx context.Context, expr *computed.Expression, batch []map[string]any, opts ...computed.EvalOption) ([]types.Value, error) {
	results := make([]types.Value, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i := range batch {
		g.Go(func() error {
			v, err := e.Evaluate(gctx, expr, batch[i], opts...)
			if err != nil {
				return fmt.Errorf("binding set %d: %w", i, err)
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Evaluator) evalOptions(opts []computed.EvalOption) []computed.EvalOption {
	out := make([]computed.EvalOption, 0, len(opts)+2)
	if !e.opts.Tolerance.IsExact() {
		out = append(out, computed.WithTolerance(e.opts.Tolerance))
	}
	if e.opts.DataFinder != nil {
		out = append(out, computed.WithDataFinder(e.opts.DataFinder))
	}
	return append(out, opts...)
}

// RegisterFunctionsCatalog adds every function of catalog to the table. It
// fails with types.ErrTableFrozen after the first successful interpretation.
func (e *Evaluator) RegisterFunctionsCatalog(catalog functions.Catalog) error {
	if e.table.Frozen() {
		return fmt.Errorf("register catalog: %w", types.ErrTableFrozen)
	}
	defs, err := catalog.Functions()
	if err != nil {
		return fmt.Errorf("register catalog: %w", err)
	}
	if err := e.table.Register(defs...); err != nil {
		return err
	}
	observability.LogCatalogRegistered(e.logger, fmt.Sprintf("%T", catalog), len(defs))
	return nil
}

// RegisterTypeFormatter sets the formatter used by Format for t.
func (e *Evaluator) RegisterTypeFormatter(t types.ValueType, f format.Formatter) {
	e.formatters.Register(t, f)
}

// Format renders v with the registered formatters.
func (e *Evaluator) Format(v types.Value) string {
	return e.formatters.Format(v)
}

// RegisteredFunctionPrototypes lists every function overload in the table.
func (e *Evaluator) RegisteredFunctionPrototypes() []string {
	return e.table.Prototypes()
}

func (e *Evaluator) observeLookup(ctx context.Context, text string, hit bool) {
	e.metrics.RecordCacheLookup(ctx, hit)
	observability.LogCacheLookup(e.logger, text, hit)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
