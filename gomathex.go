// Package gomathex interprets and evaluates mathematical, logical and string
// expressions.
//
// An expression such as "price * qty > limit" is parsed into a typed tree,
// its parameter types are inferred, literal subexpressions are folded, and
// the result is compiled into a closure program that can be evaluated many
// times with different parameter bindings.
//
// # Quick Start
//
//	// Interpret once, evaluate many times
//	expr, err := gomathex.Interpret(ctx, "price * qty > limit")
//	if err != nil {
//	    return err // canceled
//	}
//	if !expr.RecognizedCorrectly() {
//	    return expr.Err()
//	}
//	v, err := gomathex.Evaluate(ctx, expr, map[string]any{"price": 2.5, "qty": 4, "limit": 9})
//
//	// With tolerance
//	v, err = gomathex.Evaluate(ctx, expr, bindings,
//	    computed.WithTolerance(types.Tolerance{FloatRange: 0.01}),
//	)
//
// # Process-wide engine
//
// The package-level functions share one evaluator backed by
// functions.Default() and an unbounded expression cache. Its function table
// freezes on the first successful interpretation: register catalogs first.
// Use evaluator.New for independent engines.
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/sandrolain/gomathex/pkg/parser
//   - Evaluator: github.com/sandrolain/gomathex/pkg/evaluator
//   - Functions: github.com/sandrolain/gomathex/pkg/functions
//   - Types: github.com/sandrolain/gomathex/pkg/types
package gomathex

import (
	"context"
	"fmt"
	"sync"

	"github.com/sandrolain/gomathex/pkg/computed"
	"github.com/sandrolain/gomathex/pkg/evaluator"
	"github.com/sandrolain/gomathex/pkg/format"
	"github.com/sandrolain/gomathex/pkg/functions"
	"github.com/sandrolain/gomathex/pkg/types"
)

// Version returns the current version of gomathex.
func Version() string {
	return "v0.1.0-dev"
}

var (
	defaultEngine     *evaluator.Evaluator
	defaultEngineOnce sync.Once
)

// Default returns the process-wide evaluator used by the package-level API.
func Default() *evaluator.Evaluator {
	defaultEngineOnce.Do(func() {
		defaultEngine = evaluator.New(
			evaluator.WithFunctions(functions.Default()),
			evaluator.WithCaching(true),
		)
	})
	return defaultEngine
}

// Interpret turns text into a computed expression. Malformed text yields an
// expression whose RecognizedCorrectly reports false; the error is non-nil
// only when ctx is done.
func Interpret(ctx context.Context, text string) (*computed.Expression, error) {
	return Default().Interpret(ctx, text)
}

// MustInterpret is like Interpret but panics if text is not recognized.
// It simplifies safe initialization of global variables.
func MustInterpret(text string) *computed.Expression {
	expr, err := Interpret(context.Background(), text)
	if err == nil {
		err = expr.Err()
	}
	if err != nil {
		panic(fmt.Sprintf("gomathex: Interpret(%q): %v", text, err))
	}
	return expr
}

// Evaluate runs expr with bindings.
func Evaluate(ctx context.Context, expr *computed.Expression, bindings map[string]any, opts ...computed.EvalOption) (types.Value, error) {
	return Default().Evaluate(ctx, expr, bindings, opts...)
}

// EvaluateText interprets and evaluates text in a single call.
//
// For repeated evaluations of the same text, use Interpret instead.
func EvaluateText(ctx context.Context, text string, bindings map[string]any, opts ...computed.EvalOption) (types.Value, error) {
	return Default().EvaluateText(ctx, text, bindings, opts...)
}

// Check reports why text cannot be interpreted, or nil when it can.
func Check(ctx context.Context, text string) error {
	return Default().Check(ctx, text)
}

// RegisterFunctionsCatalog adds the functions of catalog to the default
// table. It fails with types.ErrTableFrozen after the first successful
// interpretation.
func RegisterFunctionsCatalog(catalog functions.Catalog) error {
	return Default().RegisterFunctionsCatalog(catalog)
}

// RegisterTypeFormatter sets the formatter used by Format for t.
func RegisterTypeFormatter(t types.ValueType, f format.Formatter) {
	Default().RegisterTypeFormatter(t, f)
}

// Format renders v with the registered formatters.
func Format(v types.Value) string {
	return Default().Format(v)
}

// RegisteredFunctionPrototypes lists every function in the default table.
func RegisteredFunctionPrototypes() []string {
	return Default().RegisteredFunctionPrototypes()
}

// ClearCache drops every cached expression. Expressions already returned stay
// valid.
func ClearCache() {
	Default().Cache().Clear()
}
