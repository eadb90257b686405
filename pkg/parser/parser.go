// Package parser turns expression text into a typed expression tree.
//
// The parser works on the token slice produced by the lexer. For each
// segment it looks for the top-level operator of the lowest precedence
// tier, makes it the root of the segment and recurses into the operands,
// so that lower precedence operators form the outer nodes of the tree.
// Brackets and string literals are opaque to the search.
//
// Every node is checked against its operator or function signature as soon
// as it is built, and nodes whose operands are all literals are replaced by
// the literal they evaluate to.
//
// # Precedence
//
// From lowest to highest:
//
//	? :              ternary, right-associative
//	|| or
//	&& and
//	|
//	^
//	&
//	== = != <>
//	< <= > >=
//	<< >>
//	+ -
//	* / %
//	- + ! not        prefix
//	**               right-associative
//
// # Example
//
//	tree, err := parser.Parse(ctx, "x * 2 + 1", functions.Default())
//	if err != nil {
//	    var perr *types.Error
//	    if errors.As(err, &perr) {
//	        fmt.Printf("%s at position %d\n", perr.Code, perr.Position)
//	    }
//	    return
//	}
package parser

import (
	"context"

	"github.com/sandrolain/gomathex/pkg/ast"
	"github.com/sandrolain/gomathex/pkg/functions"
)

// DefaultMaxDepth is the default maximum nesting depth.
const DefaultMaxDepth = 256

// Parse parses text against the function table and returns the tree.
//
// Failures are *types.Error values of kind syntax or validity, or a
// cancellation error when ctx is done.
func Parse(ctx context.Context, text string, table *functions.Table, opts ...CompileOption) (*ast.Tree, error) {
	p := NewParser(ctx, text, table, opts...)
	return p.Parse()
}

// CompileOption configures parsing behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits nesting to prevent stack overflow.
	MaxDepth int
	// DisableFolding keeps literal-only subtrees unevaluated.
	DisableFolding bool
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}

// WithoutFolding disables constant folding.
func WithoutFolding() CompileOption {
	return func(opts *CompileOptions) {
		opts.DisableFolding = true
	}
}
