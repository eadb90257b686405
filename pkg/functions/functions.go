// Package functions provides the symbol table of callable functions.
//
// A [Table] maps case-sensitive function names to one or more [Definition]
// overloads distinguished by arity. Built-in functions are installed by
// [NewBuiltinTable]; additional functions come from external catalogs via
// [Table.RegisterCatalog]. A table is frozen once an expression has been
// interpreted against it, after which registration fails with
// [types.ErrTableFrozen].
//
// # Example
//
//	table := functions.NewBuiltinTable()
//	err := table.Register(functions.Definition{
//	    Name:      "double",
//	    Signature: "<n:n>",
//	    Fn: func(ctx context.Context, args ...types.Value) (types.Value, error) {
//	        if args[0].Type == types.TypeInteger {
//	            return types.Int(args[0].Int * 2), nil
//	        }
//	        return types.Float(args[0].Float * 2), nil
//	    },
//	})
package functions

import (
	"context"

	"github.com/sandrolain/gomathex/pkg/types"
)

// Func is the implementation of a function. args are already coerced to the
// declared parameter types: float parameters always receive Float values and
// generic numeric arguments are widened together.
type Func func(ctx context.Context, args ...types.Value) (types.Value, error)

// Definition describes a callable function.
type Definition struct {
	// Name is the function name as written in expressions. Case-sensitive.
	Name string
	// Signature is the typed signature, e.g. "<ff:f>". See [Signature].
	Signature string
	// Fn is the implementation.
	Fn Func
	// Impure marks non-deterministic functions, which are never constant folded.
	Impure bool
	// Description is an optional one-line summary shown in prototypes.
	Description string

	sig         *Signature
	conditional bool
}

// Sig returns the parsed signature. It is nil for definitions that were not
// registered in a table.
func (d *Definition) Sig() *Signature {
	return d.sig
}

// Foldable reports whether calls with literal arguments may be evaluated at
// interpretation time.
func (d *Definition) Foldable() bool {
	return !d.Impure
}

// IsConditional reports whether d is the built-in if(), which the parser
// turns into a lazily evaluated ternary node.
func (d *Definition) IsConditional() bool {
	return d.conditional
}

// Prototype renders the human-readable prototype of d.
func (d *Definition) Prototype() string {
	if d.sig == nil {
		return d.Name + d.Signature
	}
	p := d.sig.Describe(d.Name)
	if d.Description != "" {
		p += " - " + d.Description
	}
	return p
}

// Catalog is an external source of function definitions.
type Catalog interface {
	Functions() ([]Definition, error)
}

// Definitions is a static catalog.
type Definitions []Definition

// Functions returns d.
func (d Definitions) Functions() ([]Definition, error) {
	return d, nil
}

// CatalogFunc adapts a function to Catalog.
type CatalogFunc func() ([]Definition, error)

// Functions calls f.
func (f CatalogFunc) Functions() ([]Definition, error) {
	return f()
}
