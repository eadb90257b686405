// Package computed holds the reusable result of interpreting an expression.
//
// An Expression is created once per interpretation and is immutable apart
// from its default parameter bindings. Evaluate is safe for concurrent use:
// per-call state lives in the environment of each run. Callers that need
// independent default bindings take a Clone.
//
// # Example
//
//	expr := computed.New("price * qty", tree)
//	if !expr.RecognizedCorrectly() {
//	    return expr.Err()
//	}
//	v, err := expr.Evaluate(ctx, map[string]any{"price": 2.5, "qty": 4})
package computed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sandrolain/gomathex/pkg/ast"
	"github.com/sandrolain/gomathex/pkg/compiler"
	"github.com/sandrolain/gomathex/pkg/types"
)

// State is the interpretation outcome of an Expression.
type State uint8

const (
	// StateRecognized marks an expression that parsed, resolved and compiled.
	StateRecognized State = iota + 1
	// StateNotRecognized marks an expression with a syntax or validity error.
	StateNotRecognized
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateRecognized:
		return "recognized"
	case StateNotRecognized:
		return "not_recognized"
	default:
		return "unknown"
	}
}

// Expression is an interpreted expression.
type Expression struct {
	id     uuid.UUID
	source string
	state  State
	err    error

	tree  *ast.Tree
	exact *compiler.Program

	tolerantOnce sync.Once
	tolerant     *compiler.Program
	tolerantErr  error

	mu       sync.RWMutex
	defaults map[string]any
}

// New compiles a resolved tree into an Expression. A compilation failure
// yields an unrecognized Expression.
func New(source string, tree *ast.Tree) *Expression {
	prog, err := compiler.Compile(tree, compiler.Exact)
	if err != nil {
		return Unrecognized(source, err)
	}
	return &Expression{
		id:     uuid.New(),
		source: source,
		state:  StateRecognized,
		tree:   tree,
		exact:  prog,
	}
}

// Unrecognized returns an Expression recording why source could not be
// interpreted.
func Unrecognized(source string, err error) *Expression {
	return &Expression{
		id:     uuid.New(),
		source: source,
		state:  StateNotRecognized,
		err:    err,
	}
}

// ID returns a random identifier unique to this instance. Clones get a new
// identifier.
func (e *Expression) ID() string {
	return e.id.String()
}

// Source returns the expression text exactly as interpreted.
func (e *Expression) Source() string {
	return e.source
}

// String returns the source text.
func (e *Expression) String() string {
	return e.source
}

// State returns the interpretation outcome.
func (e *Expression) State() State {
	return e.state
}

// RecognizedCorrectly reports whether the expression can be evaluated.
func (e *Expression) RecognizedCorrectly() bool {
	return e.state == StateRecognized
}

// Err returns the syntax or validity error of an unrecognized expression.
func (e *Expression) Err() error {
	return e.err
}

// IsConstant reports whether the whole expression folded to one value.
func (e *Expression) IsConstant() bool {
	return e.tree != nil && e.tree.IsConstant()
}

// Shareable reports whether one instance can serve every caller: constant
// and parameterless expressions carry no per-caller state worth isolating.
func (e *Expression) Shareable() bool {
	return !e.RecognizedCorrectly() || e.IsConstant() || e.tree.Params.Len() == 0
}

// Parameters returns the parameter names in first-mention order.
func (e *Expression) Parameters() []string {
	if e.tree == nil {
		return nil
	}
	return e.tree.Params.Names()
}

// ParameterType returns the types parameter name may be bound to.
func (e *Expression) ParameterType(name string) (types.TypeSet, bool) {
	if e.tree == nil {
		return 0, false
	}
	i, ok := e.tree.Params.Lookup(name)
	if !ok {
		return 0, false
	}
	return e.tree.Params.At(i).Candidates, true
}

// ReturnType returns the set of types evaluation may produce.
func (e *Expression) ReturnType() types.TypeSet {
	if e.tree == nil {
		return 0
	}
	return e.tree.Root.Type
}

// Tree returns the resolved expression tree, or nil when unrecognized. The
// tree must not be modified.
func (e *Expression) Tree() *ast.Tree {
	return e.tree
}

// SetParameter stores a default binding used when a call does not bind
// name. The value must convert to one of the parameter's types.
func (e *Expression) SetParameter(name string, value any) error {
	if !e.RecognizedCorrectly() {
		return e.notRecognized()
	}
	set, ok := e.ParameterType(name)
	if !ok {
		return fmt.Errorf("%w: %q is not a parameter of %q", types.ErrMissingParameter, name, e.source)
	}
	v, err := types.FromGo(value)
	if err != nil {
		return types.Evalf(types.ErrCodeBindingType, "parameter %q: %v", name, err).WithCause(err).WithToken(name)
	}
	if !set.Has(v.Type) && !(v.Type == types.TypeInteger && set.Has(types.TypeFloat)) {
		return types.Evalf(types.ErrCodeBindingType,
			"parameter %q must be %s, got %s", name, set, v.Type).WithToken(name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	next := make(map[string]any, len(e.defaults)+1)
	for k, old := range e.defaults {
		next[k] = old
	}
	next[name] = v
	e.defaults = next
	return nil
}

// ClearParameters removes every default binding.
func (e *Expression) ClearParameters() {
	e.mu.Lock()
	e.defaults = nil
	e.mu.Unlock()
}

// Clone returns an independent copy with its own tree, parameter table,
// default bindings and identifier.
func (e *Expression) Clone() *Expression {
	if !e.RecognizedCorrectly() {
		return Unrecognized(e.source, e.err)
	}
	c := New(e.source, e.tree.Clone())

	e.mu.RLock()
	if len(e.defaults) > 0 {
		c.defaults = make(map[string]any, len(e.defaults))
		for k, v := range e.defaults {
			c.defaults[k] = v
		}
	}
	e.mu.RUnlock()
	return c
}

// EvalOption configures one evaluation.
type EvalOption func(*evalConfig)

type evalConfig struct {
	tolerance types.Tolerance
	finder    types.DataFinder
}

// WithTolerance applies tol to numeric comparisons.
func WithTolerance(tol types.Tolerance) EvalOption {
	return func(c *evalConfig) {
		c.tolerance = tol
	}
}

// WithDataFinder consults finder for parameters bound neither by the call
// nor by the expression's defaults.
func WithDataFinder(finder types.DataFinder) EvalOption {
	return func(c *evalConfig) {
		c.finder = finder
	}
}

// Evaluate runs the expression. Parameters are looked up in bindings, then
// in the default bindings, then through the data finder.
func (e *Expression) Evaluate(ctx context.Context, bindings map[string]any, opts ...EvalOption) (types.Value, error) {
	if !e.RecognizedCorrectly() {
		return types.Value{}, e.notRecognized()
	}
	if err := ctx.Err(); err != nil {
		return types.Value{}, types.Canceled(err)
	}
	if e.tree.IsConstant() {
		return e.tree.Root.Value.Clone(), nil
	}

	var cfg evalConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	prog, err := e.program(cfg.tolerance)
	if err != nil {
		return types.Value{}, err
	}

	e.mu.RLock()
	defaults := e.defaults
	e.mu.RUnlock()

	return prog.Run(ctx, chain(bindings, defaults, cfg.finder), cfg.tolerance)
}

// program returns the exact program, or the tolerant one when tol applies
// slack. The tolerant program is compiled on first use.
func (e *Expression) program(tol types.Tolerance) (*compiler.Program, error) {
	if tol.IsExact() {
		return e.exact, nil
	}
	e.tolerantOnce.Do(func() {
		e.tolerant, e.tolerantErr = compiler.Compile(e.tree, compiler.Tolerant)
	})
	return e.tolerant, e.tolerantErr
}

func (e *Expression) notRecognized() error {
	return types.Evalf(types.ErrCodeNotRecognized, "expression %q not recognized", e.source).WithCause(e.err)
}

// chain builds the binding lookup order of one evaluation. defaults is
// replaced wholesale on write, so reading it without the lock is safe.
func chain(bindings, defaults map[string]any, finder types.DataFinder) compiler.Bindings {
	return compiler.BindingsFunc(func(ctx context.Context, name string) (any, bool, error) {
		if v, ok := bindings[name]; ok {
			return v, true, nil
		}
		if v, ok := defaults[name]; ok {
			return v, true, nil
		}
		if finder == nil {
			return nil, false, nil
		}
		v, found, err := finder.TryGetData(ctx, name)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, false, err
			}
			return nil, false, types.Evalf(types.ErrCodeDataFinder,
				"data finder lookup of %q failed: %v", name, err).WithCause(err).WithToken(name)
		}
		return v, found, nil
	})
}
