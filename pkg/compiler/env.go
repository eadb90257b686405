package compiler

import (
	"context"
	"errors"

	"github.com/sandrolain/gomathex/pkg/ast"
	"github.com/sandrolain/gomathex/pkg/types"
)

// Bindings supplies parameter values by name.
type Bindings interface {
	// Lookup returns the raw Go value bound to name. found is false when
	// name is unbound; err reports a failing source.
	Lookup(ctx context.Context, name string) (value any, found bool, err error)
}

// BindingsFunc adapts a function to Bindings.
type BindingsFunc func(ctx context.Context, name string) (any, bool, error)

// Lookup calls f.
func (f BindingsFunc) Lookup(ctx context.Context, name string) (any, bool, error) {
	return f(ctx, name)
}

// Map is a Bindings backed by a map.
type Map map[string]any

// Lookup returns m[name].
func (m Map) Lookup(_ context.Context, name string) (any, bool, error) {
	v, ok := m[name]
	return v, ok, nil
}

// Env is the state of one program run. Parameter values are resolved on
// first use and memoized for the rest of the run.
type Env struct {
	ctx       context.Context
	params    *ast.ParamTable
	bindings  Bindings
	tolerance types.Tolerance
	slots     []types.Value
	bound     []bool
}

func newEnv(ctx context.Context, params *ast.ParamTable, bindings Bindings, tol types.Tolerance) *Env {
	env := &Env{
		ctx:       ctx,
		params:    params,
		bindings:  bindings,
		tolerance: tol,
	}
	if params != nil && params.Len() > 0 {
		env.slots = make([]types.Value, params.Len())
		env.bound = make([]bool, params.Len())
	}
	return env
}

// Context returns the context of the run.
func (e *Env) Context() context.Context {
	return e.ctx
}

// Tolerance returns the comparison tolerance of the run.
func (e *Env) Tolerance() types.Tolerance {
	return e.tolerance
}

// param resolves parameter i, converting the bound Go value and checking
// it against the parameter's candidate types.
func (e *Env) param(i int) (types.Value, error) {
	if e.bound[i] {
		return e.slots[i], nil
	}
	p := e.params.At(i)

	if e.bindings == nil {
		return types.Value{}, missing(p.Name)
	}
	raw, found, err := e.bindings.Lookup(e.ctx, p.Name)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return types.Value{}, types.Canceled(err)
		}
		if te, ok := types.AsError(err); ok {
			return types.Value{}, te
		}
		return types.Value{}, types.Evalf(types.ErrCodeDataFinder,
			"resolving parameter %q: %v", p.Name, err).WithCause(err)
	}
	if !found {
		return types.Value{}, missing(p.Name)
	}

	v, err := types.FromGo(raw)
	if err != nil {
		return types.Value{}, types.Evalf(types.ErrCodeBindingType,
			"parameter %q: %v", p.Name, err).WithCause(err).WithToken(p.Name)
	}
	switch {
	case p.Candidates.Has(v.Type):
	case v.Type == types.TypeInteger && p.Candidates.Has(types.TypeFloat):
		v = types.Float(float64(v.Int))
	default:
		return types.Value{}, types.Evalf(types.ErrCodeBindingType,
			"parameter %q must be %s, got %s", p.Name, p.Candidates, v.Type).WithToken(p.Name)
	}

	// Default bindings outlive the run; results must not alias them.
	v = v.Clone()
	e.slots[i] = v
	e.bound[i] = true
	return v, nil
}

func missing(name string) error {
	return types.Evalf(types.ErrCodeMissingParam, "parameter %q is not bound", name).WithToken(name)
}
