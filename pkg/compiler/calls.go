package compiler

import (
	"context"
	"errors"

	"github.com/sandrolain/gomathex/pkg/ast"
	"github.com/sandrolain/gomathex/pkg/functions"
	"github.com/sandrolain/gomathex/pkg/types"
)

func (c *compiler) compileCall(n *ast.Node) (evalFunc, error) {
	def := n.Func
	sig := def.Sig()
	if sig == nil {
		return nil, types.Validityf(types.ErrCodeUnknownFunction, n.Position,
			"function %s is not registered", def.Name).WithToken(def.Name)
	}

	args := make([]evalFunc, len(n.Children))
	toFloat := make([]bool, len(n.Children))
	generic := make([]bool, len(n.Children))
	anyGeneric := false
	for i, child := range n.Children {
		fn, err := c.compile(child)
		if err != nil {
			return nil, err
		}
		args[i] = fn
		generic[i] = sig.IsGeneric(i)
		anyGeneric = anyGeneric || generic[i]
		toFloat[i] = !generic[i] && sig.ParamSet(i) == types.SetFloat
	}
	variadic := sig.Variadic
	resultFloat := n.Type == types.SetFloat

	return func(env *Env) (types.Value, error) {
		if err := env.ctx.Err(); err != nil {
			return types.Value{}, types.Canceled(err)
		}
		values := make([]types.Value, len(args))
		hasFloat := false
		for i, arg := range args {
			if variadic && i > 0 {
				if err := env.ctx.Err(); err != nil {
					return types.Value{}, types.Canceled(err)
				}
			}
			v, err := arg(env)
			if err != nil {
				return types.Value{}, err
			}
			if toFloat[i] {
				v = widen(v)
			}
			if generic[i] && v.Type == types.TypeFloat {
				hasFloat = true
			}
			values[i] = v
		}
		// Generic numeric arguments widen together.
		if anyGeneric && hasFloat {
			for i := range values {
				if generic[i] && values[i].Type == types.TypeInteger {
					values[i] = widen(values[i])
				}
			}
		}
		if anyGeneric {
			if err := sameFamily(def, values, generic); err != nil {
				return types.Value{}, err
			}
		}

		v, err := invoke(env.ctx, def, values)
		if err != nil {
			return types.Value{}, err
		}
		if resultFloat {
			v = widen(v)
		}
		return v, nil
	}, nil
}

// sameFamily checks at run time what the resolver could not prove: generic
// arguments share one type family.
func sameFamily(def *functions.Definition, values []types.Value, generic []bool) error {
	var first types.ValueType
	for i, v := range values {
		if !generic[i] {
			continue
		}
		if first == types.TypeUnknown {
			first = v.Type
			continue
		}
		if v.Type != first && !(v.Type.IsNumeric() && first.IsNumeric()) {
			return types.Evalf(types.ErrCodeBindingType,
				"arguments of %s must share a type, got %s and %s", def.Name, first, v.Type).WithToken(def.Name)
		}
	}
	return nil
}

// invoke calls the implementation of def, recovering panics and checking
// the returned type against the declared result.
func invoke(ctx context.Context, def *functions.Definition, args []types.Value) (v types.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = types.Evalf(types.ErrCodeFunctionFailed, "function %s panicked: %v", def.Name, r).
				WithToken(def.Name)
		}
	}()

	v, err = def.Fn(ctx, args...)
	if err != nil {
		return types.Value{}, wrapFunctionError(def, err)
	}
	want := resultFor(def.Sig(), args)
	if !want.Has(v.Type) {
		if v.Type == types.TypeInteger && want.Has(types.TypeFloat) {
			return widen(v), nil
		}
		return types.Value{}, types.Evalf(types.ErrCodeFunctionFailed,
			"function %s returned %s, declared %s", def.Name, v.Type, want).WithToken(def.Name)
	}
	return v, nil
}

// resultFor narrows a generic result to the join of the actual argument
// types, so Integer arguments to a "<n:n>" function must yield an Integer.
func resultFor(sig *functions.Signature, args []types.Value) types.TypeSet {
	if !sig.ResultGeneric {
		return sig.Result
	}
	sets := make([]types.TypeSet, len(args))
	for i, a := range args {
		sets[i] = a.Type.Set()
	}
	return sig.ResultSet(sets)
}

func wrapFunctionError(def *functions.Definition, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if te, ok := types.AsError(err); ok && te.Kind == types.KindCancellation {
			return te
		}
		return types.Canceled(err)
	}
	if _, ok := types.AsError(err); ok {
		return err
	}
	return types.Evalf(types.ErrCodeFunctionFailed, "function %s failed: %v", def.Name, err).
		WithCause(err).WithToken(def.Name)
}
