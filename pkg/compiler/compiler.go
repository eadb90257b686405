// Package compiler turns a resolved expression tree into a closure tree
// that can be run many times with different parameter bindings.
//
// Two variants exist. Exact programs compare numbers without slack;
// Tolerant programs apply the tolerance carried by each run to numeric
// comparison operators. Nodes whose operand types were fully determined by
// the resolver compile to specialized closures; the others dispatch on the
// runtime types of their operands.
package compiler

import (
	"context"

	"github.com/sandrolain/gomathex/pkg/ast"
	"github.com/sandrolain/gomathex/pkg/types"
)

// Variant selects the comparison semantics of a program.
type Variant uint8

const (
	// Exact compares without tolerance.
	Exact Variant = iota
	// Tolerant applies the run's tolerance to numeric comparisons.
	Tolerant
)

// String returns the variant name.
func (v Variant) String() string {
	if v == Tolerant {
		return "tolerant"
	}
	return "exact"
}

type evalFunc func(env *Env) (types.Value, error)

// Program is a compiled expression.
type Program struct {
	root    evalFunc
	params  *ast.ParamTable
	result  types.TypeSet
	variant Variant
}

// Compile compiles tree. The tree must have been resolved; the program
// keeps a reference to its parameter table.
func Compile(tree *ast.Tree, variant Variant) (*Program, error) {
	c := &compiler{variant: variant}
	root, err := c.compile(tree.Root)
	if err != nil {
		return nil, err
	}
	return &Program{
		root:    root,
		params:  tree.Params,
		result:  tree.Root.Type,
		variant: variant,
	}, nil
}

// Variant returns the variant p was compiled with.
func (p *Program) Variant() Variant {
	return p.variant
}

// ResultType returns the set of types p may produce.
func (p *Program) ResultType() types.TypeSet {
	return p.result
}

// Run evaluates p. bindings may be nil for parameterless programs.
func (p *Program) Run(ctx context.Context, bindings Bindings, tol types.Tolerance) (types.Value, error) {
	if err := ctx.Err(); err != nil {
		return types.Value{}, types.Canceled(err)
	}
	return p.root(newEnv(ctx, p.params, bindings, tol))
}

// Fold evaluates n at interpretation time when all of its operands are
// literals and its operation is deterministic. ok is false when n cannot
// be folded or its evaluation fails; the failure then surfaces when the
// expression is evaluated.
func Fold(n *ast.Node) (v types.Value, ok bool) {
	switch n.Kind {
	case ast.NodeLiteral, ast.NodeParameter:
		return types.Value{}, false
	case ast.NodeCall:
		if !n.Func.Foldable() {
			return types.Value{}, false
		}
	}
	for _, c := range n.Children {
		if !c.IsLiteral() {
			return types.Value{}, false
		}
	}
	c := &compiler{variant: Exact}
	fn, err := c.compile(n)
	if err != nil {
		return types.Value{}, false
	}
	v, err = fn(newEnv(context.Background(), nil, nil, types.Tolerance{}))
	if err != nil {
		return types.Value{}, false
	}
	return v, true
}

type compiler struct {
	variant Variant
}

func (c *compiler) compile(n *ast.Node) (evalFunc, error) {
	switch n.Kind {
	case ast.NodeLiteral:
		v := n.Value
		if v.Type == types.TypeByteArray {
			// Literals are shared between clones and cached expressions.
			return func(*Env) (types.Value, error) { return v.Clone(), nil }, nil
		}
		return func(*Env) (types.Value, error) { return v, nil }, nil
	case ast.NodeParameter:
		i := n.Param
		return func(env *Env) (types.Value, error) { return env.param(i) }, nil
	case ast.NodeUnary:
		return c.compileUnary(n)
	case ast.NodeBinary:
		return c.compileBinary(n)
	case ast.NodeTernary:
		return c.compileTernary(n)
	case ast.NodeCall:
		return c.compileCall(n)
	}
	return nil, types.Validityf(types.ErrCodeSyntax, n.Position, "cannot compile %s node", n.Kind)
}

func (c *compiler) compileUnary(n *ast.Node) (evalFunc, error) {
	operand, err := c.compile(n.Children[0])
	if err != nil {
		return nil, err
	}
	op := n.Op
	return func(env *Env) (types.Value, error) {
		v, err := operand(env)
		if err != nil {
			return types.Value{}, err
		}
		return negate(op, v)
	}, nil
}

func (c *compiler) compileBinary(n *ast.Node) (evalFunc, error) {
	left, err := c.compile(n.Children[0])
	if err != nil {
		return nil, err
	}
	right, err := c.compile(n.Children[1])
	if err != nil {
		return nil, err
	}
	op := n.Op
	lt, rt := n.Children[0].Type, n.Children[1].Type

	switch {
	case op == ast.OpAnd || op == ast.OpOr:
		return shortCircuit(op, left, right), nil
	case op.IsComparison():
		return c.compileComparison(op, left, right), nil
	case op == ast.OpBitAnd || op == ast.OpBitOr || op == ast.OpBitXor:
		return binary(op, left, right, bitwise), nil
	case op == ast.OpShl || op == ast.OpShr:
		return binary(op, left, right, shift), nil
	case lt == types.SetInteger && rt == types.SetInteger:
		return intBinary(op, left, right), nil
	case lt == types.SetFloat && rt == types.SetFloat:
		return floatBinary(op, left, right), nil
	default:
		return binary(op, left, right, arithmetic), nil
	}
}

func binary(op ast.Op, left, right evalFunc, apply func(ast.Op, types.Value, types.Value) (types.Value, error)) evalFunc {
	return func(env *Env) (types.Value, error) {
		a, err := left(env)
		if err != nil {
			return types.Value{}, err
		}
		b, err := right(env)
		if err != nil {
			return types.Value{}, err
		}
		return apply(op, a, b)
	}
}

func intBinary(op ast.Op, left, right evalFunc) evalFunc {
	return func(env *Env) (types.Value, error) {
		a, err := left(env)
		if err != nil {
			return types.Value{}, err
		}
		b, err := right(env)
		if err != nil {
			return types.Value{}, err
		}
		if a.Type != types.TypeInteger || b.Type != types.TypeInteger {
			return arithmetic(op, a, b)
		}
		r, err := intArithmetic(op, a.Int, b.Int)
		if err != nil {
			return types.Value{}, err
		}
		return types.Int(r), nil
	}
}

func floatBinary(op ast.Op, left, right evalFunc) evalFunc {
	return func(env *Env) (types.Value, error) {
		a, err := left(env)
		if err != nil {
			return types.Value{}, err
		}
		b, err := right(env)
		if err != nil {
			return types.Value{}, err
		}
		if a.Type != types.TypeFloat || b.Type != types.TypeFloat {
			return arithmetic(op, a, b)
		}
		return types.Float(floatArithmetic(op, a.Float, b.Float)), nil
	}
}

func shortCircuit(op ast.Op, left, right evalFunc) evalFunc {
	return func(env *Env) (types.Value, error) {
		a, err := left(env)
		if err != nil {
			return types.Value{}, err
		}
		if a.Type != types.TypeBoolean {
			return types.Value{}, incompatible(op, a, a)
		}
		if (op == ast.OpAnd) != a.Bool {
			return a, nil
		}
		b, err := right(env)
		if err != nil {
			return types.Value{}, err
		}
		if b.Type != types.TypeBoolean {
			return types.Value{}, incompatible(op, a, b)
		}
		return b, nil
	}
}

func (c *compiler) compileComparison(op ast.Op, left, right evalFunc) evalFunc {
	tolerant := c.variant == Tolerant
	return func(env *Env) (types.Value, error) {
		a, err := left(env)
		if err != nil {
			return types.Value{}, err
		}
		b, err := right(env)
		if err != nil {
			return types.Value{}, err
		}
		if tolerant {
			tol := env.tolerance
			return compare(op, a, b, &tol)
		}
		return compare(op, a, b, nil)
	}
}

func (c *compiler) compileTernary(n *ast.Node) (evalFunc, error) {
	cond, err := c.compile(n.Children[0])
	if err != nil {
		return nil, err
	}
	then, err := c.compile(n.Children[1])
	if err != nil {
		return nil, err
	}
	otherwise, err := c.compile(n.Children[2])
	if err != nil {
		return nil, err
	}
	toFloat := n.Type == types.SetFloat
	return func(env *Env) (types.Value, error) {
		cv, err := cond(env)
		if err != nil {
			return types.Value{}, err
		}
		if cv.Type != types.TypeBoolean {
			return types.Value{}, types.Evalf(types.ErrCodeBindingType, "condition must be boolean, got %s", cv.Type)
		}
		branch := otherwise
		if cv.Bool {
			branch = then
		}
		v, err := branch(env)
		if err != nil {
			return types.Value{}, err
		}
		if toFloat {
			v = widen(v)
		}
		return v, nil
	}, nil
}
