// Package resolver narrows the value types of an expression tree.
//
// Every node carries the set of types it may produce. Operators and
// functions declare type families; the operands of one application must
// share a family. Resolution alternates a bottom-up pass, which recomputes
// result sets from operand sets, with a top-down pass, which pushes the
// expected result of each node into its operands and determines parameter
// types. It repeats until no parameter changes. Sets that still hold more
// than one type after the fixpoint are dispatched at run time.
package resolver

import (
	"context"

	"github.com/sandrolain/gomathex/pkg/ast"
	"github.com/sandrolain/gomathex/pkg/types"
)

// maxIterations bounds the fixpoint. Each productive iteration removes at
// least one candidate from one parameter, so the bound is never reached by
// a well-formed table.
const maxIterations = 64

// shape is the outcome of checking one node against an expected result.
type shape struct {
	result types.TypeSet
	args   []types.TypeSet
}

// Infer checks n against its operands, sets n.Type and narrows the
// parameters that appear as direct operands of n. It is called by the
// parser for every node it builds.
func Infer(n *ast.Node, params *ast.ParamTable) error {
	for _, c := range n.Children {
		refresh(c, params)
	}
	s, err := check(n, types.SetAny)
	if err != nil {
		return err
	}
	n.Type = s.result
	for i, c := range n.Children {
		if c.Kind != ast.NodeParameter {
			continue
		}
		if _, err := determine(params, c, s.args[i]); err != nil {
			return err
		}
	}
	return nil
}

// Resolve runs type resolution on the whole tree until a fixpoint.
func Resolve(ctx context.Context, tree *ast.Tree) error {
	r := &resolution{params: tree.Params}
	for i := 0; i < maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return types.Canceled(err)
		}
		r.changed = false
		if err := r.up(tree.Root); err != nil {
			return err
		}
		if err := r.down(tree.Root, types.SetAny); err != nil {
			return err
		}
		if !r.changed {
			break
		}
	}
	// Parameter nodes mirror the final candidates.
	ast.Walk(tree.Root, func(n *ast.Node) { refresh(n, tree.Params) })
	return nil
}

type resolution struct {
	params  *ast.ParamTable
	changed bool
}

// up recomputes result sets children first.
func (r *resolution) up(n *ast.Node) error {
	for _, c := range n.Children {
		if err := r.up(c); err != nil {
			return err
		}
	}
	if n.Kind == ast.NodeLiteral || n.Kind == ast.NodeParameter {
		refresh(n, r.params)
		return nil
	}
	s, err := check(n, types.SetAny)
	if err != nil {
		return err
	}
	n.Type = s.result
	return nil
}

// down narrows n to want and pushes the operand expectations into its
// children.
func (r *resolution) down(n *ast.Node, want types.TypeSet) error {
	switch n.Kind {
	case ast.NodeLiteral:
		if n.Type&accepted(want) == 0 {
			return mismatch(n, want)
		}
		return nil
	case ast.NodeParameter:
		changed, err := determine(r.params, n, want)
		if err != nil {
			return err
		}
		r.changed = r.changed || changed
		return nil
	}

	s, err := check(n, want)
	if err != nil {
		return err
	}
	n.Type = s.result
	for i, c := range n.Children {
		if err := r.down(c, s.args[i]); err != nil {
			return err
		}
	}
	return nil
}

// refresh copies the intrinsic type of leaves into n.Type.
func refresh(n *ast.Node, params *ast.ParamTable) {
	switch n.Kind {
	case ast.NodeLiteral:
		n.Type = n.Value.Type.Set()
	case ast.NodeParameter:
		n.Type = params.At(n.Param).Candidates
	}
}

// determine narrows the parameter behind n to set.
func determine(params *ast.ParamTable, n *ast.Node, set types.TypeSet) (bool, error) {
	var (
		changed bool
		err     error
	)
	if t, ok := set.Single(); ok {
		changed, err = params.DetermineStrongly(n.Param, t)
	} else {
		changed, err = params.DetermineWeakly(n.Param, set)
	}
	if err != nil {
		return false, err
	}
	n.Type = params.At(n.Param).Candidates
	return changed, nil
}

func mismatch(n *ast.Node, want types.TypeSet) error {
	return types.Validityf(types.ErrCodeTypeConflict, n.Position,
		"expression of type %s used where %s is expected", n.Type, want)
}

// check computes the shape of n given the current types of its children
// and the expected result set.
func check(n *ast.Node, want types.TypeSet) (shape, error) {
	switch n.Kind {
	case ast.NodeUnary:
		return checkUnary(n, want)
	case ast.NodeBinary:
		return checkBinary(n, want)
	case ast.NodeTernary:
		return checkTernary(n, want)
	case ast.NodeCall:
		return checkCall(n, want)
	default:
		return shape{result: n.Type & accepted(want)}, nil
	}
}

func checkUnary(n *ast.Node, want types.TypeSet) (shape, error) {
	a := n.Children[0].Type
	var s shape
	s.args = make([]types.TypeSet, 1)
	for _, f := range UnaryFamilies(n.Op) {
		operand := a & f
		if joins(n.Op, f) {
			operand &= widenDown(want)
		}
		if operand == 0 || operand&accepted(want) == 0 {
			continue
		}
		s.result |= operand & accepted(want)
		s.args[0] |= operand
	}
	if s.result == 0 {
		return s, types.Validityf(types.ErrCodeOperandType, n.Position,
			"operator %s cannot be applied to %s", n.Op, a).WithToken(n.Op.String())
	}
	if n.Op == ast.OpNeg || n.Op == ast.OpPlus {
		// Negation keeps the operand type; Integer operands stay Integer.
		s.result = s.args[0]
	}
	return s, nil
}

func checkBinary(n *ast.Node, want types.TypeSet) (shape, error) {
	a, b := n.Children[0].Type, n.Children[1].Type
	s := shape{args: make([]types.TypeSet, 2)}
	for _, f := range BinaryFamilies(n.Op) {
		left, right := a&f, b&f
		if joins(n.Op, f) {
			left &= widenDown(want)
			right &= widenDown(want)
		}
		if left == 0 || right == 0 {
			continue
		}
		r := binaryResult(n.Op, f, left, right)
		if r&want == 0 {
			continue
		}
		s.result |= r & want
		s.args[0] |= left
		s.args[1] |= right
	}
	if s.result == 0 {
		if want != types.SetAny {
			return s, mismatch(n, want)
		}
		return s, types.Validityf(types.ErrCodeOperandType, n.Position,
			"operator %s cannot be applied to %s and %s", n.Op, a, b).WithToken(n.Op.String())
	}
	return s, nil
}

func checkTernary(n *ast.Node, want types.TypeSet) (shape, error) {
	c, a, b := n.Children[0].Type, n.Children[1].Type, n.Children[2].Type
	s := shape{args: make([]types.TypeSet, 3)}
	if c&types.SetBoolean == 0 {
		return s, types.Validityf(types.ErrCodeOperandType, n.Children[0].Position,
			"condition must be boolean, got %s", c)
	}
	s.args[0] = types.SetBoolean
	for _, f := range allFamilies {
		left, right := a&f, b&f
		if joins(ast.OpCond, f) {
			left &= widenDown(want)
			right &= widenDown(want)
		} else {
			left &= want
			right &= want
		}
		if left == 0 || right == 0 {
			continue
		}
		r := binaryResult(ast.OpCond, f, left, right) & want
		if r == 0 {
			continue
		}
		s.result |= r
		s.args[1] |= left
		s.args[2] |= right
	}
	if s.result == 0 {
		if want != types.SetAny {
			return s, mismatch(n, want)
		}
		return s, types.Validityf(types.ErrCodeTypeConflict, n.Position,
			"branches of type %s and %s do not share a type", a, b)
	}
	return s, nil
}

func checkCall(n *ast.Node, want types.TypeSet) (shape, error) {
	sig := n.Func.Sig()
	s := shape{args: make([]types.TypeSet, len(n.Children))}

	// Fixed parameters first.
	hasGeneric := false
	for i, c := range n.Children {
		if sig.IsGeneric(i) {
			hasGeneric = true
			continue
		}
		allowed := c.Type & accepted(sig.ParamSet(i))
		if allowed == 0 {
			return s, argumentError(n, i, sig.ParamSet(i), c.Type)
		}
		s.args[i] = allowed
	}

	if !hasGeneric {
		s.result = sig.Result & accepted(want)
		if s.result == 0 {
			return s, mismatch(n, want)
		}
		return s, nil
	}

	// Generic arguments share one family.
	families := genericAnything
	for i := range n.Children {
		if sig.IsGeneric(i) && sig.ParamSet(i) == types.SetNumeric {
			families = genericNumeric
			break
		}
	}
	for _, f := range families {
		argSets := make([]types.TypeSet, len(n.Children))
		viable := true
		for i, c := range n.Children {
			if !sig.IsGeneric(i) {
				continue
			}
			set := c.Type & f & sig.ParamSet(i)
			if sig.ResultGeneric {
				if f == types.SetNumeric {
					set &= widenDown(want)
				} else {
					set &= want
				}
			}
			if set == 0 {
				viable = false
				break
			}
			argSets[i] = set
		}
		if !viable {
			continue
		}
		r := sig.ResultSet(argSets)
		if sig.ResultGeneric {
			r &= want
		} else {
			r &= accepted(want)
		}
		if r == 0 {
			continue
		}
		s.result |= r
		for i, set := range argSets {
			s.args[i] |= set
		}
	}
	if s.result == 0 {
		if want != types.SetAny {
			return s, mismatch(n, want)
		}
		return s, types.Validityf(types.ErrCodeTypeConflict, n.Position,
			"arguments of %s do not share a type", n.Func.Name).WithToken(n.Func.Name)
	}
	return s, nil
}

func argumentError(n *ast.Node, i int, expected, got types.TypeSet) error {
	return types.Validityf(types.ErrCodeTypeConflict, n.Children[i].Position,
		"argument %d of %s must be %s, got %s", i+1, n.Func.Name, expected, got).WithToken(n.Func.Name)
}
