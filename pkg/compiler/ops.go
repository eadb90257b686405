package compiler

import (
	"bytes"
	"math"
	"strings"

	"github.com/sandrolain/gomathex/pkg/ast"
	"github.com/sandrolain/gomathex/pkg/functions"
	"github.com/sandrolain/gomathex/pkg/types"
)

func incompatible(op ast.Op, a, b types.Value) error {
	return types.Evalf(types.ErrCodeBindingType,
		"operator %s cannot be applied to %s and %s", op, a.Type, b.Type).WithToken(op.String())
}

func bothInt(a, b types.Value) bool {
	return a.Type == types.TypeInteger && b.Type == types.TypeInteger
}

func bothNumeric(a, b types.Value) bool {
	return a.Type.IsNumeric() && b.Type.IsNumeric()
}

// arithmetic applies + - * / % ** to runtime values.
func arithmetic(op ast.Op, a, b types.Value) (types.Value, error) {
	if bothInt(a, b) {
		r, err := intArithmetic(op, a.Int, b.Int)
		if err != nil {
			return types.Value{}, err
		}
		return types.Int(r), nil
	}
	if bothNumeric(a, b) {
		return types.Float(floatArithmetic(op, a.AsFloat(), b.AsFloat())), nil
	}
	if op == ast.OpAdd && a.Type == b.Type {
		switch a.Type {
		case types.TypeString:
			return types.String(a.Str + b.Str), nil
		case types.TypeByteArray:
			out := make([]byte, 0, len(a.Bytes)+len(b.Bytes))
			out = append(out, a.Bytes...)
			return types.Value{Type: types.TypeByteArray, Bytes: append(out, b.Bytes...)}, nil
		}
	}
	return types.Value{}, incompatible(op, a, b)
}

func intArithmetic(op ast.Op, a, b int64) (int64, error) {
	switch op {
	case ast.OpAdd:
		return functions.AddInt(a, b)
	case ast.OpSub:
		return functions.SubInt(a, b)
	case ast.OpMul:
		return functions.MulInt(a, b)
	case ast.OpDiv:
		return functions.DivInt(a, b)
	case ast.OpMod:
		return functions.ModInt(a, b)
	case ast.OpPow:
		return functions.PowInt(a, b)
	}
	return 0, types.Evalf(types.ErrCodeOperandType, "unsupported integer operator %s", op)
}

func floatArithmetic(op ast.Op, a, b float64) float64 {
	switch op {
	case ast.OpAdd:
		return a + b
	case ast.OpSub:
		return a - b
	case ast.OpMul:
		return a * b
	case ast.OpDiv:
		return a / b
	case ast.OpMod:
		return math.Mod(a, b)
	case ast.OpPow:
		return math.Pow(a, b)
	}
	return math.NaN()
}

// bitwise applies & | ^ to integers and, without short-circuit, to booleans.
func bitwise(op ast.Op, a, b types.Value) (types.Value, error) {
	switch {
	case bothInt(a, b):
		switch op {
		case ast.OpBitAnd:
			return types.Int(a.Int & b.Int), nil
		case ast.OpBitOr:
			return types.Int(a.Int | b.Int), nil
		default:
			return types.Int(a.Int ^ b.Int), nil
		}
	case a.Type == types.TypeBoolean && b.Type == types.TypeBoolean:
		switch op {
		case ast.OpBitAnd:
			return types.Bool(a.Bool && b.Bool), nil
		case ast.OpBitOr:
			return types.Bool(a.Bool || b.Bool), nil
		default:
			return types.Bool(a.Bool != b.Bool), nil
		}
	}
	return types.Value{}, incompatible(op, a, b)
}

func shift(op ast.Op, a, b types.Value) (types.Value, error) {
	if !bothInt(a, b) {
		return types.Value{}, incompatible(op, a, b)
	}
	n := b.Int
	if op == ast.OpShr {
		if n == math.MinInt64 {
			n = math.MaxInt64
		} else {
			n = -n
		}
	}
	return types.Int(functions.ShiftInt(a.Int, n)), nil
}

func negate(op ast.Op, v types.Value) (types.Value, error) {
	switch {
	case op == ast.OpPlus && v.Type.IsNumeric():
		return v, nil
	case op == ast.OpNeg && v.Type == types.TypeInteger:
		n, err := functions.NegInt(v.Int)
		if err != nil {
			return types.Value{}, err
		}
		return types.Int(n), nil
	case op == ast.OpNeg && v.Type == types.TypeFloat:
		return types.Float(-v.Float), nil
	case op == ast.OpNot && v.Type == types.TypeBoolean:
		return types.Bool(!v.Bool), nil
	case op == ast.OpNot && v.Type == types.TypeInteger:
		return types.Int(^v.Int), nil
	}
	return types.Value{}, types.Evalf(types.ErrCodeBindingType,
		"operator %s cannot be applied to %s", op, v.Type).WithToken(op.String())
}

// compare evaluates a comparison operator. tol is nil for exact comparison.
func compare(op ast.Op, a, b types.Value, tol *types.Tolerance) (types.Value, error) {
	switch {
	case bothNumeric(a, b):
		if tol != nil {
			return types.Bool(tolerantCompare(op, a, b, *tol)), nil
		}
		if bothInt(a, b) {
			return types.Bool(ordered(op, cmpInt(a.Int, b.Int))), nil
		}
		return types.Bool(floatCompare(op, a.AsFloat(), b.AsFloat())), nil
	case a.Type != b.Type:
		return types.Value{}, incompatible(op, a, b)
	case a.Type == types.TypeString:
		return types.Bool(ordered(op, strings.Compare(a.Str, b.Str))), nil
	case a.Type == types.TypeByteArray:
		return types.Bool(ordered(op, bytes.Compare(a.Bytes, b.Bytes))), nil
	case a.Type == types.TypeBoolean:
		return types.Bool(ordered(op, cmpBool(a.Bool, b.Bool))), nil
	}
	return types.Value{}, incompatible(op, a, b)
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// cmpBool orders false before true, so a < b holds exactly when !a && b.
func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case b:
		return -1
	default:
		return 1
	}
}

func ordered(op ast.Op, c int) bool {
	switch op {
	case ast.OpEq:
		return c == 0
	case ast.OpNe:
		return c != 0
	case ast.OpLt:
		return c < 0
	case ast.OpLe:
		return c <= 0
	case ast.OpGt:
		return c > 0
	default:
		return c >= 0
	}
}

// floatCompare follows IEEE semantics: NaN is unequal to everything.
func floatCompare(op ast.Op, a, b float64) bool {
	switch op {
	case ast.OpEq:
		return a == b
	case ast.OpNe:
		return a != b
	case ast.OpLt:
		return a < b
	case ast.OpLe:
		return a <= b
	case ast.OpGt:
		return a > b
	default:
		return a >= b
	}
}

// tolerantCompare compares a against the window built around b.
func tolerantCompare(op ast.Op, a, b types.Value, tol types.Tolerance) bool {
	mode := tol.Mode()
	if mode == types.ToleranceExact {
		if bothInt(a, b) {
			return ordered(op, cmpInt(a.Int, b.Int))
		}
		return floatCompare(op, a.AsFloat(), b.AsFloat())
	}
	if mode == types.ToleranceIntRange && bothInt(a, b) {
		lo, hi := tol.IntWindow(b.Int)
		return windowed(op, a.Int >= lo, a.Int <= hi, a.Int < hi, a.Int > lo)
	}
	x := a.AsFloat()
	lo, hi := tol.Window(b.AsFloat())
	return windowed(op, x >= lo, x <= hi, x < hi, x > lo)
}

func windowed(op ast.Op, geLo, leHi, ltHi, gtLo bool) bool {
	switch op {
	case ast.OpEq:
		return geLo && leHi
	case ast.OpNe:
		return !(geLo && leHi)
	case ast.OpLt:
		return ltHi
	case ast.OpLe:
		return leHi
	case ast.OpGt:
		return gtLo
	default:
		return geLo
	}
}

// widen converts an Integer to Float.
func widen(v types.Value) types.Value {
	if v.Type == types.TypeInteger {
		return types.Float(float64(v.Int))
	}
	return v
}
