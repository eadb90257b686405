package resolver

import (
	"github.com/sandrolain/gomathex/pkg/ast"
	"github.com/sandrolain/gomathex/pkg/types"
)

// Type families. Operands of one operator application must share a family.
var (
	allFamilies     = []types.TypeSet{types.SetNumeric, types.SetString, types.SetBoolean, types.SetByteArray}
	additive        = []types.TypeSet{types.SetNumeric, types.SetString, types.SetByteArray}
	numericOnly     = []types.TypeSet{types.SetNumeric}
	booleanOnly     = []types.TypeSet{types.SetBoolean}
	integerOnly     = []types.TypeSet{types.SetInteger}
	integerOrBool   = []types.TypeSet{types.SetInteger, types.SetBoolean}
	negatable       = []types.TypeSet{types.SetBoolean, types.SetInteger}
	genericNumeric  = numericOnly
	genericAnything = allFamilies
)

// BinaryFamilies returns the operand families accepted by op.
func BinaryFamilies(op ast.Op) []types.TypeSet {
	switch op {
	case ast.OpAdd:
		return additive
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpPow:
		return numericOnly
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return allFamilies
	case ast.OpAnd, ast.OpOr:
		return booleanOnly
	case ast.OpBitAnd, ast.OpBitOr, ast.OpBitXor:
		return integerOrBool
	case ast.OpShl, ast.OpShr:
		return integerOnly
	default:
		return nil
	}
}

// UnaryFamilies returns the operand families accepted by op.
func UnaryFamilies(op ast.Op) []types.TypeSet {
	switch op {
	case ast.OpNeg, ast.OpPlus:
		return numericOnly
	case ast.OpNot:
		return negatable
	default:
		return nil
	}
}

// joins reports whether the result of op in family f is the numeric join
// of its operands, so that an Integer-only expectation forbids Float
// operands.
func joins(op ast.Op, f types.TypeSet) bool {
	if f != types.SetNumeric {
		return false
	}
	switch op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpPow,
		ast.OpNeg, ast.OpPlus, ast.OpCond:
		return true
	}
	return false
}

// binaryResult is the result set of op applied to operands a and b of
// family f.
func binaryResult(op ast.Op, f, a, b types.TypeSet) types.TypeSet {
	switch {
	case op.IsComparison(), op == ast.OpAnd, op == ast.OpOr:
		return types.SetBoolean
	case op == ast.OpShl, op == ast.OpShr:
		return types.SetInteger
	case f == types.SetNumeric:
		return types.Join(a, b)
	default:
		return f
	}
}

// widenDown returns the operand types whose numeric join can satisfy want.
func widenDown(want types.TypeSet) types.TypeSet {
	if want.Has(types.TypeFloat) {
		return want | types.SetInteger
	}
	return want
}

// accepted widens a declared parameter set: Float parameters take Integer
// arguments.
func accepted(set types.TypeSet) types.TypeSet {
	if set.Has(types.TypeFloat) {
		return set | types.SetInteger
	}
	return set
}
