package ast

// Op identifies an operator.
type Op uint8

const (
	OpNone Op = iota

	// Arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow

	// Bitwise / non-short-circuit logical
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr

	// Short-circuit logical
	OpAnd
	OpOr

	// Comparison
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// Unary
	OpNeg
	OpPlus
	OpNot

	// Ternary
	OpCond
)

var opSymbols = [...]string{
	OpNone:   "?",
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpMod:    "%",
	OpPow:    "**",
	OpBitAnd: "&",
	OpBitOr:  "|",
	OpBitXor: "^",
	OpShl:    "<<",
	OpShr:    ">>",
	OpAnd:    "&&",
	OpOr:     "||",
	OpEq:     "==",
	OpNe:     "!=",
	OpLt:     "<",
	OpLe:     "<=",
	OpGt:     ">",
	OpGe:     ">=",
	OpNeg:    "-",
	OpPlus:   "+",
	OpNot:    "!",
	OpCond:   "?:",
}

// String returns the operator symbol.
func (o Op) String() string {
	if int(o) < len(opSymbols) {
		return opSymbols[o]
	}
	return "?"
}

// IsComparison reports whether o is one of == != < <= > >=.
func (o Op) IsComparison() bool {
	return o >= OpEq && o <= OpGe
}
