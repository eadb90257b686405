package parser

import (
	"github.com/sandrolain/gomathex/pkg/ast"
	"github.com/sandrolain/gomathex/pkg/types"
)

// tier groups binary operators of equal precedence.
type tier struct {
	ops []TokenType
}

// binaryTiers lists the left-associative operator tiers from lowest to
// highest precedence. Unary operators bind tighter than every tier here and
// looser than powTier, which is right-associative.
var binaryTiers = []tier{
	{ops: []TokenType{TokenOr}},
	{ops: []TokenType{TokenAnd}},
	{ops: []TokenType{TokenBitOr}},
	{ops: []TokenType{TokenBitXor}},
	{ops: []TokenType{TokenBitAnd}},
	{ops: []TokenType{TokenEqual, TokenNotEqual}},
	{ops: []TokenType{TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual}},
	{ops: []TokenType{TokenShl, TokenShr}},
	{ops: []TokenType{TokenPlus, TokenMinus}},
	{ops: []TokenType{TokenMult, TokenDiv, TokenMod}},
}

var powTier = tier{ops: []TokenType{TokenPow}}

var binaryOps = map[TokenType]ast.Op{
	TokenOr:           ast.OpOr,
	TokenAnd:          ast.OpAnd,
	TokenBitOr:        ast.OpBitOr,
	TokenBitXor:       ast.OpBitXor,
	TokenBitAnd:       ast.OpBitAnd,
	TokenEqual:        ast.OpEq,
	TokenNotEqual:     ast.OpNe,
	TokenLess:         ast.OpLt,
	TokenLessEqual:    ast.OpLe,
	TokenGreater:      ast.OpGt,
	TokenGreaterEqual: ast.OpGe,
	TokenShl:          ast.OpShl,
	TokenShr:          ast.OpShr,
	TokenPlus:         ast.OpAdd,
	TokenMinus:        ast.OpSub,
	TokenMult:         ast.OpMul,
	TokenDiv:          ast.OpDiv,
	TokenMod:          ast.OpMod,
	TokenPow:          ast.OpPow,
}

var unaryOps = map[TokenType]ast.Op{
	TokenMinus: ast.OpNeg,
	TokenPlus:  ast.OpPlus,
	TokenNot:   ast.OpNot,
}

func (t tier) has(tt TokenType) bool {
	for _, op := range t.ops {
		if op == tt {
			return true
		}
	}
	return false
}

// checkBalance verifies that brackets are balanced and properly nested.
func checkBalance(tokens []Token) error {
	var stack []Token
	for _, t := range tokens {
		switch t.Type {
		case TokenParenOpen, TokenBracketOpen:
			stack = append(stack, t)
		case TokenParenClose, TokenBracketClose:
			if len(stack) == 0 {
				return types.Syntaxf(types.ErrCodeUnbalanced, t.Position, "unexpected %s", t.Value).WithToken(t.Value)
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if (open.Type == TokenParenOpen) != (t.Type == TokenParenClose) {
				return types.Syntaxf(types.ErrCodeUnbalanced, t.Position,
					"%s does not close %s at position %d", t.Value, open.Value, open.Position).WithToken(t.Value)
			}
		}
	}
	if len(stack) > 0 {
		open := stack[len(stack)-1]
		return types.Syntaxf(types.ErrCodeUnbalanced, open.Position, "unclosed %s", open.Value).WithToken(open.Value)
	}
	return nil
}

func depthDelta(t TokenType) int {
	switch t {
	case TokenParenOpen, TokenBracketOpen:
		return 1
	case TokenParenClose, TokenBracketClose:
		return -1
	default:
		return 0
	}
}

// isUnaryAt reports whether the + or - at index i is a sign rather than a
// binary operator: it starts the segment or follows an operator, an opening
// bracket, a comma, '?' or ':'.
func isUnaryAt(tokens []Token, i int) bool {
	if i == 0 {
		return true
	}
	prev := tokens[i-1].Type
	if prev.IsOperator() {
		return true
	}
	switch prev {
	case TokenParenOpen, TokenBracketOpen, TokenComma, TokenCondition, TokenColon:
		return true
	}
	return false
}

// findSplits returns the indexes of every top-level operator of tier t, in
// order. Signs are not operators of their tier.
func findSplits(tokens []Token, t tier) []int {
	depth := 0
	var found []int
	for i, tok := range tokens {
		depth += depthDelta(tok.Type)
		if depth != 0 || !t.has(tok.Type) {
			continue
		}
		if (tok.Type == TokenPlus || tok.Type == TokenMinus) && isUnaryAt(tokens, i) {
			continue
		}
		found = append(found, i)
	}
	return found
}

// findSplit returns the index of the leftmost top-level operator of tier t,
// or -1.
func findSplit(tokens []Token, t tier) int {
	depth := 0
	for i, tok := range tokens {
		depth += depthDelta(tok.Type)
		if depth == 0 && t.has(tok.Type) {
			return i
		}
	}
	return -1
}

// findTernary returns the indexes of the leftmost top-level '?' and its
// matching ':'. q is -1 when the segment has no top-level '?'.
func findTernary(tokens []Token) (q, c int, err error) {
	depth := 0
	q = -1
	pending := 0
	for i, tok := range tokens {
		depth += depthDelta(tok.Type)
		if depth != 0 {
			continue
		}
		switch tok.Type {
		case TokenCondition:
			if q < 0 {
				q = i
			} else {
				pending++
			}
		case TokenColon:
			if q < 0 {
				continue
			}
			if pending == 0 {
				return q, i, nil
			}
			pending--
		}
	}
	if q >= 0 {
		return -1, -1, types.Syntaxf(types.ErrCodeSyntax, tokens[q].Position, "'?' without matching ':'").
			WithToken(tokens[q].Value)
	}
	return -1, -1, nil
}

// matchingClose returns the index of the bracket closing tokens[open].
func matchingClose(tokens []Token, open int) int {
	depth := 0
	for i := open; i < len(tokens); i++ {
		depth += depthDelta(tokens[i].Type)
		if depth == 0 {
			return i
		}
	}
	return -1
}

// splitArgs splits a call's argument tokens on top-level commas.
func splitArgs(tokens []Token) [][]Token {
	if len(tokens) == 0 {
		return nil
	}
	var args [][]Token
	depth := 0
	start := 0
	for i, tok := range tokens {
		depth += depthDelta(tok.Type)
		if depth == 0 && tok.Type == TokenComma {
			args = append(args, tokens[start:i])
			start = i + 1
		}
	}
	return append(args, tokens[start:])
}
