package parser

import (
	"context"
	"errors"

	"github.com/sandrolain/gomathex/pkg/ast"
	"github.com/sandrolain/gomathex/pkg/compiler"
	"github.com/sandrolain/gomathex/pkg/functions"
	"github.com/sandrolain/gomathex/pkg/resolver"
	"github.com/sandrolain/gomathex/pkg/types"
)

// Parser builds one expression tree. A Parser is single-use and not safe
// for concurrent use.
type Parser struct {
	ctx    context.Context
	input  string
	table  *functions.Table
	params *ast.ParamTable
	arena  *ast.Arena
	opts   CompileOptions
}

// NewParser creates a parser for input.
func NewParser(ctx context.Context, input string, table *functions.Table, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.MaxDepth <= 0 {
		options.MaxDepth = DefaultMaxDepth
	}
	if table == nil {
		table = functions.Default()
	}

	return &Parser{
		ctx:    ctx,
		input:  input,
		table:  table,
		params: ast.NewParamTable(),
		arena:  ast.NewArena(),
		opts:   options,
	}
}

// Parse parses the whole input.
func (p *Parser) Parse() (*ast.Tree, error) {
	if err := p.ctx.Err(); err != nil {
		return nil, types.Canceled(err)
	}
	tokens, err := Tokenize(p.input)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, types.Syntaxf(types.ErrCodeUnexpectedEnd, 0, "empty expression")
	}
	if err := checkBalance(tokens); err != nil {
		return nil, err
	}

	root, err := p.parseSegment(tokens, len(p.input), 0)
	if err != nil {
		return nil, err
	}
	return &ast.Tree{Root: root, Params: p.params, Source: p.input}, nil
}

// parseSegment parses a token segment. end is the position reported when
// the segment is empty. depth counts enclosing brackets, calls, ternaries,
// prefix operators and powers.
func (p *Parser) parseSegment(tokens []Token, end, depth int) (*ast.Node, error) {
	if depth > p.opts.MaxDepth {
		pos := end
		if len(tokens) > 0 {
			pos = tokens[0].Position
		}
		return nil, types.Syntaxf(types.ErrCodeTooDeep, pos, "expression nested deeper than %d", p.opts.MaxDepth)
	}
	if err := p.ctx.Err(); err != nil {
		return nil, types.Canceled(err)
	}
	if len(tokens) == 0 {
		return nil, types.Syntaxf(types.ErrCodeUnexpectedEnd, end, "missing operand")
	}

	// Ternary
	q, c, err := findTernary(tokens)
	if err != nil {
		return nil, err
	}
	if q >= 0 {
		return p.parseTernary(tokens[q], tokens[:q], tokens[q+1:c], tokens[c+1:], end, depth)
	}

	// Binary tiers, lowest first
	for _, t := range binaryTiers {
		if splits := findSplits(tokens, t); len(splits) > 0 {
			return p.parseChain(tokens, splits, end, depth)
		}
	}

	// Prefix operators
	if op, ok := unaryOps[tokens[0].Type]; ok {
		operand, err := p.parseSegment(tokens[1:], end, depth+1)
		if err != nil {
			return nil, err
		}
		n := p.arena.Alloc(ast.NodeUnary, tokens[0].Position)
		n.Op = op
		n.Children = []*ast.Node{operand}
		return p.finish(n)
	}

	// Power
	if i := findSplit(tokens, powTier); i >= 0 {
		return p.parseBinary(tokens, i, end, depth)
	}

	return p.parsePrimary(tokens, end, depth)
}

// parseChain parses a left-associative chain split at splits. Operands are
// parsed in turn and folded from the left, so the cost stays linear in the
// chain length.
func (p *Parser) parseChain(tokens []Token, splits []int, end, depth int) (*ast.Node, error) {
	var acc *ast.Node
	start := 0
	for k := 0; k <= len(splits); k++ {
		stop, stopPos := len(tokens), end
		if k < len(splits) {
			stop, stopPos = splits[k], tokens[splits[k]].Position
		}
		operand, err := p.parseSegment(tokens[start:stop], stopPos, depth)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = operand
		} else if acc, err = p.binary(tokens[splits[k-1]], acc, operand); err != nil {
			return nil, err
		}
		start = stop + 1
	}
	return acc, nil
}

func (p *Parser) parseBinary(tokens []Token, i, end, depth int) (*ast.Node, error) {
	left, err := p.parseSegment(tokens[:i], tokens[i].Position, depth)
	if err != nil {
		return nil, err
	}
	right, err := p.parseSegment(tokens[i+1:], end, depth+1)
	if err != nil {
		return nil, err
	}
	return p.binary(tokens[i], left, right)
}

func (p *Parser) binary(op Token, left, right *ast.Node) (*ast.Node, error) {
	n := p.arena.Alloc(ast.NodeBinary, op.Position)
	n.Op = binaryOps[op.Type]
	n.Children = []*ast.Node{left, right}
	return p.finish(n)
}

func (p *Parser) parseTernary(q Token, cond, then, otherwise []Token, end, depth int) (*ast.Node, error) {
	c, err := p.parseSegment(cond, q.Position, depth)
	if err != nil {
		return nil, err
	}
	thenEnd := end
	if len(otherwise) > 0 {
		thenEnd = otherwise[0].Position - 1
	}
	t, err := p.parseSegment(then, thenEnd, depth+1)
	if err != nil {
		return nil, err
	}
	e, err := p.parseSegment(otherwise, end, depth+1)
	if err != nil {
		return nil, err
	}
	return p.ternary(q.Position, c, t, e)
}

func (p *Parser) ternary(pos int, cond, then, otherwise *ast.Node) (*ast.Node, error) {
	n := p.arena.Alloc(ast.NodeTernary, pos)
	n.Op = ast.OpCond
	n.Children = []*ast.Node{cond, then, otherwise}
	return p.finish(n)
}

// parsePrimary parses a bracketed subexpression, a function call, a
// literal or a parameter.
func (p *Parser) parsePrimary(tokens []Token, end, depth int) (*ast.Node, error) {
	first := tokens[0]

	switch first.Type {
	case TokenParenOpen, TokenBracketOpen:
		closing := matchingClose(tokens, 0)
		if closing == len(tokens)-1 {
			if closing == 1 {
				return nil, types.Syntaxf(types.ErrCodeSyntax, first.Position, "empty brackets").WithToken(first.Value)
			}
			return p.parseSegment(tokens[1:closing], tokens[closing].Position, depth+1)
		}
		return nil, unexpected(tokens[closing+1])

	case TokenName:
		if len(tokens) > 1 && tokens[1].Type == TokenParenOpen {
			closing := matchingClose(tokens, 1)
			if closing == len(tokens)-1 {
				return p.parseCall(first, tokens[2:closing], tokens[closing].Position, depth)
			}
			return nil, unexpected(tokens[closing+1])
		}
	}

	if len(tokens) > 1 {
		return nil, unexpected(tokens[1])
	}

	switch first.Type {
	case TokenName, TokenNameEsc:
		n := p.arena.Alloc(ast.NodeParameter, first.Position)
		n.Param = p.params.Intern(first.Value, first.Position)
		n.Type = p.params.At(n.Param).Candidates
		return n, nil
	case TokenNumber, TokenString, TokenBoolean, TokenBytes:
		v, err := literalFromToken(first)
		if err != nil {
			return nil, err
		}
		return p.literal(first.Position, v), nil
	}
	return nil, unexpected(first)
}

func (p *Parser) parseCall(name Token, argTokens []Token, end, depth int) (*ast.Node, error) {
	segments := splitArgs(argTokens)

	def, err := p.table.Lookup(name.Value, len(segments))
	switch {
	case errors.Is(err, types.ErrFunctionNotFound):
		return nil, types.Syntaxf(types.ErrCodeUnknownFunction, name.Position,
			"unknown function %s", name.Value).WithToken(name.Value)
	case errors.Is(err, types.ErrArityMismatch):
		return nil, types.Validityf(types.ErrCodeArity, name.Position,
			"%s does not accept %d argument(s)", name.Value, len(segments)).WithToken(name.Value)
	case err != nil:
		return nil, err
	}

	args := make([]*ast.Node, len(segments))
	for i, seg := range segments {
		arg, err := p.parseSegment(seg, end, depth+1)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}

	if def.IsConditional() {
		return p.ternary(name.Position, args[0], args[1], args[2])
	}

	n := p.arena.Alloc(ast.NodeCall, name.Position)
	n.Func = def
	n.Children = args
	return p.finish(n)
}

func (p *Parser) literal(pos int, v types.Value) *ast.Node {
	n := p.arena.Alloc(ast.NodeLiteral, pos)
	n.Value = v
	n.Type = v.Type.Set()
	return n
}

// finish validates n against its operands and folds it when possible.
func (p *Parser) finish(n *ast.Node) (*ast.Node, error) {
	if err := resolver.Infer(n, p.params); err != nil {
		return nil, err
	}
	if p.opts.DisableFolding {
		return n, nil
	}
	if v, ok := compiler.Fold(n); ok {
		return p.literal(n.Position, v), nil
	}
	return n, nil
}

func unexpected(t Token) error {
	return types.Syntaxf(types.ErrCodeSyntax, t.Position, "unexpected token %s", t.Value).WithToken(t.Value)
}
