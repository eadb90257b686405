// Package ast defines the typed expression tree produced by the parser,
// annotated by the resolver and consumed by the compiler.
package ast

import (
	"fmt"
	"strings"

	"github.com/sandrolain/gomathex/pkg/functions"
	"github.com/sandrolain/gomathex/pkg/types"
)

// NodeKind identifies the variant of a Node.
type NodeKind uint8

const (
	NodeLiteral NodeKind = iota + 1
	NodeParameter
	NodeUnary
	NodeBinary
	NodeTernary
	NodeCall
)

// String returns the kind name.
func (k NodeKind) String() string {
	switch k {
	case NodeLiteral:
		return "literal"
	case NodeParameter:
		return "parameter"
	case NodeUnary:
		return "unary"
	case NodeBinary:
		return "binary"
	case NodeTernary:
		return "ternary"
	case NodeCall:
		return "call"
	default:
		return "invalid"
	}
}

// Node is one element of the expression tree.
//
// Type holds the set of value types the node may produce. Literals carry a
// single type from construction; every other node is narrowed by the
// resolver before compilation.
type Node struct {
	Kind     NodeKind
	Op       Op
	Position int
	Type     types.TypeSet

	Value    types.Value           // NodeLiteral
	Param    int                   // NodeParameter: index into the tree's ParamTable
	Func     *functions.Definition // NodeCall
	Children []*Node
}

// IsLiteral reports whether n is a literal node.
func (n *Node) IsLiteral() bool {
	return n != nil && n.Kind == NodeLiteral
}

// String renders n back to expression text, fully parenthesized.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b, nil)
	return b.String()
}

// Format renders n, resolving parameter names through params.
func (n *Node) Format(params *ParamTable) string {
	var b strings.Builder
	n.write(&b, params)
	return b.String()
}

func (n *Node) write(b *strings.Builder, params *ParamTable) {
	switch n.Kind {
	case NodeLiteral:
		b.WriteString(n.Value.GoString())
	case NodeParameter:
		if params != nil && n.Param < params.Len() {
			b.WriteString(params.At(n.Param).Name)
		} else {
			fmt.Fprintf(b, "$%d", n.Param)
		}
	case NodeUnary:
		b.WriteString(n.Op.String())
		n.Children[0].write(b, params)
	case NodeBinary:
		b.WriteByte('(')
		n.Children[0].write(b, params)
		b.WriteString(" " + n.Op.String() + " ")
		n.Children[1].write(b, params)
		b.WriteByte(')')
	case NodeTernary:
		b.WriteByte('(')
		n.Children[0].write(b, params)
		b.WriteString(" ? ")
		n.Children[1].write(b, params)
		b.WriteString(" : ")
		n.Children[2].write(b, params)
		b.WriteByte(')')
	case NodeCall:
		b.WriteString(n.Func.Name)
		b.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				b.WriteString(", ")
			}
			c.write(b, params)
		}
		b.WriteByte(')')
	}
}

// Walk visits n and its descendants depth-first, children before parents.
func Walk(n *Node, visit func(*Node)) {
	for _, c := range n.Children {
		Walk(c, visit)
	}
	visit(n)
}

// Tree is the result of one parse: a root node plus the parameter table it
// owns. Nodes reference parameters by index into Params.
type Tree struct {
	Root   *Node
	Params *ParamTable
	Source string
}

// IsConstant reports whether the whole tree folded to one literal.
func (t *Tree) IsConstant() bool {
	return t.Root.IsLiteral()
}

// Clone deep-copies the tree and its parameter table. Literal nodes are
// immutable and shared between the copies.
func (t *Tree) Clone() *Tree {
	arena := NewArena()
	return &Tree{
		Root:   cloneNode(arena, t.Root),
		Params: t.Params.Clone(),
		Source: t.Source,
	}
}

func cloneNode(arena *Arena, n *Node) *Node {
	if n.Kind == NodeLiteral {
		return n
	}
	c := arena.Alloc(n.Kind, n.Position)
	c.Op = n.Op
	c.Type = n.Type
	c.Param = n.Param
	c.Func = n.Func
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = cloneNode(arena, child)
		}
	}
	return c
}
