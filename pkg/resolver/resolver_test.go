package resolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gomathex/pkg/ast"
	"github.com/sandrolain/gomathex/pkg/parser"
	"github.com/sandrolain/gomathex/pkg/resolver"
	"github.com/sandrolain/gomathex/pkg/types"
)

func resolve(t *testing.T, text string) *ast.Tree {
	t.Helper()
	tree, err := parser.Parse(context.Background(), text, nil)
	require.NoError(t, err, text)
	require.NoError(t, resolver.Resolve(context.Background(), tree), text)
	return tree
}

func paramSet(t *testing.T, tree *ast.Tree, name string) types.TypeSet {
	t.Helper()
	i, ok := tree.Params.Lookup(name)
	require.True(t, ok, name)
	return tree.Params.At(i).Candidates
}

func TestResolveParameterTypes(t *testing.T) {
	tests := []struct {
		expr   string
		params map[string]types.TypeSet
		result types.TypeSet
	}{
		{"x", map[string]types.TypeSet{"x": types.SetAny}, types.SetAny},
		{"x * 2", map[string]types.TypeSet{"x": types.SetNumeric}, types.SetNumeric},
		{"x + 1", map[string]types.TypeSet{"x": types.SetNumeric}, types.SetNumeric},
		{"x + y", map[string]types.TypeSet{
			"x": types.SetNumeric | types.SetString | types.SetByteArray,
			"y": types.SetNumeric | types.SetString | types.SetByteArray,
		}, types.SetNumeric | types.SetString | types.SetByteArray},
		{"x + 'a'", map[string]types.TypeSet{"x": types.SetString}, types.SetString},
		{"x << 1", map[string]types.TypeSet{"x": types.SetInteger}, types.SetInteger},
		{"a && b", map[string]types.TypeSet{"a": types.SetBoolean, "b": types.SetBoolean}, types.SetBoolean},
		{"!x", map[string]types.TypeSet{"x": types.SetBoolean | types.SetInteger}, types.SetInteger | types.SetBoolean},
		{"x & 1", map[string]types.TypeSet{"x": types.SetInteger}, types.SetInteger},
		{"c ? 1 : 2", map[string]types.TypeSet{"c": types.SetBoolean}, types.SetInteger},
		{"sqrt(x)", map[string]types.TypeSet{"x": types.SetNumeric}, types.SetFloat},
		{"len(s)", map[string]types.TypeSet{"s": types.SetString | types.SetByteArray}, types.SetInteger},
		{"substring(s, i)", map[string]types.TypeSet{"s": types.SetString, "i": types.SetInteger}, types.SetString},
		// Integer expectations propagate down through arithmetic.
		{"(x + y) << 2", map[string]types.TypeSet{"x": types.SetInteger, "y": types.SetInteger}, types.SetInteger},
		{"substring('abc', x - 1)", map[string]types.TypeSet{"x": types.SetInteger}, types.SetString},
		// Float expectations admit Integer operands.
		{"sqrt(x * y)", map[string]types.TypeSet{"x": types.SetNumeric, "y": types.SetNumeric}, types.SetFloat},
		// A parameter narrowed in one place narrows everywhere.
		{"x > 1 && x + y > 3", map[string]types.TypeSet{"x": types.SetNumeric, "y": types.SetNumeric}, types.SetBoolean},
		{"max(x, 1.5)", map[string]types.TypeSet{"x": types.SetNumeric}, types.SetFloat},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			tree := resolve(t, tt.expr)
			for name, want := range tt.params {
				assert.Equal(t, want, paramSet(t, tree, name), "parameter %s", name)
			}
			assert.Equal(t, tt.result, tree.Root.Type)
		})
	}
}

func TestResolveMarksStrong(t *testing.T) {
	tree := resolve(t, "(x + y) << 2")
	for _, name := range []string{"x", "y"} {
		i, _ := tree.Params.Lookup(name)
		assert.True(t, tree.Params.At(i).Strong, name)
		assert.Equal(t, types.TypeInteger, tree.Params.At(i).Type())
	}

	tree = resolve(t, "x * 2")
	i, _ := tree.Params.Lookup("x")
	assert.False(t, tree.Params.At(i).Strong)
	assert.Equal(t, types.TypeUnknown, tree.Params.At(i).Type())
}

func TestResolveParameterNodesMirrorTable(t *testing.T) {
	tree := resolve(t, "(x + y) << 2")
	ast.Walk(tree.Root, func(n *ast.Node) {
		if n.Kind == ast.NodeParameter {
			assert.Equal(t, tree.Params.At(n.Param).Candidates, n.Type)
		}
	})
}

func TestResolveConflicts(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"integer then string", "(x + 1) << 2 == len(x)"},
		{"shift of float sum", "(x + 1.5) << 2"},
		{"boolean arithmetic", "(a && b) + 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := parser.Parse(context.Background(), tt.expr, nil)
			if err == nil {
				err = resolver.Resolve(context.Background(), tree)
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrNotLogicallyValid)
		})
	}
}

func TestResolveCanceled(t *testing.T) {
	tree, err := parser.Parse(context.Background(), "x + 1", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = resolver.Resolve(ctx, tree)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetermine(t *testing.T) {
	params := ast.NewParamTable()
	i := params.Intern("x", 0)
	assert.Equal(t, i, params.Intern("x", 5))

	changed, err := params.DetermineWeakly(i, types.SetNumeric|types.SetString)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, params.At(i).Strong)

	changed, err = params.DetermineWeakly(i, types.SetAny)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = params.DetermineWeakly(i, types.SetString|types.SetBoolean)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, params.At(i).Strong)
	assert.Equal(t, types.TypeString, params.At(i).Type())

	_, err = params.DetermineStrongly(i, types.TypeInteger)
	assert.ErrorIs(t, err, types.ErrNotLogicallyValid)

	_, err = params.DetermineWeakly(i, types.SetNumeric)
	assert.ErrorIs(t, err, types.ErrNotLogicallyValid)

	changed, err = params.DetermineStrongly(i, types.TypeString)
	require.NoError(t, err)
	assert.False(t, changed)

	clone := params.Clone()
	j := clone.Intern("y", 1)
	assert.Equal(t, 1, j)
	assert.Equal(t, 1, params.Len())
	assert.Equal(t, 2, clone.Len())
}
