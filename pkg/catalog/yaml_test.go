package catalog_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gomathex/pkg/catalog"
	"github.com/sandrolain/gomathex/pkg/evaluator"
	"github.com/sandrolain/gomathex/pkg/functions"
	"github.com/sandrolain/gomathex/pkg/types"
)

const geometry = `
functions:
  - name: area
    params: [w, h]
    signature: "<ff:f>"
    description: rectangle area
    body: w * h
  - name: clampi
    params: [x, lo, hi]
    signature: "<iii:i>"
    body: "x < lo ? lo : (x > hi ? hi : x)"
  - name: greet
    params: [name]
    signature: "<s:s>"
    body: "'hello ' + name"
  - name: twice
    params: [x]
    signature: "<i:f>"
    body: x * 2
  - name: scale
    params: [x]
    signature: "<n:n>"
    body: x * 2
  - name: jitter
    params: []
    signature: "<:f>"
    body: rand()
`

func newEvaluator() *evaluator.Evaluator {
	return evaluator.New(evaluator.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestYAMLCatalog(t *testing.T) {
	ev := newEvaluator()
	cat, err := catalog.ParseYAML([]byte(geometry), ev.Functions())
	require.NoError(t, err)
	require.NoError(t, ev.RegisterFunctionsCatalog(cat))

	ctx := context.Background()
	tests := []struct {
		text     string
		bindings map[string]any
		want     types.Value
	}{
		{"area(2, 3.5)", nil, types.Float(7)},
		{"area(w, 2)", map[string]any{"w": 4}, types.Float(8)},
		{"clampi(x, 0, 10)", map[string]any{"x": 15}, types.Int(10)},
		{"clampi(x, 0, 10)", map[string]any{"x": -3}, types.Int(0)},
		{"greet('bob')", nil, types.String("hello bob")},
		{"twice(3)", nil, types.Float(6)},
		{"scale(k) + (k << 0)", map[string]any{"k": 5}, types.Int(15)},
		{"scale(1.5)", nil, types.Float(3)},
		{"jitter() < 1", nil, types.Bool(true)},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ev.EvaluateText(ctx, tt.text, tt.bindings)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Contains(t, ev.RegisteredFunctionPrototypes(), "area(float, float): float - rectangle area")
}

func TestYAMLImpureFunctionsDoNotFold(t *testing.T) {
	table := functions.NewBuiltinTable()
	cat, err := catalog.ParseYAML([]byte(geometry), table)
	require.NoError(t, err)
	defs, err := cat.Functions()
	require.NoError(t, err)

	impure := map[string]bool{}
	for _, d := range defs {
		impure[d.Name] = d.Impure
	}
	assert.True(t, impure["jitter"])
	assert.False(t, impure["area"])
}

func TestYAMLCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		spec catalog.FunctionSpec
		want string
	}{
		{"bad signature", catalog.FunctionSpec{Name: "f", Params: []string{"x"}, Signature: "i:i", Body: "x"}, "invalid signature"},
		{"arity", catalog.FunctionSpec{Name: "f", Params: []string{"x", "y"}, Signature: "<i:i>", Body: "x"}, "1 parameters, 2 names"},
		{"undeclared", catalog.FunctionSpec{Name: "f", Params: []string{"a"}, Signature: "<i:i>", Body: "a + b"}, "undeclared parameter \"b\""},
		{"duplicate", catalog.FunctionSpec{Name: "f", Params: []string{"a", "a"}, Signature: "<ii:i>", Body: "a"}, "duplicate parameter"},
		{"result type", catalog.FunctionSpec{Name: "f", Params: []string{"x"}, Signature: "<i:s>", Body: "x + 1"}, "signature declares string"},
		{"param type", catalog.FunctionSpec{Name: "f", Params: []string{"s"}, Signature: "<s:i>", Body: "s << 1"}, "f"},
		{"generic result", catalog.FunctionSpec{Name: "half", Params: []string{"x"}, Signature: "<n:n>", Body: "x / 2.0"}, "float for integer arguments"},
		{"variadic", catalog.FunctionSpec{Name: "f", Params: []string{"x"}, Signature: "<i+:i>", Body: "x"}, "variadic"},
		{"syntax", catalog.FunctionSpec{Name: "f", Params: []string{"x"}, Signature: "<i:i>", Body: "x +"}, "f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := catalog.NewYAML([]catalog.FunctionSpec{tt.spec}, functions.NewBuiltinTable())
			_, err := cat.Functions()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := catalog.NewYAML([]catalog.FunctionSpec{
		{Name: "f", Params: nil, Signature: "<:i>", Body: "nosuch(1)"},
	}, functions.NewBuiltinTable()).Functions()
	assert.ErrorIs(t, err, types.ErrFunctionNotFound)
}

func TestYAMLParseErrors(t *testing.T) {
	_, err := catalog.ParseYAML([]byte("functions: [::"), nil)
	assert.Error(t, err)

	_, err = catalog.ReadYAML(strings.NewReader("functions:\n  - name: one\n    signature: \"<:i>\"\n    body: \"1\"\n"), nil)
	assert.NoError(t, err)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(geometry), 0o600))
	cat, err := catalog.LoadYAML(path, functions.NewBuiltinTable())
	require.NoError(t, err)
	defs, err := cat.Functions()
	require.NoError(t, err)
	assert.Len(t, defs, 5)

	_, err = catalog.LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}
