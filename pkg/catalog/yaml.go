package catalog

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sandrolain/gomathex/pkg/ast"
	"github.com/sandrolain/gomathex/pkg/computed"
	"github.com/sandrolain/gomathex/pkg/functions"
	"github.com/sandrolain/gomathex/pkg/parser"
	"github.com/sandrolain/gomathex/pkg/resolver"
	"github.com/sandrolain/gomathex/pkg/types"
)

// FunctionSpec is one expression-defined function.
//
//	functions:
//	  - name: area
//	    params: [w, h]
//	    signature: "<ff:f>"
//	    description: rectangle area
//	    body: w * h
type FunctionSpec struct {
	Name        string   `yaml:"name"`
	Params      []string `yaml:"params"`
	Signature   string   `yaml:"signature"`
	Description string   `yaml:"description,omitempty"`
	Body        string   `yaml:"body"`
}

// YAMLFile is the document layout of a YAML catalog.
type YAMLFile struct {
	Functions []FunctionSpec `yaml:"functions"`
}

// YAML is a catalog of expression-defined functions. Bodies are interpreted
// against a function table when Functions is called, so they may call any
// function that table already holds.
type YAML struct {
	specs []FunctionSpec
	table *functions.Table
}

// ParseYAML decodes a catalog document. Bodies resolve against table.
func ParseYAML(data []byte, table *functions.Table) (*YAML, error) {
	var doc YAMLFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return NewYAML(doc.Functions, table), nil
}

// ReadYAML decodes a catalog document from r.
func ReadYAML(r io.Reader, table *functions.Table) (*YAML, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseYAML(data, table)
}

// LoadYAML reads a catalog file.
func LoadYAML(path string, table *functions.Table) (*YAML, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseYAML(data, table)
}

// NewYAML builds a catalog from specs.
func NewYAML(specs []FunctionSpec, table *functions.Table) *YAML {
	if table == nil {
		table = functions.Default()
	}
	return &YAML{specs: specs, table: table}
}

// Functions interprets every body and returns the definitions.
func (c *YAML) Functions() ([]functions.Definition, error) {
	defs := make([]functions.Definition, 0, len(c.specs))
	for _, spec := range c.specs {
		d, err := c.define(spec)
		if err != nil {
			return nil, fmt.Errorf("function %q: %w", spec.Name, err)
		}
		defs = append(defs, d)
	}
	return defs, nil
}

func (c *YAML) define(spec FunctionSpec) (functions.Definition, error) {
	sig, err := functions.ParseSignature(spec.Signature)
	if err != nil {
		return functions.Definition{}, err
	}
	if sig.Variadic {
		return functions.Definition{}, fmt.Errorf("variadic signatures are not supported")
	}
	if len(sig.Params) != len(spec.Params) {
		return functions.Definition{}, fmt.Errorf("signature has %d parameters, %d names given",
			len(sig.Params), len(spec.Params))
	}

	ctx := context.Background()
	tree, err := parser.Parse(ctx, spec.Body, c.table)
	if err != nil {
		return functions.Definition{}, err
	}
	declared := make(map[string]bool, len(spec.Params))
	for i, name := range spec.Params {
		if declared[name] {
			return functions.Definition{}, fmt.Errorf("duplicate parameter %q", name)
		}
		declared[name] = true
		if j, ok := tree.Params.Lookup(name); ok {
			if _, err := tree.Params.DetermineWeakly(j, sig.ParamSet(i)); err != nil {
				return functions.Definition{}, err
			}
		}
	}
	for _, name := range tree.Params.Names() {
		if !declared[name] {
			return functions.Definition{}, fmt.Errorf("body uses undeclared parameter %q", name)
		}
	}
	if err := resolver.Resolve(ctx, tree); err != nil {
		return functions.Definition{}, err
	}

	result := sig.Result
	widen := result.Has(types.TypeFloat) && !result.Has(types.TypeInteger)
	if !fits(tree.Root.Type, result) {
		return functions.Definition{}, fmt.Errorf("body produces %s, signature declares %s",
			tree.Root.Type, result)
	}

	if err := c.checkGenericResult(spec, sig); err != nil {
		return functions.Definition{}, err
	}

	expr := computed.New(spec.Body, tree)
	if !expr.RecognizedCorrectly() {
		return functions.Definition{}, expr.Err()
	}
	names := append([]string(nil), spec.Params...)

	return functions.Definition{
		Name:        spec.Name,
		Signature:   spec.Signature,
		Description: spec.Description,
		Impure:      impure(tree),
		Fn: func(ctx context.Context, args ...types.Value) (types.Value, error) {
			bindings := make(map[string]any, len(names))
			for i, name := range names {
				bindings[name] = args[i]
			}
			v, err := expr.Evaluate(ctx, bindings)
			if err != nil {
				return types.Value{}, err
			}
			if widen && v.Type == types.TypeInteger {
				return types.Float(float64(v.Int)), nil
			}
			return v, nil
		},
	}, nil
}

// checkGenericResult re-resolves the body with the generic parameters fixed
// to Integer and then to Float, and requires the result to follow the join
// of the arguments as it does for built-in functions.
func (c *YAML) checkGenericResult(spec FunctionSpec, sig *functions.Signature) error {
	if !sig.ResultGeneric {
		return nil
	}
	ctx := context.Background()
	for _, t := range []types.ValueType{types.TypeInteger, types.TypeFloat} {
		tree, err := parser.Parse(ctx, spec.Body, c.table)
		if err != nil {
			return err
		}
		args := make([]types.TypeSet, len(spec.Params))
		usable := true
		for i, name := range spec.Params {
			args[i] = sig.ParamSet(i)
			if sig.IsGeneric(i) {
				if !args[i].Has(t) {
					usable = false
					break
				}
				args[i] = t.Set()
			}
			if j, ok := tree.Params.Lookup(name); ok {
				if _, err := tree.Params.DetermineWeakly(j, args[i]); err != nil {
					usable = false
					break
				}
			}
		}
		if !usable || resolver.Resolve(ctx, tree) != nil {
			continue
		}
		if want := sig.ResultSet(args); !fits(tree.Root.Type, want) {
			return fmt.Errorf("body produces %s for %s arguments, signature declares %s",
				tree.Root.Type, t, want)
		}
	}
	return nil
}

// fits reports whether every type in produced is allowed by declared.
// Integer results fit a Float declaration.
func fits(produced, declared types.TypeSet) bool {
	if declared.Has(types.TypeFloat) {
		declared |= types.SetInteger
	}
	return produced.SubsetOf(declared)
}

func impure(tree *ast.Tree) bool {
	found := false
	ast.Walk(tree.Root, func(n *ast.Node) {
		if n.Kind == ast.NodeCall && n.Func != nil && !n.Func.Foldable() {
			found = true
		}
	})
	return found
}
