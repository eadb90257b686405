package catalog

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/sandrolain/gomathex/pkg/functions"
	"github.com/sandrolain/gomathex/pkg/types"
)

// WASM exposes the exported functions of a WebAssembly module whose
// parameters and single result are numeric (i32, i64, f32, f64). Integer
// types map to Integer and float types to Float. Other exports are skipped.
//
// The module is instantiated without host imports, but it may still keep
// state in globals or memory. Exports are folded at interpretation time when
// called with literal arguments unless the catalog is loaded WithImpure.
type WASM struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	module   api.Module
	prefix   string
	impure   bool

	// wazero functions share the module's stack and memory.
	mu sync.Mutex
}

// WASMOption configures a WASM catalog.
type WASMOption func(*WASM)

// WithNamePrefix prepends prefix to every exported name.
func WithNamePrefix(prefix string) WASMOption {
	return func(w *WASM) {
		w.prefix = prefix
	}
}

// WithImpure marks every export as impure, so it is called on each
// evaluation and never folded.
func WithImpure() WASMOption {
	return func(w *WASM) {
		w.impure = true
	}
}

// LoadWASM reads and instantiates the module at path.
func LoadWASM(ctx context.Context, path string, opts ...WASMOption) (*WASM, error) {
	bin, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read module: %w", err)
	}
	return NewWASM(ctx, bin, opts...)
}

// NewWASM compiles and instantiates a module from its binary form.
func NewWASM(ctx context.Context, bin []byte, opts ...WASMOption) (*WASM, error) {
	r := wazero.NewRuntime(ctx)
	compiled, err := r.CompileModule(ctx, bin)
	if err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("compile module: %w", err)
	}
	mod, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("instantiate module: %w", err)
	}
	w := &WASM{runtime: r, compiled: compiled, module: mod}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Close releases the runtime. Registered functions fail afterwards.
func (w *WASM) Close(ctx context.Context) error {
	return w.runtime.Close(ctx)
}

// Functions returns one definition per numeric export, sorted by name.
func (w *WASM) Functions() ([]functions.Definition, error) {
	exports := w.compiled.ExportedFunctions()
	names := make([]string, 0, len(exports))
	for name := range exports {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]functions.Definition, 0, len(names))
	for _, name := range names {
		def := exports[name]
		sig, ok := wasmSignature(def.ParamTypes(), def.ResultTypes())
		if !ok {
			continue
		}
		defs = append(defs, functions.Definition{
			Name:        w.prefix + name,
			Signature:   sig,
			Description: "wasm export " + name,
			Impure:      w.impure,
			Fn:          w.call(name, def.ParamTypes(), def.ResultTypes()[0]),
		})
	}
	return defs, nil
}

func (w *WASM) call(export string, params []api.ValueType, result api.ValueType) functions.Func {
	return func(ctx context.Context, args ...types.Value) (types.Value, error) {
		stack := make([]uint64, len(params))
		for i, p := range params {
			enc, err := encode(p, args[i])
			if err != nil {
				return types.Value{}, fmt.Errorf("%s: argument %d: %w", export, i+1, err)
			}
			stack[i] = enc
		}

		w.mu.Lock()
		fn := w.module.ExportedFunction(export)
		if fn == nil {
			w.mu.Unlock()
			return types.Value{}, fmt.Errorf("%s: export not found", export)
		}
		out, err := fn.Call(ctx, stack...)
		w.mu.Unlock()
		if err != nil {
			return types.Value{}, fmt.Errorf("%s: %w", export, err)
		}
		return decode(result, out[0]), nil
	}
}

func wasmSignature(params, results []api.ValueType) (string, bool) {
	if len(results) != 1 {
		return "", false
	}
	var b strings.Builder
	b.WriteByte('<')
	for _, p := range params {
		c, ok := typeCode(p)
		if !ok {
			return "", false
		}
		b.WriteByte(c)
	}
	b.WriteByte(':')
	c, ok := typeCode(results[0])
	if !ok {
		return "", false
	}
	b.WriteByte(c)
	b.WriteByte('>')
	return b.String(), true
}

func typeCode(t api.ValueType) (byte, bool) {
	switch t {
	case api.ValueTypeI32, api.ValueTypeI64:
		return 'i', true
	case api.ValueTypeF32, api.ValueTypeF64:
		return 'f', true
	default:
		return 0, false
	}
}

func encode(t api.ValueType, v types.Value) (uint64, error) {
	switch t {
	case api.ValueTypeI32:
		if v.Int < math.MinInt32 || v.Int > math.MaxInt32 {
			return 0, types.Evalf(types.ErrCodeOverflow, "%d does not fit in i32", v.Int)
		}
		return api.EncodeI32(int32(v.Int)), nil
	case api.ValueTypeI64:
		return api.EncodeI64(v.Int), nil
	case api.ValueTypeF32:
		return api.EncodeF32(float32(v.AsFloat())), nil
	default:
		return api.EncodeF64(v.AsFloat()), nil
	}
}

func decode(t api.ValueType, raw uint64) types.Value {
	switch t {
	case api.ValueTypeI32:
		return types.Int(int64(api.DecodeI32(raw)))
	case api.ValueTypeI64:
		return types.Int(int64(raw))
	case api.ValueTypeF32:
		return types.Float(float64(api.DecodeF32(raw)))
	default:
		return types.Float(api.DecodeF64(raw))
	}
}
