package functions

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sandrolain/gomathex/pkg/types"
)

// Table is a thread-safe registry of function definitions indexed by name.
type Table struct {
	mu      sync.RWMutex
	entries map[string][]*Definition
	frozen  atomic.Bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		entries: make(map[string][]*Definition),
	}
}

// NewBuiltinTable creates a table pre-populated with the built-in functions.
func NewBuiltinTable() *Table {
	t := NewTable()
	if err := t.Register(Builtins()...); err != nil {
		panic("functions: invalid builtin definition: " + err.Error())
	}
	return t
}

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// Default returns the process-wide table used by the package-level API.
func Default() *Table {
	defaultTableOnce.Do(func() {
		defaultTable = NewBuiltinTable()
	})
	return defaultTable
}

// Register adds definitions to the table. A definition with the same name
// and arity as an existing one replaces it. Registration fails with
// types.ErrTableFrozen once the table is frozen; no definition is added
// when any of them is invalid.
func (t *Table) Register(defs ...Definition) error {
	if t.frozen.Load() {
		return fmt.Errorf("register functions: %w", types.ErrTableFrozen)
	}

	prepared := make([]*Definition, 0, len(defs))
	for i := range defs {
		d := defs[i]
		if d.Name == "" {
			return fmt.Errorf("register functions: definition %d has no name", i)
		}
		if d.Fn == nil {
			return fmt.Errorf("register %q: missing implementation", d.Name)
		}
		sig, err := ParseSignature(d.Signature)
		if err != nil {
			return fmt.Errorf("register %q: %w", d.Name, err)
		}
		d.sig = sig
		prepared = append(prepared, &d)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Re-check under the lock so a concurrent Freeze cannot interleave.
	if t.frozen.Load() {
		return fmt.Errorf("register functions: %w", types.ErrTableFrozen)
	}
	for _, d := range prepared {
		t.entries[d.Name] = replaceOverload(t.entries[d.Name], d)
	}
	return nil
}

func replaceOverload(list []*Definition, d *Definition) []*Definition {
	for i, existing := range list {
		if existing.sig.Variadic == d.sig.Variadic && len(existing.sig.Params) == len(d.sig.Params) {
			out := make([]*Definition, len(list))
			copy(out, list)
			out[i] = d
			return out
		}
	}
	out := make([]*Definition, len(list), len(list)+1)
	copy(out, list)
	return append(out, d)
}

// RegisterCatalog scans catalog and registers every definition it yields.
func (t *Table) RegisterCatalog(catalog Catalog) error {
	if t.frozen.Load() {
		return fmt.Errorf("register catalog: %w", types.ErrTableFrozen)
	}
	defs, err := catalog.Functions()
	if err != nil {
		return fmt.Errorf("register catalog: %w", err)
	}
	return t.Register(defs...)
}

// Freeze stops further registration. It is idempotent.
func (t *Table) Freeze() {
	t.mu.Lock()
	t.frozen.Store(true)
	t.mu.Unlock()
}

// Frozen reports whether the table accepts registrations.
func (t *Table) Frozen() bool {
	return t.frozen.Load()
}

// Has reports whether any overload of name exists.
func (t *Table) Has(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries[name]) > 0
}

// Lookup returns the overload of name accepting argc arguments. Fixed-arity
// overloads win over variadic ones. It fails with types.ErrFunctionNotFound
// when the name is unknown and types.ErrArityMismatch when no overload
// accepts argc.
func (t *Table) Lookup(name string, argc int) (*Definition, error) {
	t.mu.RLock()
	list := t.entries[name]
	t.mu.RUnlock()

	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrFunctionNotFound, name)
	}

	var variadic *Definition
	for _, d := range list {
		if d.sig.Variadic {
			if d.sig.Accepts(argc) && (variadic == nil || len(d.sig.Params) > len(variadic.sig.Params)) {
				variadic = d
			}
			continue
		}
		if d.sig.Accepts(argc) {
			return d, nil
		}
	}
	if variadic != nil {
		return variadic, nil
	}
	return nil, fmt.Errorf("%w: %s does not accept %d argument(s)", types.ErrArityMismatch, name, argc)
}

// Prototypes lists every registered overload as a human-readable
// prototype, sorted by name then arity.
func (t *Table) Prototypes() []string {
	t.mu.RLock()
	defs := make([]*Definition, 0, len(t.entries))
	for _, list := range t.entries {
		defs = append(defs, list...)
	}
	t.mu.RUnlock()

	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Name != defs[j].Name {
			return defs[i].Name < defs[j].Name
		}
		return len(defs[i].sig.Params) < len(defs[j].sig.Params)
	})
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Prototype()
	}
	return out
}

// Len returns the number of registered overloads.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, list := range t.entries {
		n += len(list)
	}
	return n
}
