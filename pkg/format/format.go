// Package format renders evaluation results as text.
//
// A [Registry] holds at most one [Formatter] per value type. Types without a
// registered formatter use [types.Value.String]. Formatters are consulted only
// when rendering; evaluation never calls them.
package format

import (
	"strconv"
	"strings"
	"sync"

	"github.com/sandrolain/gomathex/pkg/types"
)

// Formatter renders one value. It is only called with values of the type it
// was registered for.
type Formatter interface {
	Format(v types.Value) string
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(v types.Value) string

// Format calls f.
func (f FormatterFunc) Format(v types.Value) string {
	return f(v)
}

// Registry maps value types to formatters. Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	formatters map[types.ValueType]Formatter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{formatters: make(map[types.ValueType]Formatter)}
}

// Register installs f for t, replacing any previous formatter. A nil f
// restores the default rendering.
func (r *Registry) Register(t types.ValueType, f Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f == nil {
		delete(r.formatters, t)
		return
	}
	r.formatters[t] = f
}

// Lookup returns the formatter registered for t.
func (r *Registry) Lookup(t types.ValueType) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formatters[t]
	return f, ok
}

// Format renders v with the formatter registered for its type.
func (r *Registry) Format(v types.Value) string {
	if r != nil {
		if f, ok := r.Lookup(v.Type); ok {
			return f.Format(v)
		}
	}
	return v.String()
}

// Clone returns a registry with the same formatters.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := NewRegistry()
	for t, f := range r.formatters {
		c.formatters[t] = f
	}
	return c
}

// Fixed renders floats with a fixed number of decimals.
func Fixed(decimals int) Formatter {
	return FormatterFunc(func(v types.Value) string {
		return strconv.FormatFloat(v.AsFloat(), 'f', decimals, 64)
	})
}

// Quoted renders strings as double-quoted literals.
func Quoted() Formatter {
	return FormatterFunc(func(v types.Value) string {
		return strconv.Quote(v.Str)
	})
}

// HexBytes renders byte arrays as lowercase hex with the given prefix.
func HexBytes(prefix string) Formatter {
	const digits = "0123456789abcdef"
	return FormatterFunc(func(v types.Value) string {
		var b strings.Builder
		b.Grow(len(prefix) + 2*len(v.Bytes))
		b.WriteString(prefix)
		for _, c := range v.Bytes {
			b.WriteByte(digits[c>>4])
			b.WriteByte(digits[c&0x0f])
		}
		return b.String()
	})
}
