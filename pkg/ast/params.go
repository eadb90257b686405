package ast

import (
	"github.com/sandrolain/gomathex/pkg/types"
)

// Param is a named placeholder discovered during parsing.
//
// Candidates starts as every type and only shrinks. Strong is set once a
// single candidate remains; later requests for another type fail.
type Param struct {
	Name       string
	Candidates types.TypeSet
	Strong     bool
	Position   int
}

// Type returns the locked type, or TypeUnknown while more than one
// candidate remains.
func (p *Param) Type() types.ValueType {
	t, _ := p.Candidates.Single()
	return t
}

// ParamTable owns the parameters of one parse. Indices are stable and
// assigned in first-mention order.
type ParamTable struct {
	params []Param
	index  map[string]int
}

// NewParamTable returns an empty table.
func NewParamTable() *ParamTable {
	return &ParamTable{index: make(map[string]int)}
}

// Intern returns the index of name, adding it with every candidate type if
// it is new.
func (t *ParamTable) Intern(name string, position int) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	i := len(t.params)
	t.params = append(t.params, Param{Name: name, Candidates: types.SetAny, Position: position})
	t.index[name] = i
	return i
}

// Lookup returns the index of name.
func (t *ParamTable) Lookup(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Len returns the number of parameters.
func (t *ParamTable) Len() int {
	return len(t.params)
}

// At returns the parameter at index i.
func (t *ParamTable) At(i int) *Param {
	return &t.params[i]
}

// Names returns the parameter names in first-mention order.
func (t *ParamTable) Names() []string {
	names := make([]string, len(t.params))
	for i := range t.params {
		names[i] = t.params[i].Name
	}
	return names
}

// DetermineWeakly narrows parameter i to the intersection of its candidates
// and set. It reports whether the candidates changed. An empty intersection
// is a validity error; a single remaining candidate locks the parameter.
func (t *ParamTable) DetermineWeakly(i int, set types.TypeSet) (bool, error) {
	p := &t.params[i]
	narrowed := p.Candidates & set
	if narrowed == 0 {
		return false, types.Validityf(types.ErrCodeParamConflict, p.Position,
			"parameter %q cannot be %s (candidates: %s)", p.Name, set, p.Candidates)
	}
	if narrowed == p.Candidates {
		return false, nil
	}
	p.Candidates = narrowed
	if _, ok := narrowed.Single(); ok {
		p.Strong = true
	}
	return true, nil
}

// DetermineStrongly locks parameter i to typ. It fails when typ is not a
// candidate or when the parameter is already locked to another type.
func (t *ParamTable) DetermineStrongly(i int, typ types.ValueType) (bool, error) {
	p := &t.params[i]
	if p.Strong && p.Type() != typ {
		return false, types.Validityf(types.ErrCodeParamConflict, p.Position,
			"parameter %q is %s, cannot also be %s", p.Name, p.Type(), typ)
	}
	if !p.Candidates.Has(typ) {
		return false, types.Validityf(types.ErrCodeParamConflict, p.Position,
			"parameter %q cannot be %s (candidates: %s)", p.Name, typ, p.Candidates)
	}
	changed := p.Candidates != typ.Set()
	p.Candidates = typ.Set()
	p.Strong = true
	return changed, nil
}

// Clone returns an independent copy of the table.
func (t *ParamTable) Clone() *ParamTable {
	c := &ParamTable{
		params: make([]Param, len(t.params)),
		index:  make(map[string]int, len(t.index)),
	}
	copy(c.params, t.params)
	for k, v := range t.index {
		c.index[k] = v
	}
	return c
}
