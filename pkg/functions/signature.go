package functions

import (
	"fmt"
	"strings"

	"github.com/sandrolain/gomathex/pkg/types"
)

// Signature is a parsed function signature.
//
// Grammar: "<" params [":" result] ">" where each param is a type code or a
// parenthesized union of codes, optionally followed by "+" on the last param
// to make it variadic (one or more occurrences).
//
//	i  integer        f  float     n  numeric (generic)
//	b  boolean        s  string    y  byte array
//	x  any (generic)
//
// Generic params ("n" and "x") must share one type family at a call site. A
// generic result is the numeric join of the generic arguments.
//
// Examples: "<f:f>", "<nn:n>", "<sii:s>", "<n+:n>", "<(sy):i>", "<bxx:x>".
type Signature struct {
	Params        []types.TypeSet
	Generic       []bool
	Variadic      bool
	Result        types.TypeSet
	ResultGeneric bool
}

// ParseSignature parses a signature string.
func ParseSignature(sig string) (*Signature, error) {
	if !strings.HasPrefix(sig, "<") || !strings.HasSuffix(sig, ">") {
		return nil, fmt.Errorf("invalid signature %q: must be enclosed in <>", sig)
	}
	body := sig[1 : len(sig)-1]

	paramPart, resultPart, hasResult := strings.Cut(body, ":")
	if !hasResult {
		return nil, fmt.Errorf("invalid signature %q: missing result type", sig)
	}

	s := &Signature{}
	i := 0
	for i < len(paramPart) {
		set, generic, consumed, err := parseTypeAt(paramPart, i)
		if err != nil {
			return nil, fmt.Errorf("invalid signature %q: %w", sig, err)
		}
		i += consumed
		s.Params = append(s.Params, set)
		s.Generic = append(s.Generic, generic)

		if i < len(paramPart) && paramPart[i] == '+' {
			if i != len(paramPart)-1 {
				return nil, fmt.Errorf("invalid signature %q: only the last parameter may be variadic", sig)
			}
			s.Variadic = true
			i++
		}
	}

	set, generic, consumed, err := parseTypeAt(resultPart, 0)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q: result: %w", sig, err)
	}
	if consumed != len(resultPart) {
		return nil, fmt.Errorf("invalid signature %q: trailing characters after result", sig)
	}
	s.Result = set
	s.ResultGeneric = generic
	if generic && !s.hasGenericParam() {
		return nil, fmt.Errorf("invalid signature %q: generic result without generic parameters", sig)
	}
	return s, nil
}

// parseTypeAt parses one type code or union at position i.
func parseTypeAt(s string, i int) (set types.TypeSet, generic bool, consumed int, err error) {
	if i >= len(s) {
		return 0, false, 0, fmt.Errorf("unexpected end")
	}
	if s[i] != '(' {
		set, generic, err = codeSet(s[i])
		return set, generic, 1, err
	}
	end := strings.IndexByte(s[i:], ')')
	if end < 0 {
		return 0, false, 0, fmt.Errorf("unclosed union")
	}
	if end == 1 {
		return 0, false, 0, fmt.Errorf("empty union")
	}
	for j := i + 1; j < i+end; j++ {
		member, g, err := codeSet(s[j])
		if err != nil {
			return 0, false, 0, err
		}
		if g {
			return 0, false, 0, fmt.Errorf("generic code %q not allowed in union", s[j])
		}
		set |= member
	}
	return set, false, end + 1, nil
}

func codeSet(c byte) (types.TypeSet, bool, error) {
	switch c {
	case 'i':
		return types.SetInteger, false, nil
	case 'f':
		return types.SetFloat, false, nil
	case 'n':
		return types.SetNumeric, true, nil
	case 'b':
		return types.SetBoolean, false, nil
	case 's':
		return types.SetString, false, nil
	case 'y':
		return types.SetByteArray, false, nil
	case 'x':
		return types.SetAny, true, nil
	default:
		return 0, false, fmt.Errorf("unknown type code %q", c)
	}
}

func (s *Signature) hasGenericParam() bool {
	for _, g := range s.Generic {
		if g {
			return true
		}
	}
	return false
}

// MinArgs is the minimum number of arguments accepted.
func (s *Signature) MinArgs() int {
	return len(s.Params)
}

// Accepts reports whether a call with argc arguments matches s.
func (s *Signature) Accepts(argc int) bool {
	if s.Variadic {
		return argc >= len(s.Params)
	}
	return argc == len(s.Params)
}

// ParamSet returns the accepted types of argument i.
func (s *Signature) ParamSet(i int) types.TypeSet {
	if i >= len(s.Params) {
		i = len(s.Params) - 1
	}
	return s.Params[i]
}

// IsGeneric reports whether argument i belongs to the generic group.
func (s *Signature) IsGeneric(i int) bool {
	if i >= len(s.Generic) {
		i = len(s.Generic) - 1
	}
	return s.Generic[i]
}

// ResultSet computes the possible result types for arguments typed args.
func (s *Signature) ResultSet(args []types.TypeSet) types.TypeSet {
	if !s.ResultGeneric {
		return s.Result
	}
	var joined types.TypeSet
	first := true
	for i, a := range args {
		if !s.IsGeneric(i) {
			continue
		}
		if first {
			joined = a
			first = false
			continue
		}
		joined = types.Join(joined, a)
	}
	return joined & s.Result
}

// String renders s back to "<…:…>" form.
func (s *Signature) String() string {
	var b strings.Builder
	b.WriteByte('<')
	for i, p := range s.Params {
		b.WriteString(setCode(p, s.Generic[i]))
	}
	if s.Variadic {
		b.WriteByte('+')
	}
	b.WriteByte(':')
	b.WriteString(setCode(s.Result, s.ResultGeneric))
	b.WriteByte('>')
	return b.String()
}

func setCode(set types.TypeSet, generic bool) string {
	if generic {
		if set == types.SetNumeric {
			return "n"
		}
		return "x"
	}
	if t, ok := set.Single(); ok {
		return string("?ifbsy"[t])
	}
	var b strings.Builder
	b.WriteByte('(')
	for _, t := range set.Members() {
		b.WriteByte("?ifbsy"[t])
	}
	b.WriteByte(')')
	return b.String()
}

// Describe renders a human-readable prototype like "atan2(float, float): float".
func (s *Signature) Describe(name string) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
		if s.Variadic && i == len(s.Params)-1 {
			b.WriteString("...")
		}
	}
	b.WriteString("): ")
	b.WriteString(s.Result.String())
	return b.String()
}
