package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueType identifies one of the supported value types.
type ValueType uint8

// Supported value types. TypeUnknown is the zero value and means "not resolved".
const (
	TypeUnknown ValueType = iota
	TypeInteger
	TypeFloat
	TypeBoolean
	TypeString
	TypeByteArray
)

// String returns the lowercase type name used in prototypes and messages.
func (t ValueType) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeBoolean:
		return "boolean"
	case TypeString:
		return "string"
	case TypeByteArray:
		return "bytes"
	default:
		return "unknown"
	}
}

// Set returns the single-element TypeSet for t.
func (t ValueType) Set() TypeSet {
	if t == TypeUnknown {
		return 0
	}
	return TypeSet(1 << (t - 1))
}

// IsNumeric reports whether t is Integer or Float.
func (t ValueType) IsNumeric() bool {
	return t == TypeInteger || t == TypeFloat
}

// TypeSet is a bitmask of concrete value types.
type TypeSet uint8

// Commonly used type sets.
const (
	SetInteger   = TypeSet(1 << (TypeInteger - 1))
	SetFloat     = TypeSet(1 << (TypeFloat - 1))
	SetBoolean   = TypeSet(1 << (TypeBoolean - 1))
	SetString    = TypeSet(1 << (TypeString - 1))
	SetByteArray = TypeSet(1 << (TypeByteArray - 1))

	SetNumeric = SetInteger | SetFloat
	SetAny     = SetNumeric | SetBoolean | SetString | SetByteArray
)

// Has reports whether t is a member of s.
func (s TypeSet) Has(t ValueType) bool {
	return t != TypeUnknown && s&t.Set() != 0
}

// Single returns the only member of s, or (TypeUnknown, false) when s is
// empty or has more than one member.
func (s TypeSet) Single() (ValueType, bool) {
	switch s {
	case SetInteger:
		return TypeInteger, true
	case SetFloat:
		return TypeFloat, true
	case SetBoolean:
		return TypeBoolean, true
	case SetString:
		return TypeString, true
	case SetByteArray:
		return TypeByteArray, true
	default:
		return TypeUnknown, false
	}
}

// Members returns the concrete types in s in declaration order.
func (s TypeSet) Members() []ValueType {
	var out []ValueType
	for t := TypeInteger; t <= TypeByteArray; t++ {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// SubsetOf reports whether every member of s is also in other.
func (s TypeSet) SubsetOf(other TypeSet) bool {
	return s&^other == 0
}

// String renders the set as "integer|float".
func (s TypeSet) String() string {
	if s == 0 {
		return "unknown"
	}
	if s == SetAny {
		return "any"
	}
	if s == SetNumeric {
		return "numeric"
	}
	members := s.Members()
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.String()
	}
	return strings.Join(names, "|")
}

// Value is a typed runtime value. The zero Value has TypeUnknown.
type Value struct {
	Type  ValueType
	Int   int64
	Float float64
	Bool  bool
	Str   string
	Bytes []byte
}

// Int returns an Integer value.
func Int(v int64) Value { return Value{Type: TypeInteger, Int: v} }

// Float returns a Float value.
func Float(v float64) Value { return Value{Type: TypeFloat, Float: v} }

// Bool returns a Boolean value.
func Bool(v bool) Value { return Value{Type: TypeBoolean, Bool: v} }

// String returns a String value.
func String(v string) Value { return Value{Type: TypeString, Str: v} }

// Bytes returns a ByteArray value holding a copy of v.
func Bytes(v []byte) Value {
	return Value{Type: TypeByteArray, Bytes: bytes.Clone(v)}
}

// FromGo converts a Go value into a Value.
func FromGo(v any) (Value, error) {
	switch x := v.(type) {
	case Value:
		return x, nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d overflows integer", ErrIncompatibleType, x)
		}
		return Int(int64(x)), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d overflows integer", ErrIncompatibleType, x)
		}
		return Int(int64(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case []byte:
		return Bytes(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrIncompatibleType, err)
		}
		return Float(f), nil
	case nil:
		return Value{}, fmt.Errorf("%w: nil value", ErrIncompatibleType)
	default:
		return Value{}, fmt.Errorf("%w: unsupported Go type %T", ErrIncompatibleType, v)
	}
}

// Interface returns the Go representation of v: int64, float64, bool,
// string or []byte.
func (v Value) Interface() any {
	switch v.Type {
	case TypeInteger:
		return v.Int
	case TypeFloat:
		return v.Float
	case TypeBoolean:
		return v.Bool
	case TypeString:
		return v.Str
	case TypeByteArray:
		return bytes.Clone(v.Bytes)
	default:
		return nil
	}
}

// Clone returns v with its own copy of any byte array.
func (v Value) Clone() Value {
	if v.Type == TypeByteArray {
		v.Bytes = bytes.Clone(v.Bytes)
	}
	return v
}

// AsFloat widens a numeric value to float64.
func (v Value) AsFloat() float64 {
	if v.Type == TypeInteger {
		return float64(v.Int)
	}
	return v.Float
}

// Equal reports whether v and other hold the same type and value.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case TypeInteger:
		return v.Int == other.Int
	case TypeFloat:
		return v.Float == other.Float || (math.IsNaN(v.Float) && math.IsNaN(other.Float))
	case TypeBoolean:
		return v.Bool == other.Bool
	case TypeString:
		return v.Str == other.Str
	case TypeByteArray:
		return bytes.Equal(v.Bytes, other.Bytes)
	default:
		return true
	}
}

// String renders v with the default formatting: integers in base 10, floats in
// the shortest round-trip form, byte arrays as "#" followed by uppercase hex.
func (v Value) String() string {
	switch v.Type {
	case TypeInteger:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case TypeBoolean:
		return strconv.FormatBool(v.Bool)
	case TypeString:
		return v.Str
	case TypeByteArray:
		return "#" + strings.ToUpper(hex.EncodeToString(v.Bytes))
	default:
		return "<unknown>"
	}
}

// GoString renders v as expression source (strings quoted).
func (v Value) GoString() string {
	if v.Type == TypeString {
		return strconv.Quote(v.Str)
	}
	return v.String()
}

// Join returns the result set of combining operands typed a and b under
// numeric widening: Integer with Integer stays Integer, anything with Float
// becomes Float. Non-numeric sets are unioned.
func Join(a, b TypeSet) TypeSet {
	if a.SubsetOf(SetNumeric) && b.SubsetOf(SetNumeric) {
		switch {
		case a == SetInteger && b == SetInteger:
			return SetInteger
		case a == SetFloat || b == SetFloat:
			return SetFloat
		default:
			return a | b
		}
	}
	return a | b
}
