package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGo(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"int", 7, Int(7)},
		{"int8", int8(-3), Int(-3)},
		{"uint32", uint32(9), Int(9)},
		{"float32", float32(0.5), Float(0.5)},
		{"float64", 2.25, Float(2.25)},
		{"bool", true, Bool(true)},
		{"string", "go", String("go")},
		{"bytes", []byte{1, 2}, Bytes([]byte{1, 2})},
		{"value", Int(4), Int(4)},
		{"json integer", json.Number("42"), Int(42)},
		{"json float", json.Number("4.5"), Float(4.5)},
		{"json exponent", json.Number("1e3"), Float(1000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGo(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromGoRejects(t *testing.T) {
	for _, in := range []any{nil, uint64(math.MaxUint64), struct{}{}, []int{1}} {
		_, err := FromGo(in)
		assert.ErrorIs(t, err, ErrIncompatibleType, "%T", in)
	}
}

func TestBytesCopies(t *testing.T) {
	raw := []byte{1, 2, 3}
	v := Bytes(raw)
	raw[0] = 9
	assert.Equal(t, byte(1), v.Bytes[0])

	out := v.Interface().([]byte)
	out[1] = 9
	assert.Equal(t, byte(2), v.Bytes[1])
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v        Value
		str, src string
	}{
		{Int(-12), "-12", "-12"},
		{Float(0.1), "0.1", "0.1"},
		{Float(1e21), "1e+21", "1e+21"},
		{Bool(false), "false", "false"},
		{String(`a"b`), `a"b`, `"a\"b"`},
		{Bytes([]byte{0x0a, 0xff}), "#0AFF", "#0AFF"},
		{Value{}, "<unknown>", "<unknown>"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.str, tt.v.String())
		assert.Equal(t, tt.src, tt.v.GoString())
	}
}

func TestValueEqual(t *testing.T) {
	assert.True(t, Int(1).Equal(Int(1)))
	assert.False(t, Int(1).Equal(Float(1)))
	assert.True(t, Float(math.NaN()).Equal(Float(math.NaN())))
	assert.True(t, Bytes([]byte{1}).Equal(Bytes([]byte{1})))
	assert.False(t, String("a").Equal(String("b")))
}

func TestTypeSet(t *testing.T) {
	assert.Equal(t, "numeric", SetNumeric.String())
	assert.Equal(t, "any", SetAny.String())
	assert.Equal(t, "unknown", TypeSet(0).String())
	assert.Equal(t, "boolean|string", (SetBoolean | SetString).String())

	single, ok := SetFloat.Single()
	assert.True(t, ok)
	assert.Equal(t, TypeFloat, single)
	_, ok = SetNumeric.Single()
	assert.False(t, ok)

	assert.True(t, SetInteger.SubsetOf(SetNumeric))
	assert.False(t, SetNumeric.SubsetOf(SetInteger))
	assert.Equal(t, []ValueType{TypeInteger, TypeFloat}, SetNumeric.Members())
	assert.False(t, SetAny.Has(TypeUnknown))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, SetInteger, Join(SetInteger, SetInteger))
	assert.Equal(t, SetFloat, Join(SetInteger, SetFloat))
	assert.Equal(t, SetNumeric, Join(SetInteger, SetNumeric))
	assert.Equal(t, SetString|SetByteArray, Join(SetString, SetByteArray))
}
