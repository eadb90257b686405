package functions

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gomathex/pkg/types"
)

func TestParseSignature(t *testing.T) {
	tests := []struct {
		sig      string
		params   int
		variadic bool
		result   types.TypeSet
		wantErr  bool
	}{
		{sig: "<f:f>", params: 1, result: types.SetFloat},
		{sig: "<nn:n>", params: 2, result: types.SetNumeric},
		{sig: "<sii:s>", params: 3, result: types.SetString},
		{sig: "<n+:n>", params: 1, variadic: true, result: types.SetNumeric},
		{sig: "<(sy):i>", params: 1, result: types.SetInteger},
		{sig: "<:f>", params: 0, result: types.SetFloat},
		{sig: "f:f", wantErr: true},
		{sig: "<ff>", wantErr: true},
		{sig: "<q:f>", wantErr: true},
		{sig: "<f+f:f>", wantErr: true},
		{sig: "<(sy:i>", wantErr: true},
		{sig: "<f:n>", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.sig, func(t *testing.T) {
			s, err := ParseSignature(tt.sig)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, s.Params, tt.params)
			assert.Equal(t, tt.variadic, s.Variadic)
			assert.Equal(t, tt.result, s.Result)
			assert.Equal(t, tt.sig, s.String())
		})
	}
}

func TestSignatureResultSet(t *testing.T) {
	s, err := ParseSignature("<nn:n>")
	require.NoError(t, err)

	assert.Equal(t, types.SetInteger, s.ResultSet([]types.TypeSet{types.SetInteger, types.SetInteger}))
	assert.Equal(t, types.SetFloat, s.ResultSet([]types.TypeSet{types.SetInteger, types.SetFloat}))
	assert.Equal(t, types.SetNumeric, s.ResultSet([]types.TypeSet{types.SetNumeric, types.SetInteger}))

	cond, err := ParseSignature("<bxx:x>")
	require.NoError(t, err)
	assert.Equal(t, types.SetString, cond.ResultSet([]types.TypeSet{types.SetBoolean, types.SetString, types.SetString}))
}

func TestSignatureDescribe(t *testing.T) {
	s, err := ParseSignature("<ff:f>")
	require.NoError(t, err)
	assert.Equal(t, "atan2(float, float): float", s.Describe("atan2"))

	v, err := ParseSignature("<n+:n>")
	require.NoError(t, err)
	assert.Equal(t, "max(numeric...): numeric", v.Describe("max"))
}

func TestTableLookup(t *testing.T) {
	table := NewBuiltinTable()

	d, err := table.Lookup("round", 1)
	require.NoError(t, err)
	assert.Equal(t, "<n:n>", d.Signature)

	d, err = table.Lookup("round", 2)
	require.NoError(t, err)
	assert.Equal(t, "<fi:f>", d.Signature)

	d, err = table.Lookup("max", 5)
	require.NoError(t, err)
	assert.True(t, d.Sig().Variadic)

	_, err = table.Lookup("frobnicate", 1)
	assert.ErrorIs(t, err, types.ErrFunctionNotFound)

	_, err = table.Lookup("sin", 2)
	assert.ErrorIs(t, err, types.ErrArityMismatch)

	_, err = table.Lookup("Sin", 1)
	assert.ErrorIs(t, err, types.ErrFunctionNotFound, "names are case-sensitive")

	d, err = table.Lookup("if", 3)
	require.NoError(t, err)
	assert.True(t, d.IsConditional())

	d, err = table.Lookup("rand", 0)
	require.NoError(t, err)
	assert.False(t, d.Foldable())
}

func TestTableRegisterReplacesSameArity(t *testing.T) {
	table := NewTable()
	one := func(context.Context, ...types.Value) (types.Value, error) { return types.Int(1), nil }
	two := func(context.Context, ...types.Value) (types.Value, error) { return types.Int(2), nil }

	require.NoError(t, table.Register(Definition{Name: "k", Signature: "<:i>", Fn: one}))
	require.NoError(t, table.Register(Definition{Name: "k", Signature: "<:i>", Fn: two}))
	assert.Equal(t, 1, table.Len())

	d, err := table.Lookup("k", 0)
	require.NoError(t, err)
	v, err := d.Fn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Int)
}

func TestTableRegisterValidation(t *testing.T) {
	table := NewTable()
	fn := func(context.Context, ...types.Value) (types.Value, error) { return types.Int(0), nil }

	err := table.Register(
		Definition{Name: "good", Signature: "<i:i>", Fn: fn},
		Definition{Name: "bad", Signature: "<z:i>", Fn: fn},
	)
	require.Error(t, err)
	assert.False(t, table.Has("good"), "no definition is added when one is invalid")

	assert.Error(t, table.Register(Definition{Signature: "<i:i>", Fn: fn}))
	assert.Error(t, table.Register(Definition{Name: "nofn", Signature: "<i:i>"}))
}

func TestTableFreeze(t *testing.T) {
	table := NewTable()
	fn := func(context.Context, ...types.Value) (types.Value, error) { return types.Int(0), nil }

	require.NoError(t, table.Register(Definition{Name: "a", Signature: "<:i>", Fn: fn}))
	table.Freeze()
	table.Freeze()
	assert.True(t, table.Frozen())

	err := table.Register(Definition{Name: "b", Signature: "<:i>", Fn: fn})
	assert.ErrorIs(t, err, types.ErrTableFrozen)

	err = table.RegisterCatalog(Definitions{{Name: "c", Signature: "<:i>", Fn: fn}})
	assert.ErrorIs(t, err, types.ErrTableFrozen)
	assert.False(t, table.Has("b"))
}

func TestRegisterCatalogError(t *testing.T) {
	table := NewTable()
	boom := errors.New("boom")
	err := table.RegisterCatalog(CatalogFunc(func() ([]Definition, error) { return nil, boom }))
	assert.ErrorIs(t, err, boom)
}

func TestPrototypesSorted(t *testing.T) {
	protos := NewBuiltinTable().Prototypes()
	require.NotEmpty(t, protos)
	assert.Contains(t, protos, "atan2(float, float): float - arc tangent of y/x")
	for i := 1; i < len(protos); i++ {
		assert.LessOrEqual(t, protos[i-1][:1], protos[i][:1])
	}
}

func call(t *testing.T, name string, args ...types.Value) (types.Value, error) {
	t.Helper()
	d, err := NewBuiltinTable().Lookup(name, len(args))
	require.NoError(t, err)
	return d.Fn(context.Background(), args...)
}

func TestBuiltins(t *testing.T) {
	tests := []struct {
		name string
		fn   string
		args []types.Value
		want types.Value
	}{
		{"pow int", "pow", []types.Value{types.Int(2), types.Int(10)}, types.Int(1024)},
		{"pow float", "pow", []types.Value{types.Float(2), types.Float(0.5)}, types.Float(math.Sqrt2)},
		{"abs int", "abs", []types.Value{types.Int(-3)}, types.Int(3)},
		{"abs float", "abs", []types.Value{types.Float(-1.5)}, types.Float(1.5)},
		{"sign", "sign", []types.Value{types.Float(-0.2)}, types.Int(-1)},
		{"floor keeps int", "floor", []types.Value{types.Int(7)}, types.Int(7)},
		{"floor", "floor", []types.Value{types.Float(-1.5)}, types.Float(-2)},
		{"round half away", "round", []types.Value{types.Float(2.5)}, types.Float(3)},
		{"round decimals", "round", []types.Value{types.Float(3.14159), types.Int(2)}, types.Float(3.14)},
		{"min int", "min", []types.Value{types.Int(3), types.Int(-1), types.Int(2)}, types.Int(-1)},
		{"max float", "max", []types.Value{types.Float(3), types.Float(9.5)}, types.Float(9.5)},
		{"sum int", "sum", []types.Value{types.Int(1), types.Int(2), types.Int(3)}, types.Int(6)},
		{"avg", "avg", []types.Value{types.Int(1), types.Int(2)}, types.Float(1.5)},
		{"log base", "log", []types.Value{types.Float(8), types.Float(2)}, types.Float(3)},
		{"substring", "substring", []types.Value{types.String("hello"), types.Int(1), types.Int(3)}, types.String("ell")},
		{"substring to end", "substring", []types.Value{types.String("héllo"), types.Int(1)}, types.String("éllo")},
		{"indexof", "indexof", []types.Value{types.String("héllo"), types.String("l")}, types.Int(2)},
		{"indexof from", "indexof", []types.Value{types.String("hello"), types.String("l"), types.Int(3)}, types.Int(3)},
		{"indexof missing", "indexof", []types.Value{types.String("hello"), types.String("z")}, types.Int(-1)},
		{"len string", "len", []types.Value{types.String("héllo")}, types.Int(5)},
		{"len bytes", "len", []types.Value{types.Bytes([]byte{1, 2})}, types.Int(2)},
		{"upper", "upper", []types.Value{types.String("abc")}, types.String("ABC")},
		{"trim", "trim", []types.Value{types.String("  a ")}, types.String("a")},
		{"replace", "replace", []types.Value{types.String("a-b-c"), types.String("-"), types.String("+")}, types.String("a+b+c")},
		{"concat", "concat", []types.Value{types.String("a"), types.String("b"), types.String("c")}, types.String("abc")},
		{"hex int", "hex", []types.Value{types.Int(255)}, types.String("ff")},
		{"hex bytes", "hex", []types.Value{types.Bytes([]byte{0x0a, 0xff})}, types.String("0aff")},
		{"bitcount", "bitcount", []types.Value{types.Int(7)}, types.Int(3)},
		{"int of bool", "int", []types.Value{types.Bool(true)}, types.Int(1)},
		{"int of float", "int", []types.Value{types.Float(-2.9)}, types.Int(-2)},
		{"int of string", "int", []types.Value{types.String("0x10")}, types.Int(16)},
		{"float of string", "float", []types.Value{types.String("2.5")}, types.Float(2.5)},
		{"bool of int", "bool", []types.Value{types.Int(0)}, types.Bool(false)},
		{"str", "str", []types.Value{types.Float(1.5)}, types.String("1.5")},
		{"if", "if", []types.Value{types.Bool(false), types.Int(1), types.Int(2)}, types.Int(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(t, tt.fn, tt.args...)
			require.NoError(t, err)
			if tt.want.Type == types.TypeFloat {
				require.Equal(t, types.TypeFloat, got.Type)
				assert.InDelta(t, tt.want.Float, got.Float, 1e-12)
				return
			}
			assert.True(t, tt.want.Equal(got), "got %s want %s", got.GoString(), tt.want.GoString())
		})
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   string
		args []types.Value
		want error
	}{
		{"sqrt negative", "sqrt", []types.Value{types.Float(-1)}, types.ErrEvaluation},
		{"log zero", "log", []types.Value{types.Float(0)}, types.ErrEvaluation},
		{"asin domain", "asin", []types.Value{types.Float(2)}, types.ErrEvaluation},
		{"pow negative exponent", "pow", []types.Value{types.Int(2), types.Int(-1)}, types.ErrEvaluation},
		{"pow overflow", "pow", []types.Value{types.Int(10), types.Int(19)}, types.ErrOverflow},
		{"abs min int", "abs", []types.Value{types.Int(math.MinInt64)}, types.ErrOverflow},
		{"sum overflow", "sum", []types.Value{types.Int(math.MaxInt64), types.Int(1)}, types.ErrOverflow},
		{"substring out of range", "substring", []types.Value{types.String("abc"), types.Int(2), types.Int(5)}, types.ErrEvaluation},
		{"substring negative", "substring", []types.Value{types.String("abc"), types.Int(-1)}, types.ErrEvaluation},
		{"int of bad string", "int", []types.Value{types.String("x")}, types.ErrEvaluation},
		{"rand bad bound", "rand", []types.Value{types.Int(0)}, types.ErrEvaluation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := call(t, tt.fn, tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRandRanges(t *testing.T) {
	for i := 0; i < 100; i++ {
		v, err := call(t, "rand")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v.Float, 0.0)
		assert.Less(t, v.Float, 1.0)

		v, err = call(t, "rand", types.Int(-2), types.Int(2))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v.Int, int64(-2))
		assert.LessOrEqual(t, v.Int, int64(2))
	}
}

func TestCheckedArithmetic(t *testing.T) {
	_, err := AddInt(math.MaxInt64, 1)
	assert.ErrorIs(t, err, types.ErrOverflow)
	_, err = SubInt(math.MinInt64, 1)
	assert.ErrorIs(t, err, types.ErrOverflow)
	_, err = MulInt(math.MaxInt64/2+1, 2)
	assert.ErrorIs(t, err, types.ErrOverflow)
	_, err = MulInt(math.MinInt64, -1)
	assert.ErrorIs(t, err, types.ErrOverflow)
	_, err = DivInt(1, 0)
	assert.ErrorIs(t, err, types.ErrDivisionByZero)
	_, err = ModInt(1, 0)
	assert.ErrorIs(t, err, types.ErrDivisionByZero)

	r, err := PowInt(3, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(81), r)
	r, err = PowInt(-2, 63)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), r)

	assert.Equal(t, int64(8), ShiftInt(1, 3))
	assert.Equal(t, int64(-1), ShiftInt(-8, -70))
	assert.Equal(t, int64(0), ShiftInt(1, 64))
}
