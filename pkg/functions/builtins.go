package functions

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/sandrolain/gomathex/pkg/types"
)

// ConditionalName is the built-in evaluated lazily as a ternary.
const ConditionalName = "if"

// Builtins returns the definitions installed by NewBuiltinTable.
func Builtins() []Definition {
	defs := mathBuiltins()
	defs = append(defs, stringBuiltins()...)
	return append(defs, conversionBuiltins()...)
}

func conversionBuiltins() []Definition {
	return []Definition{
		{
			Name:        ConditionalName,
			Signature:   "<bxx:x>",
			Fn:          fnIf,
			Description: "then when cond is true, otherwise else",
			conditional: true,
		},
		{Name: "int", Signature: "<(ifbs):i>", Fn: fnInt, Description: "convert to integer, truncating floats"},
		{Name: "float", Signature: "<(ifbs):f>", Fn: fnFloat, Description: "convert to float"},
		{Name: "bool", Signature: "<(ibs):b>", Fn: fnBool, Description: "convert to boolean"},
		{Name: "str", Signature: "<x:s>", Fn: fnStr, Description: "default text form"},
	}
}

func fnIf(_ context.Context, args ...types.Value) (types.Value, error) {
	if args[0].Bool {
		return args[1], nil
	}
	return args[2], nil
}

func fnInt(_ context.Context, args ...types.Value) (types.Value, error) {
	v := args[0]
	switch v.Type {
	case types.TypeInteger:
		return v, nil
	case types.TypeFloat:
		if math.IsNaN(v.Float) || v.Float >= math.MaxInt64 || v.Float < math.MinInt64 {
			return types.Value{}, types.Evalf(types.ErrCodeOverflow, "int: %v out of integer range", v.Float)
		}
		return types.Int(int64(v.Float)), nil
	case types.TypeBoolean:
		if v.Bool {
			return types.Int(1), nil
		}
		return types.Int(0), nil
	default:
		s := strings.TrimSpace(v.Str)
		n, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return types.Value{}, types.Evalf(types.ErrCodeInvalidArgument, "int: cannot convert %q", v.Str).WithCause(err)
		}
		return types.Int(n), nil
	}
}

func fnFloat(_ context.Context, args ...types.Value) (types.Value, error) {
	v := args[0]
	switch v.Type {
	case types.TypeInteger:
		return types.Float(float64(v.Int)), nil
	case types.TypeFloat:
		return v, nil
	case types.TypeBoolean:
		if v.Bool {
			return types.Float(1), nil
		}
		return types.Float(0), nil
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return types.Value{}, types.Evalf(types.ErrCodeInvalidArgument, "float: cannot convert %q", v.Str).WithCause(err)
		}
		return types.Float(f), nil
	}
}

func fnBool(_ context.Context, args ...types.Value) (types.Value, error) {
	v := args[0]
	switch v.Type {
	case types.TypeInteger:
		return types.Bool(v.Int != 0), nil
	case types.TypeBoolean:
		return v, nil
	default:
		b, err := strconv.ParseBool(strings.TrimSpace(v.Str))
		if err != nil {
			return types.Value{}, types.Evalf(types.ErrCodeInvalidArgument, "bool: cannot convert %q", v.Str).WithCause(err)
		}
		return types.Bool(b), nil
	}
}

func fnStr(_ context.Context, args ...types.Value) (types.Value, error) {
	return types.String(args[0].String()), nil
}
