package functions

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/sandrolain/gomathex/pkg/types"
)

func mathBuiltins() []Definition {
	return []Definition{
		unaryFloat("sin", math.Sin, nil),
		unaryFloat("cos", math.Cos, nil),
		unaryFloat("tan", math.Tan, nil),
		unaryFloat("asin", math.Asin, unitDomain),
		unaryFloat("acos", math.Acos, unitDomain),
		unaryFloat("atan", math.Atan, nil),
		unaryFloat("sqrt", math.Sqrt, nonNegative),
		unaryFloat("exp", math.Exp, nil),
		unaryFloat("log", math.Log, positive),
		unaryFloat("log10", math.Log10, positive),
		{Name: "atan2", Signature: "<ff:f>", Fn: fnAtan2, Description: "arc tangent of y/x"},
		{Name: "log", Signature: "<ff:f>", Fn: fnLogBase, Description: "logarithm of x in base b"},
		{Name: "abs", Signature: "<n:n>", Fn: fnAbs},
		{Name: "sign", Signature: "<n:i>", Fn: fnSign, Description: "-1, 0 or 1"},
		{Name: "floor", Signature: "<n:n>", Fn: roundingFunc(math.Floor)},
		{Name: "ceil", Signature: "<n:n>", Fn: roundingFunc(math.Ceil)},
		{Name: "trunc", Signature: "<n:n>", Fn: roundingFunc(math.Trunc)},
		{Name: "round", Signature: "<n:n>", Fn: roundingFunc(math.Round), Description: "round half away from zero"},
		{Name: "round", Signature: "<fi:f>", Fn: fnRoundDecimals, Description: "round to n decimal places"},
		{Name: "min", Signature: "<n+:n>", Fn: fnMin},
		{Name: "max", Signature: "<n+:n>", Fn: fnMax},
		{Name: "sum", Signature: "<n+:n>", Fn: fnSum},
		{Name: "avg", Signature: "<n+:f>", Fn: fnAvg},
		{Name: "pow", Signature: "<nn:n>", Fn: fnPow},
		{Name: "rand", Signature: "<:f>", Fn: fnRand, Impure: true, Description: "uniform in [0, 1)"},
		{Name: "rand", Signature: "<i:i>", Fn: fnRandN, Impure: true, Description: "uniform in [0, n)"},
		{Name: "rand", Signature: "<ii:i>", Fn: fnRandRange, Impure: true, Description: "uniform in [a, b]"},
		{Name: "bitcount", Signature: "<(iy):i>", Fn: fnBitCount, Description: "number of set bits"},
	}
}

type domainCheck func(x float64) bool

func unitDomain(x float64) bool  { return x >= -1 && x <= 1 }
func nonNegative(x float64) bool { return x >= 0 }
func positive(x float64) bool    { return x > 0 }

func unaryFloat(name string, fn func(float64) float64, domain domainCheck) Definition {
	return Definition{
		Name:      name,
		Signature: "<f:f>",
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			x := args[0].Float
			if domain != nil && !domain(x) {
				return types.Value{}, types.Evalf(types.ErrCodeDomain, "%s: argument %v out of domain", name, x)
			}
			return types.Float(fn(x)), nil
		},
	}
}

func fnAtan2(_ context.Context, args ...types.Value) (types.Value, error) {
	return types.Float(math.Atan2(args[0].Float, args[1].Float)), nil
}

func fnLogBase(_ context.Context, args ...types.Value) (types.Value, error) {
	x, base := args[0].Float, args[1].Float
	if x <= 0 || base <= 0 || base == 1 {
		return types.Value{}, types.Evalf(types.ErrCodeDomain, "log: arguments (%v, %v) out of domain", x, base)
	}
	return types.Float(math.Log(x) / math.Log(base)), nil
}

func fnAbs(_ context.Context, args ...types.Value) (types.Value, error) {
	v := args[0]
	if v.Type == types.TypeInteger {
		if v.Int >= 0 {
			return v, nil
		}
		n, err := NegInt(v.Int)
		if err != nil {
			return types.Value{}, err
		}
		return types.Int(n), nil
	}
	return types.Float(math.Abs(v.Float)), nil
}

func fnSign(_ context.Context, args ...types.Value) (types.Value, error) {
	x := args[0].AsFloat()
	switch {
	case x > 0:
		return types.Int(1), nil
	case x < 0:
		return types.Int(-1), nil
	default:
		return types.Int(0), nil
	}
}

// roundingFunc leaves integers untouched.
func roundingFunc(fn func(float64) float64) Func {
	return func(_ context.Context, args ...types.Value) (types.Value, error) {
		if args[0].Type == types.TypeInteger {
			return args[0], nil
		}
		return types.Float(fn(args[0].Float)), nil
	}
}

func fnRoundDecimals(_ context.Context, args ...types.Value) (types.Value, error) {
	x, decimals := args[0].Float, args[1].Int
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return args[0], nil
	}
	if decimals > 308 || decimals < -308 {
		return types.Value{}, types.Evalf(types.ErrCodeDomain, "round: %d decimal places out of range", decimals)
	}
	shift := math.Pow(10, float64(decimals))
	return types.Float(math.Round(x*shift) / shift), nil
}

func fnMin(ctx context.Context, args ...types.Value) (types.Value, error) {
	return extremum(ctx, args, func(a, b types.Value) bool { return less(b, a) })
}

func fnMax(ctx context.Context, args ...types.Value) (types.Value, error) {
	return extremum(ctx, args, func(a, b types.Value) bool { return less(a, b) })
}

func less(a, b types.Value) bool {
	if a.Type == types.TypeInteger && b.Type == types.TypeInteger {
		return a.Int < b.Int
	}
	return a.AsFloat() < b.AsFloat()
}

// extremum returns the argument that no other argument replaces.
func extremum(ctx context.Context, args []types.Value, replace func(best, candidate types.Value) bool) (types.Value, error) {
	best := args[0]
	for _, a := range args[1:] {
		if err := ctx.Err(); err != nil {
			return types.Value{}, types.Canceled(err)
		}
		if replace(best, a) {
			best = a
		}
	}
	return best, nil
}

func fnSum(ctx context.Context, args ...types.Value) (types.Value, error) {
	if args[0].Type == types.TypeInteger {
		var total int64
		for _, a := range args {
			if err := ctx.Err(); err != nil {
				return types.Value{}, types.Canceled(err)
			}
			t, err := AddInt(total, a.Int)
			if err != nil {
				return types.Value{}, err
			}
			total = t
		}
		return types.Int(total), nil
	}
	var total float64
	for _, a := range args {
		if err := ctx.Err(); err != nil {
			return types.Value{}, types.Canceled(err)
		}
		total += a.AsFloat()
	}
	return types.Float(total), nil
}

func fnAvg(ctx context.Context, args ...types.Value) (types.Value, error) {
	var total float64
	for _, a := range args {
		if err := ctx.Err(); err != nil {
			return types.Value{}, types.Canceled(err)
		}
		total += a.AsFloat()
	}
	return types.Float(total / float64(len(args))), nil
}

func fnPow(_ context.Context, args ...types.Value) (types.Value, error) {
	if args[0].Type == types.TypeInteger && args[1].Type == types.TypeInteger {
		r, err := PowInt(args[0].Int, args[1].Int)
		if err != nil {
			return types.Value{}, err
		}
		return types.Int(r), nil
	}
	return types.Float(math.Pow(args[0].AsFloat(), args[1].AsFloat())), nil
}

func fnRand(_ context.Context, _ ...types.Value) (types.Value, error) {
	return types.Float(rand.Float64()), nil
}

func fnRandN(_ context.Context, args ...types.Value) (types.Value, error) {
	n := args[0].Int
	if n <= 0 {
		return types.Value{}, types.Evalf(types.ErrCodeInvalidArgument, "rand: bound %d must be positive", n)
	}
	return types.Int(rand.Int64N(n)), nil
}

func fnRandRange(_ context.Context, args ...types.Value) (types.Value, error) {
	lo, hi := args[0].Int, args[1].Int
	if hi < lo {
		return types.Value{}, types.Evalf(types.ErrCodeInvalidArgument, "rand: empty range [%d, %d]", lo, hi)
	}
	span := uint64(hi) - uint64(lo)
	if span == math.MaxUint64 {
		return types.Int(int64(rand.Uint64())), nil
	}
	return types.Int(lo + int64(rand.Uint64N(span+1))), nil
}

func fnBitCount(_ context.Context, args ...types.Value) (types.Value, error) {
	v := args[0]
	if v.Type == types.TypeInteger {
		return types.Int(int64(PopCount(v.Int))), nil
	}
	n := 0
	for _, b := range v.Bytes {
		n += PopCount(int64(b))
	}
	return types.Int(int64(n)), nil
}
