// Package extnumeric provides numeric functions beyond the built-ins.
package extnumeric

import (
	"context"
	"math"
	"sort"

	"github.com/sandrolain/gomathex/pkg/ext/extutil"
	"github.com/sandrolain/gomathex/pkg/functions"
	"github.com/sandrolain/gomathex/pkg/types"
)

// All returns all extended numeric function definitions.
func All() []functions.Definition {
	return []functions.Definition{
		Clamp(),
		Hypot(),
		Lerp(),
		Pi(),
		E(),
		Median(),
		Variance(),
		Stddev(),
		Percentile(),
		Mode(),
	}
}

// Clamp returns the definition for clamp(n, min, max).
func Clamp() functions.Definition {
	return functions.Definition{
		Name:        "clamp",
		Signature:   "<nnn:n>",
		Description: "n limited to [min, max]",
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			n, lo, hi := args[0], args[1], args[2]
			if n.Type == types.TypeInteger {
				if lo.Int > hi.Int {
					return types.Value{}, extutil.Invalid("clamp", "min %d greater than max %d", lo.Int, hi.Int)
				}
				return types.Int(min(max(n.Int, lo.Int), hi.Int)), nil
			}
			if lo.Float > hi.Float {
				return types.Value{}, extutil.Invalid("clamp", "min %g greater than max %g", lo.Float, hi.Float)
			}
			return types.Float(math.Min(math.Max(n.Float, lo.Float), hi.Float)), nil
		},
	}
}

// Hypot returns the definition for hypot(x, y).
func Hypot() functions.Definition {
	return functions.Definition{
		Name:        "hypot",
		Signature:   "<ff:f>",
		Description: "sqrt(x*x + y*y) without undue overflow",
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			return types.Float(math.Hypot(args[0].Float, args[1].Float)), nil
		},
	}
}

// Lerp returns the definition for lerp(a, b, t).
func Lerp() functions.Definition {
	return functions.Definition{
		Name:        "lerp",
		Signature:   "<fff:f>",
		Description: "linear interpolation from a to b",
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			a, b, t := args[0].Float, args[1].Float, args[2].Float
			return types.Float(a + (b-a)*t), nil
		},
	}
}

// Pi returns the definition for pi().
func Pi() functions.Definition {
	return constant("pi", math.Pi)
}

// E returns the definition for e().
func E() functions.Definition {
	return constant("e", math.E)
}

func constant(name string, v float64) functions.Definition {
	return functions.Definition{
		Name:      name,
		Signature: "<:f>",
		Fn: func(_ context.Context, _ ...types.Value) (types.Value, error) {
			return types.Float(v), nil
		},
	}
}

// Median returns the definition for median(n...).
func Median() functions.Definition {
	return functions.Definition{
		Name:      "median",
		Signature: "<n+:f>",
		Fn: func(ctx context.Context, args ...types.Value) (types.Value, error) {
			nums, err := sorted(ctx, args)
			if err != nil {
				return types.Value{}, err
			}
			mid := len(nums) / 2
			if len(nums)%2 == 0 {
				return types.Float((nums[mid-1] + nums[mid]) / 2), nil
			}
			return types.Float(nums[mid]), nil
		},
	}
}

// Variance returns the definition for variance(n...), the population
// variance.
func Variance() functions.Definition {
	return functions.Definition{
		Name:      "variance",
		Signature: "<n+:f>",
		Fn: func(ctx context.Context, args ...types.Value) (types.Value, error) {
			nums, err := extutil.Floats(ctx, args)
			if err != nil {
				return types.Value{}, err
			}
			return types.Float(variance(nums)), nil
		},
	}
}

// Stddev returns the definition for stddev(n...), the population standard
// deviation.
func Stddev() functions.Definition {
	return functions.Definition{
		Name:      "stddev",
		Signature: "<n+:f>",
		Fn: func(ctx context.Context, args ...types.Value) (types.Value, error) {
			nums, err := extutil.Floats(ctx, args)
			if err != nil {
				return types.Value{}, err
			}
			return types.Float(math.Sqrt(variance(nums))), nil
		},
	}
}

// Percentile returns the definition for percentile(p, n...).
// p is in range [0, 100]; values between ranks are interpolated.
func Percentile() functions.Definition {
	return functions.Definition{
		Name:      "percentile",
		Signature: "<fn+:f>",
		Fn: func(ctx context.Context, args ...types.Value) (types.Value, error) {
			p := args[0].Float
			if p < 0 || p > 100 || math.IsNaN(p) {
				return types.Value{}, extutil.Invalid("percentile", "p must be between 0 and 100, got %g", p)
			}
			nums, err := sorted(ctx, args[1:])
			if err != nil {
				return types.Value{}, err
			}
			idx := p / 100 * float64(len(nums)-1)
			lo := int(math.Floor(idx))
			hi := int(math.Ceil(idx))
			if lo == hi {
				return types.Float(nums[lo]), nil
			}
			frac := idx - float64(lo)
			return types.Float(nums[lo]*(1-frac) + nums[hi]*frac), nil
		},
	}
}

// Mode returns the definition for mode(n...). When several values are
// equally frequent the first of them to appear wins.
func Mode() functions.Definition {
	return functions.Definition{
		Name:      "mode",
		Signature: "<n+:n>",
		Fn: func(ctx context.Context, args ...types.Value) (types.Value, error) {
			nums, err := extutil.Floats(ctx, args)
			if err != nil {
				return types.Value{}, err
			}
			counts := make(map[float64]int, len(nums))
			top := 0
			for _, n := range nums {
				counts[n]++
				top = max(top, counts[n])
			}
			best := 0
			for i, n := range nums {
				if counts[n] == top {
					best = i
					break
				}
			}
			return args[best], nil
		},
	}
}

func sorted(ctx context.Context, args []types.Value) ([]float64, error) {
	nums, err := extutil.Floats(ctx, args)
	if err != nil {
		return nil, err
	}
	sort.Float64s(nums)
	return nums, nil
}

func variance(nums []float64) float64 {
	var mean float64
	for _, n := range nums {
		mean += n
	}
	mean /= float64(len(nums))
	var sum float64
	for _, n := range nums {
		d := n - mean
		sum += d * d
	}
	return sum / float64(len(nums))
}
