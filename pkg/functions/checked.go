package functions

import (
	"math"
	"math/bits"

	"github.com/sandrolain/gomathex/pkg/types"
)

// Checked integer arithmetic shared by operators and built-ins. Every helper
// fails with an ErrCodeOverflow evaluation error instead of wrapping.

func overflow(op string, a, b int64) error {
	return types.Evalf(types.ErrCodeOverflow, "integer overflow in %d %s %d", a, op, b)
}

// AddInt returns a+b.
func AddInt(a, b int64) (int64, error) {
	c := a + b
	if (c > a) != (b > 0) {
		return 0, overflow("+", a, b)
	}
	return c, nil
}

// SubInt returns a-b.
func SubInt(a, b int64) (int64, error) {
	c := a - b
	if (c < a) != (b > 0) {
		return 0, overflow("-", a, b)
	}
	return c, nil
}

// MulInt returns a*b.
func MulInt(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	c := a * b
	if c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, overflow("*", a, b)
	}
	return c, nil
}

// DivInt returns a/b truncated toward zero.
func DivInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, types.Evalf(types.ErrCodeDivisionByZero, "integer division by zero")
	}
	if a == math.MinInt64 && b == -1 {
		return 0, overflow("/", a, b)
	}
	return a / b, nil
}

// ModInt returns the remainder of a/b with the sign of a.
func ModInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, types.Evalf(types.ErrCodeDivisionByZero, "integer modulo by zero")
	}
	if b == -1 {
		return 0, nil
	}
	return a % b, nil
}

// NegInt returns -a.
func NegInt(a int64) (int64, error) {
	if a == math.MinInt64 {
		return 0, types.Evalf(types.ErrCodeOverflow, "integer overflow in -%d", a)
	}
	return -a, nil
}

// PowInt returns base**exp by repeated squaring. Negative exponents fail
// since the result is not an integer.
func PowInt(base, exp int64) (int64, error) {
	if exp < 0 {
		return 0, types.Evalf(types.ErrCodeDomain, "negative integer exponent %d", exp)
	}
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			r, err := MulInt(result, base)
			if err != nil {
				return 0, overflow("**", base, exp)
			}
			result = r
		}
		exp >>= 1
		if exp > 0 {
			b, err := MulInt(base, base)
			if err != nil {
				return 0, overflow("**", base, exp)
			}
			base = b
		}
	}
	return result, nil
}

// ShiftInt shifts a left (n > 0) or right (n < 0) arithmetically. Shift
// counts of 64 or more saturate to 0 or -1.
func ShiftInt(a, n int64) int64 {
	switch {
	case n >= 64:
		return 0
	case n >= 0:
		return a << uint(n)
	case n <= -64:
		if a < 0 {
			return -1
		}
		return 0
	default:
		return a >> uint(-n)
	}
}

// PopCount returns the number of set bits in the two's complement form of a.
func PopCount(a int64) int {
	return bits.OnesCount64(uint64(a))
}
