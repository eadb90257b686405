package types

import "math"

// ToleranceMode is the comparison slack selected from a Tolerance.
type ToleranceMode uint8

const (
	// ToleranceExact compares without slack.
	ToleranceExact ToleranceMode = iota
	// ToleranceIntRange allows an absolute integer distance.
	ToleranceIntRange
	// ToleranceFloatRange allows an absolute floating-point distance.
	ToleranceFloatRange
	// ToleranceRatio allows the window [b/p, b*p] around the right operand.
	ToleranceRatio
	// TolerancePercentage allows the window b ± |b|*p.
	TolerancePercentage
)

// String returns the mode name.
func (m ToleranceMode) String() string {
	switch m {
	case ToleranceIntRange:
		return "int_range"
	case ToleranceFloatRange:
		return "float_range"
	case ToleranceRatio:
		return "ratio"
	case TolerancePercentage:
		return "percentage"
	default:
		return "exact"
	}
}

// Tolerance configures slack for numeric comparison operators at evaluation
// time. Zero fields are unset. When several fields are set the first one in
// the order IntRange, FloatRange, Proportion wins.
type Tolerance struct {
	IntRange   int64   `mapstructure:"int_range" yaml:"int_range" json:"int_range" validate:"gte=0"`
	FloatRange float64 `mapstructure:"float_range" yaml:"float_range" json:"float_range" validate:"gte=0"`
	Proportion float64 `mapstructure:"proportion" yaml:"proportion" json:"proportion" validate:"gte=0"`
}

// Mode returns the slack mode selected by the populated fields.
func (t Tolerance) Mode() ToleranceMode {
	switch {
	case t.IntRange > 0:
		return ToleranceIntRange
	case t.FloatRange > 0:
		return ToleranceFloatRange
	case t.Proportion > 1:
		return ToleranceRatio
	case t.Proportion > 0 && t.Proportion < 1:
		return TolerancePercentage
	default:
		return ToleranceExact
	}
}

// IsExact reports whether t applies no slack.
func (t Tolerance) IsExact() bool {
	return t.Mode() == ToleranceExact
}

// Window returns the inclusive range of left-operand values considered
// equal to b.
func (t Tolerance) Window(b float64) (lo, hi float64) {
	switch t.Mode() {
	case ToleranceIntRange:
		r := float64(t.IntRange)
		return b - r, b + r
	case ToleranceFloatRange:
		return b - t.FloatRange, b + t.FloatRange
	case ToleranceRatio:
		if b < 0 {
			return b * t.Proportion, b / t.Proportion
		}
		return b / t.Proportion, b * t.Proportion
	case TolerancePercentage:
		d := math.Abs(b) * t.Proportion
		return b - d, b + d
	default:
		return b, b
	}
}

// IntWindow is Window for integer operands under an integer range. It
// saturates instead of overflowing.
func (t Tolerance) IntWindow(b int64) (lo, hi int64) {
	r := t.IntRange
	lo, hi = b-r, b+r
	if b < 0 && lo > b {
		lo = math.MinInt64
	}
	if b > 0 && hi < b {
		hi = math.MaxInt64
	}
	return lo, hi
}
