package fraction

import (
	"math"
	"math/bits"
	"strconv"
)

// Fraction is an exact non-negative rational number numerator/denominator.
//
// A zero denominator represents +∞. The type does not enforce
// numerator <= denominator; callers may transiently hold larger values.
//
// The zero value is 0/0, which compares equal to every fraction under
// cross-multiplication. Use New or Infinity to obtain a meaningful value.
type Fraction struct {
	num uint64
	den uint64
}

// Infinity is the default "unreachable" fraction 1/0.
var Infinity = Fraction{num: 1, den: 0}

// New returns numerator/denominator.
func New(numerator, denominator uint64) Fraction {
	return Fraction{num: numerator, den: denominator}
}

// Numerator returns the stored numerator.
func (f Fraction) Numerator() uint64 { return f.num }

// Denominator returns the stored denominator.
func (f Fraction) Denominator() uint64 { return f.den }

// SetNumerator replaces the numerator.
func (f *Fraction) SetNumerator(n uint64) { f.num = n }

// SetDenominator replaces the denominator. Zero turns f into an infinite value.
func (f *Fraction) SetDenominator(d uint64) { f.den = d }

// IsInfinite reports whether the denominator is zero.
func (f Fraction) IsInfinite() bool { return f.den == 0 }

// IsZero reports whether f is 0/d for a non-zero d.
func (f Fraction) IsZero() bool { return f.num == 0 && f.den != 0 }

// Value returns a float64 approximation for reporting.
// Infinite fractions report math.MaxFloat64. Never use Value for ordering.
func (f Fraction) Value() float64 {
	if f.den == 0 {
		return math.MaxFloat64
	}
	return float64(f.num) / float64(f.den)
}

// Less reports whether f < o.
func (f Fraction) Less(o Fraction) bool {
	return crossCompare(f, o) < 0
}

// Equal reports whether f and o denote the same ratio.
// 2/4 and 1/2 are equal even though their stored parts differ.
func (f Fraction) Equal(o Fraction) bool {
	return crossCompare(f, o) == 0
}

// Greater reports whether f > o.
//
// Zero and infinite operands and dominated pairs are decided without
// multiplying; every shortcut agrees with the cross-multiplication rule.
func (f Fraction) Greater(o Fraction) bool {
	// f == 0 or o == ∞
	if f.num == 0 || o.den == 0 {
		return false
	}
	// f == ∞ or o == 0
	if f.den == 0 || o.num == 0 {
		return true
	}
	if f.num <= o.num && f.den >= o.den {
		return false
	}
	if f.num >= o.num && f.den <= o.den {
		return f.num != o.num || f.den != o.den
	}
	return crossCompare(f, o) > 0
}

// Compare returns -1, 0 or +1 depending on whether f is less than, equal to
// or greater than o.
func (f Fraction) Compare(o Fraction) int {
	return crossCompare(f, o)
}

// Max returns the larger of a and b, preferring a on ties.
func Max(a, b Fraction) Fraction {
	if b.Greater(a) {
		return b
	}
	return a
}

// String formats f as "n / d".
func (f Fraction) String() string {
	return strconv.FormatUint(f.num, 10) + " / " + strconv.FormatUint(f.den, 10)
}

// crossCompare compares f.num*o.den with o.num*f.den as 128-bit products.
func crossCompare(f, o Fraction) int {
	lhsHi, lhsLo := bits.Mul64(f.num, o.den)
	rhsHi, rhsLo := bits.Mul64(o.num, f.den)
	switch {
	case lhsHi < rhsHi:
		return -1
	case lhsHi > rhsHi:
		return 1
	case lhsLo < rhsLo:
		return -1
	case lhsLo > rhsLo:
		return 1
	default:
		return 0
	}
}
