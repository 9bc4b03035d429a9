// Package fraction provides an exact non-negative rational type for ordering
// conductance values.
//
// Comparisons cross-multiply numerators and denominators into 128-bit
// products, so two fractions never swap order because of floating-point
// round-off, even when both parts are close to math.MaxUint64:
//
//	a := fraction.New(10, 30)
//	b := fraction.New(8, 25)
//	a.Greater(b) // true: 250 > 240
//
// A denominator of zero represents +∞. fraction.Infinity (1/0) is the value
// used for degenerate partitions whose smaller side has no volume.
package fraction
