// Package conv provides safe integer type conversion utilities.
//
// These functions perform bounds checking to prevent overflow when converting
// between Go's int and the fixed-width types used for partition ids (int32),
// vertex ids (uint32) and persisted counts.
//
// Use cases:
//   - Validating the block count k before it becomes a partition id range
//   - Validating counts read from snapshot headers
//
// For conversions that are provably safe by domain constraints (e.g., loop
// indices below an already-validated k), use direct type casts instead.
package conv
