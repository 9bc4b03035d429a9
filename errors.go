package conductance

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidK is returned when the statistics source reports a non-positive block count.
	ErrInvalidK = errors.New("k must be positive")

	// ErrNotInitialized is returned by operations that need an initialized queue.
	ErrNotInitialized = errors.New("conductance queue is not initialized")

	// ErrAlreadyInitialized is returned when the stats mode is changed after Initialize.
	ErrAlreadyInitialized = errors.New("conductance queue is already initialized")

	// ErrSizeMismatch is returned when a statistics source has a different k than the queue.
	ErrSizeMismatch = errors.New("block count does not match the queue size")

	// ErrInvariantViolation is the sentinel wrapped by every *InvariantError.
	ErrInvariantViolation = errors.New("conductance invariant violated")
)

// InvariantError describes partition statistics that break
// cut <= volume <= total and cut + volume <= total.
//
// It is only raised (as a panic) when the queue was created with
// WithInvariantChecks(true). errors.Is(err, ErrInvariantViolation) holds.
type InvariantError struct {
	Op          string
	Partition   PartitionID
	CutWeight   Volume
	Volume      Volume
	TotalVolume Volume
	Reason      string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: partition %d: %s (cut_weight=%d volume=%d total_volume=%d)",
		e.Op, e.Partition, e.Reason, e.CutWeight, e.Volume, e.TotalVolume)
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }

// validateStats returns the first violated relation between cut, volume and total,
// or nil when the triple is consistent.
func validateStats(op string, p PartitionID, cut, volume, total Volume) error {
	var reason string
	switch {
	case volume > total:
		reason = "volume exceeds total volume"
	case cut > volume:
		reason = "cut weight exceeds volume"
	case cut > total-volume:
		reason = "cut weight plus volume exceeds total volume"
	default:
		return nil
	}
	return &InvariantError{
		Op:          op,
		Partition:   p,
		CutWeight:   cut,
		Volume:      volume,
		TotalVolume: total,
		Reason:      reason,
	}
}
