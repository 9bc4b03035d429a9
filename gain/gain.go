package gain

import (
	"log/slog"
	"math"
	"math/bits"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/conductance"
	"github.com/hupe1980/conductance/fraction"
)

// ScalingFactor maps a conductance in [0, 1] to an integer objective in
// [0, ScalingFactor].
const ScalingFactor = 1_000_000

var clampLog = rate.Sometimes{Interval: 10 * time.Second}

// Update describes one vertex move between two blocks.
//
// Gain reads only the post-move statistics, TotalVolume and TopThreeBefore.
// The remaining fields complete the record for logging and for callers that
// keep their own bookkeeping.
type Update struct {
	From conductance.PartitionID
	To   conductance.PartitionID

	CutWeightFromBefore uint64
	CutWeightFromAfter  uint64
	CutWeightToBefore   uint64
	CutWeightToAfter    uint64

	VolumeFromBefore uint64
	VolumeFromAfter  uint64
	VolumeToBefore   uint64
	VolumeToAfter    uint64

	// TotalVolume is the reference total of the stats mode in use.
	TotalVolume uint64
	// WeightedDegree is the degree of the moved vertex in the stats mode in use.
	WeightedDegree uint64
	K              int

	// TopThreeBefore is the queue's top-three snapshot taken before the move.
	TopThreeBefore [3]conductance.Info
}

// Gain returns the change of the global objective caused by the move.
// Negative values mean the worst conductance decreased.
func Gain(u *Update) int64 {
	return Objective(NewTop(u)) - Objective(u.TopThreeBefore[0].Fraction)
}

// NewTop returns the worst conductance after the move as seen by Gain.
func NewTop(u *Update) fraction.Fraction {
	newTop := fraction.Max(
		conductance.NewConductance(u.CutWeightFromAfter, u.VolumeFromAfter, u.TotalVolume),
		conductance.NewConductance(u.CutWeightToAfter, u.VolumeToAfter, u.TotalVolume),
	)
	if other, ok := otherWorst(u); ok && other.Greater(newTop) {
		return other
	}
	return newTop
}

// otherWorst returns the largest snapshot fraction of a block that is neither
// endpoint of the move.
func otherWorst(u *Update) (fraction.Fraction, bool) {
	var (
		best  fraction.Fraction
		found bool
	)
	for _, info := range u.TopThreeBefore {
		if info.Partition == conductance.NoPartition || info.Partition == u.From || info.Partition == u.To {
			continue
		}
		if !found || info.Fraction.Greater(best) {
			best, found = info.Fraction, true
		}
	}
	return best, found
}

// Objective converts a conductance fraction into round(num * ScalingFactor / den)
// with halves rounded up. An infinite fraction, and any value that does not
// fit into an int64, maps to math.MaxInt64.
func Objective(f fraction.Fraction) int64 {
	num, den := f.Numerator(), f.Denominator()
	if den == 0 {
		return math.MaxInt64
	}

	hi, lo := bits.Mul64(num, ScalingFactor)
	lo, carry := bits.Add64(lo, den/2, 0)
	hi += carry
	if hi >= den {
		return clamp(f)
	}
	q, _ := bits.Div64(hi, lo, den)
	if q > math.MaxInt64 {
		return clamp(f)
	}
	return int64(q)
}

func clamp(f fraction.Fraction) int64 {
	clampLog.Do(func() {
		slog.Default().Warn("scaled conductance does not fit into the objective, clamping",
			"fraction", f.String(),
			"clamped_to", int64(math.MaxInt64),
		)
	})
	return math.MaxInt64
}
