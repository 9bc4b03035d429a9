package partition

import "github.com/hupe1980/conductance"

// BlockChange is the statistics of one block before and after a move.
type BlockChange struct {
	Partition            conductance.PartitionID
	CutWeightBefore      uint64
	CutWeightAfter       uint64
	VolumeBefore         uint64
	VolumeAfter          uint64
	OriginalVolumeBefore uint64
	OriginalVolumeAfter  uint64
}

// Volumes returns the before and after volume the mode reads.
func (c BlockChange) Volumes(mode conductance.StatsMode) (before, after uint64) {
	if mode == conductance.StatsLive {
		return c.VolumeBefore, c.VolumeAfter
	}
	return c.OriginalVolumeBefore, c.OriginalVolumeAfter
}

// MoveResult describes a single vertex move between two blocks.
type MoveResult struct {
	Vertex                 int
	WeightedDegree         uint64
	OriginalWeightedDegree uint64
	From                   BlockChange
	To                     BlockChange
}

// Degree returns the weighted degree of the moved vertex under mode.
func (r MoveResult) Degree(mode conductance.StatsMode) uint64 {
	if mode == conductance.StatsLive {
		return r.WeightedDegree
	}
	return r.OriginalWeightedDegree
}
