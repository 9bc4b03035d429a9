package conductance

import "github.com/hupe1980/conductance/fraction"

// PartitionID identifies one of the k blocks of a partition.
type PartitionID int32

// NoPartition fills top-three slots that have no partition (k < 3).
const NoPartition PartitionID = -1

// Volume is a sum of weighted vertex degrees or edge weights.
type Volume = uint64

// Info pairs a partition with its conductance fraction at a point in time.
type Info struct {
	Partition PartitionID
	Fraction  fraction.Fraction
}

// NoInfo is the value of an empty top-three slot.
var NoInfo = Info{Partition: NoPartition, Fraction: fraction.Infinity}

// StatsSource exposes the per-block statistics of a partitioned (hyper)graph.
//
// Implementations must allow concurrent calls; Initialize and GlobalUpdate
// read blocks from several goroutines.
type StatsSource interface {
	// K returns the number of blocks.
	K() int
	// CutWeight returns the total weight of edges crossing the boundary of p.
	CutWeight(p PartitionID) Volume
	// Volume returns the sum of weighted degrees of the vertices in p.
	Volume(p PartitionID) Volume
	// OriginalVolume returns the volume of p measured on the un-contracted graph.
	OriginalVolume(p PartitionID) Volume
	// TotalVolume returns the sum of all block volumes.
	TotalVolume() Volume
	// OriginalTotalVolume returns the total volume of the un-contracted graph.
	OriginalTotalVolume() Volume
}

// StatsMode selects which volumes the queue reads from a StatsSource.
type StatsMode uint8

const (
	// StatsOriginal reads OriginalVolume and OriginalTotalVolume.
	StatsOriginal StatsMode = iota
	// StatsLive reads Volume and TotalVolume.
	StatsLive
)

func (m StatsMode) String() string {
	switch m {
	case StatsOriginal:
		return "original"
	case StatsLive:
		return "live"
	default:
		return "unknown"
	}
}

// BlockStats returns the cut weight and the mode's volume of p.
func (m StatsMode) BlockStats(src StatsSource, p PartitionID) (cut, volume Volume) {
	if m == StatsLive {
		return src.CutWeight(p), src.Volume(p)
	}
	return src.CutWeight(p), src.OriginalVolume(p)
}

// Total returns the mode's total volume.
func (m StatsMode) Total(src StatsSource) Volume {
	if m == StatsLive {
		return src.TotalVolume()
	}
	return src.OriginalTotalVolume()
}

// NewConductance returns cut / min(volume, total - volume).
//
// A volume above total is treated as if the complement side were empty,
// which yields an infinite fraction.
func NewConductance(cut, volume, total Volume) fraction.Fraction {
	f, _ := conductanceKey(cut, volume, total)
	return f
}

// conductanceKey returns the stored fraction and whether its denominator is
// the complement side (total - volume) rather than volume itself.
func conductanceKey(cut, volume, total Volume) (fraction.Fraction, bool) {
	var rest Volume
	if volume < total {
		rest = total - volume
	}
	if volume > rest {
		return fraction.New(cut, rest), true
	}
	return fraction.New(cut, volume), false
}
