package snapshot

import (
	"fmt"

	"github.com/hupe1980/conductance"
)

var _ conductance.StatsSource = (*Stats)(nil)

// Stats is an immutable copy of the statistics of every block.
type Stats struct {
	CutWeights      []uint64
	Volumes         []uint64
	OriginalVolumes []uint64
	Total           uint64
	OriginalTotal   uint64
}

// Capture copies the statistics of every block of src, live and original.
func Capture(src conductance.StatsSource) *Stats {
	k := src.K()
	s := &Stats{
		CutWeights:      make([]uint64, k),
		Volumes:         make([]uint64, k),
		OriginalVolumes: make([]uint64, k),
		Total:           src.TotalVolume(),
		OriginalTotal:   src.OriginalTotalVolume(),
	}
	for i := range k {
		p := conductance.PartitionID(i)
		s.CutWeights[i] = src.CutWeight(p)
		s.Volumes[i] = src.Volume(p)
		s.OriginalVolumes[i] = src.OriginalVolume(p)
	}
	return s
}

func (s *Stats) K() int                                          { return len(s.CutWeights) }
func (s *Stats) CutWeight(p conductance.PartitionID) uint64      { return s.CutWeights[p] }
func (s *Stats) Volume(p conductance.PartitionID) uint64         { return s.Volumes[p] }
func (s *Stats) OriginalVolume(p conductance.PartitionID) uint64 { return s.OriginalVolumes[p] }
func (s *Stats) TotalVolume() uint64                             { return s.Total }
func (s *Stats) OriginalTotalVolume() uint64                     { return s.OriginalTotal }

// Validate checks that the slices have equal length and that every block
// satisfies cut <= volume <= total and cut + volume <= total in both the live
// and the original statistics.
func (s *Stats) Validate() error {
	k := len(s.CutWeights)
	if len(s.Volumes) != k || len(s.OriginalVolumes) != k {
		return fmt.Errorf("%w: %d cut weights, %d volumes, %d original volumes",
			ErrCorrupt, k, len(s.Volumes), len(s.OriginalVolumes))
	}
	for i := range k {
		cut := s.CutWeights[i]
		for _, vt := range [2][2]uint64{{s.Volumes[i], s.Total}, {s.OriginalVolumes[i], s.OriginalTotal}} {
			vol, total := vt[0], vt[1]
			if vol > total || cut > vol || cut > total-vol {
				return fmt.Errorf("%w: block %d has cut weight %d, volume %d, total %d",
					conductance.ErrInvariantViolation, i, cut, vol, total)
			}
		}
	}
	return nil
}
