package conductance

// WorstConductance scans every block of src and returns the one with the
// largest conductance. It does not touch any queue and serves as the
// reference the queue's Top is verified against.
//
// Ties go to the lower partition id. For k == 0 it returns NoInfo.
func WorstConductance(src StatsSource, mode StatsMode) Info {
	worst := NoInfo
	total := mode.Total(src)
	for i := 0; i < src.K(); i++ {
		p := PartitionID(i)
		cut, volume := mode.BlockStats(src, p)
		f := NewConductance(cut, volume, total)
		if worst.Partition == NoPartition || f.Greater(worst.Fraction) {
			worst = Info{Partition: p, Fraction: f}
		}
	}
	return worst
}

// Conductances returns the conductance fraction of every block of src.
func Conductances(src StatsSource, mode StatsMode) []Info {
	total := mode.Total(src)
	out := make([]Info, src.K())
	for i := range out {
		p := PartitionID(i)
		cut, volume := mode.BlockStats(src, p)
		out[i] = Info{Partition: p, Fraction: NewConductance(cut, volume, total)}
	}
	return out
}
