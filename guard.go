package conductance

import "github.com/hupe1980/conductance/fraction"

// Guard is a scoped lock on a Queue. It gives a serialized, consistent view
// across a sequence of operations and is the entry point for bulk work that
// must not interleave with other writers.
//
// Guard methods do not lock; the lock is held from Acquire until Release.
// A Guard must not be used after Release and must not be shared between
// goroutines.
//
//	g := q.Acquire()
//	defer g.Release()
//	if err := g.GlobalUpdate(src); err != nil {
//		return err
//	}
//	worst := g.Top()
type Guard struct {
	q *Queue
}

// Acquire locks the queue and returns a Guard for it.
func (q *Queue) Acquire() *Guard {
	q.mu.Lock()
	return &Guard{q: q}
}

// Release unlocks the queue. Calling Release twice panics.
func (g *Guard) Release() {
	q := g.q
	if q == nil {
		panic("conductance: guard released twice")
	}
	g.q = nil
	q.mu.Unlock()
}

// Initialize is Queue.Initialize under the held lock.
func (g *Guard) Initialize(src StatsSource) error {
	return g.q.initializeLocked(src)
}

// AdjustKey is Queue.AdjustKey under the held lock.
func (g *Guard) AdjustKey(p PartitionID, cut, volume Volume) bool {
	return g.q.adjustKeyLocked(p, cut, volume)
}

// GlobalUpdate recomputes every entry. Unlike Queue.GlobalUpdate it never
// coalesces with another caller.
func (g *Guard) GlobalUpdate(src StatsSource) error {
	return g.q.globalUpdateLocked(src)
}

// UpdateTotalVolume is Queue.UpdateTotalVolume under the held lock.
func (g *Guard) UpdateTotalVolume(total Volume) error {
	return g.q.updateTotalVolumeLocked(total)
}

// Check is Queue.Check under the held lock.
func (g *Guard) Check(src StatsSource) bool {
	return g.q.checkLocked(src)
}

// Top reads the heap root directly.
func (g *Guard) Top() PartitionID {
	return g.TopThreeInfo()[0].Partition
}

// SecondTop reads the heap directly.
func (g *Guard) SecondTop() PartitionID {
	return g.TopThreeInfo()[1].Partition
}

// TopThree reads the heap directly.
func (g *Guard) TopThree() [3]PartitionID {
	t := g.TopThreeInfo()
	return [3]PartitionID{t[0].Partition, t[1].Partition, t[2].Partition}
}

// TopThreeInfo reads the heap directly.
func (g *Guard) TopThreeInfo() [3]Info {
	return g.q.topThreeLocked()
}

// Fraction returns the stored fraction of p.
func (g *Guard) Fraction(p PartitionID) (fraction.Fraction, bool) {
	return g.q.fractionLocked(p)
}

// TotalVolume returns the reference total volume.
func (g *Guard) TotalVolume() Volume {
	return g.q.totalVolume
}
