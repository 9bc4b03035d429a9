// Package gain scores a single vertex move on the global conductance
// objective, the largest conductance over all blocks, in O(1).
//
// Instead of rescanning all k blocks, Gain combines the post-move conductance
// of the two endpoint blocks with the best remaining block from a top-three
// snapshot taken before the move (conductance.Queue.TopThreeInfo). Of the
// three worst blocks at most two are endpoints of the move, so the snapshot
// always contains the worst block that the move does not touch. When the
// snapshot is stale the estimate is approximate; the queue refreshes it after
// every update.
//
//	u := &gain.Update{
//	    From: from, To: to,
//	    CutWeightFromAfter: res.From.CutWeightAfter,
//	    VolumeFromAfter:    res.From.VolumeAfter,
//	    CutWeightToAfter:   res.To.CutWeightAfter,
//	    VolumeToAfter:      res.To.VolumeAfter,
//	    TotalVolume:        q.TotalVolume(),
//	    K:                  k,
//	    TopThreeBefore:     q.TopThreeInfo(),
//	}
//	if gain.Gain(u) < 0 {
//	    // the move lowers the worst conductance
//	}
package gain
