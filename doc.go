// Package conductance tracks the conductance of every block of a k-way graph
// partition during parallel local-search refinement.
//
// The conductance of block p is
//
//	cut(p) / min(vol(p), total - vol(p))
//
// and the objective being minimized is the worst (largest) conductance over all
// blocks. Values are kept as exact fractions (see the fraction package), so
// near-equal blocks never swap order through floating-point round-off.
//
// # Quick Start
//
//	q := conductance.NewQueue(
//	    conductance.WithStatsMode(conductance.StatsLive),
//	    conductance.WithLogger(conductance.NewTextLogger(slog.LevelInfo)),
//	)
//	if err := q.Initialize(graph); err != nil {
//	    return err
//	}
//	worst := q.Top()
//
// # Concurrency
//
// A Queue is shared by all refinement workers. AdjustKey, GlobalUpdate,
// UpdateTotalVolume and Check lock internally and are linearized. Top,
// SecondTop, TopThree and TopThreeInfo never block: they read a snapshot
// that every locked mutation republishes, so they may trail a concurrent
// writer by a few moves.
//
// Workers that compute block statistics from a partition that other workers
// are changing can produce stale updates. AdjustKey detects statistics that
// cannot be consistent (volume below cut, volume above the total, or cut plus
// volume above the total) and skips them. The worker that made the last move
// into or out of a block delivers a valid update, and GlobalUpdate between
// rounds removes any remaining drift.
//
// Callers that need several operations to observe the same state use a Guard:
//
//	g := q.Acquire()
//	defer g.Release()
//	_ = g.GlobalUpdate(graph)
//	top := g.TopThreeInfo()
//
// # Stats Modes
//
// StatsOriginal (the default) normalizes with the volumes of the original,
// un-contracted graph, which multilevel refinement needs to compare
// objectives across levels. StatsLive uses the current volumes. The mode is
// fixed once the queue is initialized.
//
// # Scoring Moves
//
// The gain package scores a candidate move in O(1) from the post-move
// statistics of its two blocks and the TopThreeInfo snapshot taken before
// the move. The refine package wires queue, gain and the reference partition
// together into a complete refinement loop.
package conductance
