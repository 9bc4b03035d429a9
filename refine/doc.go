// Package refine runs parallel local search that lowers the worst
// conductance of a partition.
//
// Each round targets the block with the worst conductance. Its boundary
// vertices are split across workers; every worker previews moving a vertex to
// each adjacent block, scores the move with gain.Gain against the queue's
// current top-three snapshot and commits the best move when its gain is
// negative. Committed moves update both endpoint blocks with
// Queue.AdjustKey. Workers race on shared blocks, so some updates are stale
// and skipped; a GlobalUpdate closes every round.
//
//	r := refine.New(graph, refine.WithWorkers(8), refine.WithMaxRounds(50))
//	res, err := r.Run(ctx)
//	fmt.Println(res.Initial.Fraction, "->", res.Final.Fraction)
package refine
