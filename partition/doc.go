// Package partition provides an in-memory k-way partition of a weighted
// undirected graph. It tracks, per block, the cut weight and the volume (sum
// of weighted vertex degrees) under concurrent vertex moves and implements
// conductance.StatsSource.
//
// Vertices may carry an original degree larger than their current degree. In
// a multilevel setting this is the degree a coarse vertex had in the
// un-contracted graph; original volumes are the sums of these degrees.
//
//	b := partition.NewBuilder(4)
//	_ = b.AddEdge(0, 1, 2)
//	_ = b.AddEdge(1, 2, 1)
//	_ = b.AddEdge(2, 3, 2)
//	g, err := b.Build(2, []conductance.PartitionID{0, 0, 1, 1})
//
// Moves are serialized by the graph. Move reports the statistics of both
// endpoint blocks before and after the move, which is everything the gain
// package and Queue.AdjustKey need.
package partition
