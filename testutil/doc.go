// Package testutil provides testing utilities for conductance.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded thread-safe RNG, generators for consistent block
// statistics and random graphs, and a mutable conductance.StatsSource.
//
// # Random Statistics
//
//	rng := testutil.NewRNG(seed)
//	stats := rng.RandomStats(64, 1_000_000)
//	q := conductance.NewQueue()
//	_ = q.Initialize(stats)
//
// # Random Graphs
//
//	edges := rng.RandomEdges(1000, 5000, 10)
//	assignment := rng.RandomAssignment(1000, 8)
package testutil
