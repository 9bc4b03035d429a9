// Package bitset provides a fixed-size lock-free bitset for concurrent access.
//
// Architecture:
//   - One atomic.Uint64 per 64 bits, allocated up front
//   - Lock-free: atomic Or/And for writes, Load for reads
//   - Resize reallocates and is the only non-concurrent operation
//
// Used internally for:
//   - Complement flags of the conductance queue (whether a partition's stored
//     denominator is its own volume or the volume of the rest of the graph),
//     written from parallel initialize and global-update workers
package bitset
