package testutil

import (
	"math/rand"
	"slices"
	"sync"

	"github.com/hupe1980/conductance"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Uint64n returns a pseudo-random number in [0,n). n must be positive.
func (r *RNG) Uint64n(n uint64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uint64nLocked(n)
}

func (r *RNG) uint64nLocked(n uint64) uint64 {
	if n&(n-1) == 0 {
		return r.rand.Uint64() & (n - 1)
	}
	limit := ^uint64(0) - ^uint64(0)%n
	for {
		v := r.rand.Uint64()
		if v < limit {
			return v % n
		}
	}
}

// Float64 returns, as a float64, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// Stats is a mutable table of per-block statistics implementing
// conductance.StatsSource. It is safe for concurrent use.
type Stats struct {
	mu             sync.RWMutex
	cut            []uint64
	volume         []uint64
	originalVolume []uint64
	total          uint64
	originalTotal  uint64
}

var _ conductance.StatsSource = (*Stats)(nil)

// NewStats creates a table whose original statistics equal the live ones.
func NewStats(cut, volume []uint64, total uint64) *Stats {
	return &Stats{
		cut:            slices.Clone(cut),
		volume:         slices.Clone(volume),
		originalVolume: slices.Clone(volume),
		total:          total,
		originalTotal:  total,
	}
}

// Set replaces the live cut weight and volume of p.
func (s *Stats) Set(p conductance.PartitionID, cut, volume uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cut[p] = cut
	s.volume[p] = volume
}

// SetOriginal replaces the original volume of p.
func (s *Stats) SetOriginal(p conductance.PartitionID, volume uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.originalVolume[p] = volume
}

// SetTotal replaces the live total volume.
func (s *Stats) SetTotal(total uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = total
}

// SetOriginalTotal replaces the original total volume.
func (s *Stats) SetOriginalTotal(total uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.originalTotal = total
}

func (s *Stats) K() int { return len(s.cut) }

func (s *Stats) CutWeight(p conductance.PartitionID) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cut[p]
}

func (s *Stats) Volume(p conductance.PartitionID) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume[p]
}

func (s *Stats) OriginalVolume(p conductance.PartitionID) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.originalVolume[p]
}

func (s *Stats) TotalVolume() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

func (s *Stats) OriginalTotalVolume() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.originalTotal
}

// RandomStats generates k blocks whose volumes sum to total and whose cut
// weights satisfy cut <= min(volume, total - volume). With total >= 100*k
// every block has a positive volume.
func (r *RNG) RandomStats(k int, total uint64) *Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	shares := make([]uint64, k)
	var sum uint64
	for i := range shares {
		shares[i] = 1 + r.uint64nLocked(100)
		sum += shares[i]
	}

	volume := make([]uint64, k)
	cut := make([]uint64, k)
	rest := total
	for i := range volume {
		if i == k-1 {
			volume[i] = rest
		} else {
			volume[i] = min(total*shares[i]/sum, rest)
		}
		rest -= volume[i]
	}
	for i := range cut {
		limit := min(volume[i], total-volume[i])
		cut[i] = r.uint64nLocked(limit + 1)
	}
	return NewStats(cut, volume, total)
}

// RandomValidUpdate returns block statistics that AdjustKey accepts under
// total, with 0 < volume < total. total must be >= 2.
func (r *RNG) RandomValidUpdate(total uint64) (cut, volume uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	volume = 1 + r.uint64nLocked(total-1)
	cut = r.uint64nLocked(min(volume, total-volume) + 1)
	return cut, volume
}

// Edge is an undirected weighted edge.
type Edge struct {
	U, V int
	W    uint64
}

// RandomEdges generates m edges without self-loops between n >= 2 vertices,
// with weights in [1, maxWeight]. A spanning path 0-1-...-(n-1) is included
// first so that every vertex has positive degree.
func (r *RNG) RandomEdges(n, m int, maxWeight uint64) []Edge {
	r.mu.Lock()
	defer r.mu.Unlock()

	edges := make([]Edge, 0, max(m, n-1))
	for v := 1; v < n; v++ {
		edges = append(edges, Edge{U: v - 1, V: v, W: 1 + r.uint64nLocked(maxWeight)})
	}
	for len(edges) < m {
		u, v := r.rand.Intn(n), r.rand.Intn(n)
		if u == v {
			continue
		}
		edges = append(edges, Edge{U: u, V: v, W: 1 + r.uint64nLocked(maxWeight)})
	}
	return edges
}

// RandomAssignment assigns n vertices to k blocks so that every block is
// non-empty. n must be >= k.
func (r *RNG) RandomAssignment(n, k int) []conductance.PartitionID {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]conductance.PartitionID, n)
	for i, v := range r.rand.Perm(n) {
		if i < k {
			out[v] = conductance.PartitionID(i)
		} else {
			out[v] = conductance.PartitionID(r.rand.Intn(k))
		}
	}
	return out
}
