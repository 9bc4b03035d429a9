package partition

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/conductance"
	"github.com/hupe1980/conductance/internal/conv"
)

type edge struct {
	u, v int32
	w    uint64
}

// Builder collects the edges of a graph before it is partitioned.
// A Builder is not safe for concurrent use.
type Builder struct {
	n        int
	edges    []edge
	original map[int]uint64
}

// NewBuilder creates a builder for a graph with n vertices.
func NewBuilder(n int) *Builder {
	return &Builder{
		n:        n,
		original: make(map[int]uint64),
	}
}

// NumVertices returns the vertex count the builder was created with.
func (b *Builder) NumVertices() int { return b.n }

// AddEdge adds an undirected edge {u, v} with weight w.
// Parallel edges are kept and count individually.
func (b *Builder) AddEdge(u, v int, w uint64) error {
	if u < 0 || u >= b.n || v < 0 || v >= b.n {
		return fmt.Errorf("%w: edge {%d, %d} with n=%d", ErrVertexOutOfRange, u, v, b.n)
	}
	if u == v {
		return fmt.Errorf("%w: vertex %d", ErrSelfLoop, u)
	}
	if w == 0 {
		return fmt.Errorf("%w: edge {%d, %d}", ErrZeroWeight, u, v)
	}
	b.edges = append(b.edges, edge{u: int32(u), v: int32(v), w: w})
	return nil
}

// SetOriginalDegree records the degree v had in the original graph.
// Vertices without an original degree use their weighted degree.
func (b *Builder) SetOriginalDegree(v int, degree uint64) error {
	if v < 0 || v >= b.n {
		return fmt.Errorf("%w: vertex %d with n=%d", ErrVertexOutOfRange, v, b.n)
	}
	b.original[v] = degree
	return nil
}

// Build freezes the edge set into a graph partitioned into k blocks by assignment.
func (b *Builder) Build(k int, assignment []conductance.PartitionID) (*Graph, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if _, err := conv.IntToInt32(k); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidK, err)
	}
	if _, err := conv.IntToUint32(b.n); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVertexOutOfRange, err)
	}
	if len(assignment) != b.n {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrAssignmentSize, len(assignment), b.n)
	}
	for v, p := range assignment {
		if p < 0 || int(p) >= k {
			return nil, fmt.Errorf("%w: vertex %d assigned to %d with k=%d", ErrPartitionOutOfRange, v, p, k)
		}
	}

	g := &Graph{
		n:              b.n,
		k:              k,
		offsets:        make([]int, b.n+1),
		degree:         make([]uint64, b.n),
		originalDegree: make([]uint64, b.n),
		blocks:         append([]conductance.PartitionID(nil), assignment...),
		members:        make([]*roaring.Bitmap, k),
		cut:            make([]uint64, k),
		volume:         make([]uint64, k),
		originalVolume: make([]uint64, k),
	}

	for _, e := range b.edges {
		g.offsets[e.u+1]++
		g.offsets[e.v+1]++
		g.degree[e.u] += e.w
		g.degree[e.v] += e.w
	}
	for v := 0; v < b.n; v++ {
		g.offsets[v+1] += g.offsets[v]
	}

	g.targets = make([]int32, g.offsets[b.n])
	g.weights = make([]uint64, g.offsets[b.n])
	next := append([]int(nil), g.offsets[:b.n]...)
	for _, e := range b.edges {
		g.targets[next[e.u]], g.weights[next[e.u]] = e.v, e.w
		next[e.u]++
		g.targets[next[e.v]], g.weights[next[e.v]] = e.u, e.w
		next[e.v]++
	}

	for v := 0; v < b.n; v++ {
		od, ok := b.original[v]
		if !ok {
			od = g.degree[v]
		}
		if od < g.degree[v] {
			return nil, fmt.Errorf("%w: vertex %d has degree %d, original %d", ErrOriginalDegree, v, g.degree[v], od)
		}
		g.originalDegree[v] = od
	}

	for p := range g.members {
		g.members[p] = roaring.New()
	}
	for v := 0; v < b.n; v++ {
		p := g.blocks[v]
		g.members[p].Add(uint32(v))
		g.volume[p] += g.degree[v]
		g.originalVolume[p] += g.originalDegree[v]
		g.total += g.degree[v]
		g.originalTotal += g.originalDegree[v]
		for i := g.offsets[v]; i < g.offsets[v+1]; i++ {
			if g.blocks[g.targets[i]] != p {
				g.cut[p] += g.weights[i]
			}
		}
	}
	return g, nil
}
