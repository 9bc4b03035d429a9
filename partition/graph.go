package partition

import (
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/conductance"
)

var _ conductance.StatsSource = (*Graph)(nil)

// Graph is a weighted undirected graph in compressed sparse row form together
// with a k-way partition of its vertices. It is safe for concurrent use.
type Graph struct {
	mu sync.RWMutex

	n       int
	k       int
	offsets []int
	targets []int32
	weights []uint64

	degree         []uint64
	originalDegree []uint64

	blocks         []conductance.PartitionID
	members        []*roaring.Bitmap
	cut            []uint64
	volume         []uint64
	originalVolume []uint64
	total          uint64
	originalTotal  uint64
}

// NumVertices returns n.
func (g *Graph) NumVertices() int { return g.n }

// NumEdges returns the number of undirected edges.
func (g *Graph) NumEdges() int { return len(g.targets) / 2 }

// K implements conductance.StatsSource.
func (g *Graph) K() int { return g.k }

// CutWeight implements conductance.StatsSource.
func (g *Graph) CutWeight(p conductance.PartitionID) uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cut[p]
}

// Volume implements conductance.StatsSource.
func (g *Graph) Volume(p conductance.PartitionID) uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.volume[p]
}

// OriginalVolume implements conductance.StatsSource.
func (g *Graph) OriginalVolume(p conductance.PartitionID) uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.originalVolume[p]
}

// TotalVolume implements conductance.StatsSource. Moves never change it.
func (g *Graph) TotalVolume() uint64 { return g.total }

// OriginalTotalVolume implements conductance.StatsSource.
func (g *Graph) OriginalTotalVolume() uint64 { return g.originalTotal }

// WeightedDegree returns the sum of the weights of the edges incident to v.
func (g *Graph) WeightedDegree(v int) uint64 { return g.degree[v] }

// OriginalDegree returns the degree v had in the original graph.
func (g *Graph) OriginalDegree(v int) uint64 { return g.originalDegree[v] }

// Neighbors yields the neighbors of v with the weight of the connecting edge.
func (g *Graph) Neighbors(v int) iter.Seq2[int, uint64] {
	return func(yield func(int, uint64) bool) {
		for i := g.offsets[v]; i < g.offsets[v+1]; i++ {
			if !yield(int(g.targets[i]), g.weights[i]) {
				return
			}
		}
	}
}

// BlockOf returns the block v is assigned to.
func (g *Graph) BlockOf(v int) conductance.PartitionID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.blocks[v]
}

// BlockSize returns the number of vertices in p.
func (g *Graph) BlockSize(p conductance.PartitionID) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return int(g.members[p].GetCardinality())
}

// Assignment returns a copy of the block of every vertex.
func (g *Graph) Assignment() []conductance.PartitionID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.blocks)
}

// Members returns a copy of the vertex set of p.
func (g *Graph) Members(p conductance.PartitionID) *roaring.Bitmap {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.members[p].Clone()
}

// Boundary returns the vertices of p with at least one neighbor outside p.
func (g *Graph) Boundary(p conductance.PartitionID) *roaring.Bitmap {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := roaring.New()
	it := g.members[p].Iterator()
	for it.HasNext() {
		v := it.Next()
		for i := g.offsets[v]; i < g.offsets[v+1]; i++ {
			if g.blocks[g.targets[i]] != p {
				out.Add(v)
				break
			}
		}
	}
	return out
}

// AdjacentBlocks returns the distinct blocks of v's neighbors other than v's
// own block, in ascending order.
func (g *Graph) AdjacentBlocks(v int) []conductance.PartitionID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	own := g.blocks[v]
	var out []conductance.PartitionID
	for i := g.offsets[v]; i < g.offsets[v+1]; i++ {
		if b := g.blocks[g.targets[i]]; b != own && !slices.Contains(out, b) {
			out = append(out, b)
		}
	}
	slices.Sort(out)
	return out
}

// Move moves v from block from to block to and returns the statistics of both
// blocks around the move. It fails with ErrStaleMove when v is no longer in
// from, which happens when another goroutine moved it first. Blocks never
// become empty through a move.
func (g *Graph) Move(v int, from, to conductance.PartitionID) (MoveResult, error) {
	if err := g.validateMove(v, to); err != nil {
		return MoveResult{}, err
	}
	if from == to {
		return MoveResult{}, fmt.Errorf("%w: %d", ErrSameBlock, to)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.blocks[v] != from {
		return MoveResult{}, fmt.Errorf("%w: vertex %d is in %d, not %d", ErrStaleMove, v, g.blocks[v], from)
	}
	if g.members[from].GetCardinality() == 1 {
		return MoveResult{}, fmt.Errorf("%w: %d", ErrLastVertex, from)
	}

	res := g.simulateLocked(v, to)
	g.blocks[v] = to
	g.members[from].Remove(uint32(v))
	g.members[to].Add(uint32(v))
	g.cut[from], g.cut[to] = res.From.CutWeightAfter, res.To.CutWeightAfter
	g.volume[from], g.volume[to] = res.From.VolumeAfter, res.To.VolumeAfter
	g.originalVolume[from], g.originalVolume[to] = res.From.OriginalVolumeAfter, res.To.OriginalVolumeAfter
	return res, nil
}

// PreviewMove returns the result Move(v, BlockOf(v), to) would have without
// changing the partition.
func (g *Graph) PreviewMove(v int, to conductance.PartitionID) (MoveResult, error) {
	if err := g.validateMove(v, to); err != nil {
		return MoveResult{}, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	from := g.blocks[v]
	if from == to {
		return MoveResult{}, fmt.Errorf("%w: %d", ErrSameBlock, to)
	}
	if g.members[from].GetCardinality() == 1 {
		return MoveResult{}, fmt.Errorf("%w: %d", ErrLastVertex, from)
	}
	return g.simulateLocked(v, to), nil
}

func (g *Graph) validateMove(v int, to conductance.PartitionID) error {
	if v < 0 || v >= g.n {
		return fmt.Errorf("%w: %d", ErrVertexOutOfRange, v)
	}
	if to < 0 || int(to) >= g.k {
		return fmt.Errorf("%w: %d", ErrPartitionOutOfRange, to)
	}
	return nil
}

// simulateLocked computes the effect of moving v to block to.
// Edges to from start crossing both boundaries, edges to to stop crossing
// both, and edges to a third block move from from's cut to to's cut.
func (g *Graph) simulateLocked(v int, to conductance.PartitionID) MoveResult {
	from := g.blocks[v]

	var fromGain, fromLoss, toGain, toLoss uint64
	for i := g.offsets[v]; i < g.offsets[v+1]; i++ {
		w := g.weights[i]
		switch g.blocks[g.targets[i]] {
		case from:
			fromGain += w
			toGain += w
		case to:
			fromLoss += w
			toLoss += w
		default:
			fromLoss += w
			toGain += w
		}
	}

	deg, odeg := g.degree[v], g.originalDegree[v]
	return MoveResult{
		Vertex:                 v,
		WeightedDegree:         deg,
		OriginalWeightedDegree: odeg,
		From: BlockChange{
			Partition:            from,
			CutWeightBefore:      g.cut[from],
			CutWeightAfter:       g.cut[from] + fromGain - fromLoss,
			VolumeBefore:         g.volume[from],
			VolumeAfter:          g.volume[from] - deg,
			OriginalVolumeBefore: g.originalVolume[from],
			OriginalVolumeAfter:  g.originalVolume[from] - odeg,
		},
		To: BlockChange{
			Partition:            to,
			CutWeightBefore:      g.cut[to],
			CutWeightAfter:       g.cut[to] + toGain - toLoss,
			VolumeBefore:         g.volume[to],
			VolumeAfter:          g.volume[to] + deg,
			OriginalVolumeBefore: g.originalVolume[to],
			OriginalVolumeAfter:  g.originalVolume[to] + odeg,
		},
	}
}
