package refine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/conductance"
	"github.com/hupe1980/conductance/gain"
	"github.com/hupe1980/conductance/partition"
)

// Result summarizes a Run.
type Result struct {
	Initial conductance.Info
	Final   conductance.Info
	Rounds  int
	// Moves counts committed moves that were kept.
	Moves int64
	// Reverted counts moves undone because the partition changed between
	// preview and commit and the move no longer improved the objective.
	Reverted int64
	// StaleMoves counts moves rejected because another worker moved the vertex first.
	StaleMoves int64
	// SkippedUpdates counts AdjustKey calls the queue dropped as stale.
	SkippedUpdates int64
	Elapsed        time.Duration
}

// Improved reports whether the worst conductance decreased.
func (r Result) Improved() bool {
	return r.Final.Fraction.Less(r.Initial.Fraction)
}

// ObjectiveGain returns the change of the integer objective over the run.
func (r Result) ObjectiveGain() int64 {
	return gain.Objective(r.Final.Fraction) - gain.Objective(r.Initial.Fraction)
}

// Refiner lowers the worst conductance of a partitioned graph.
type Refiner struct {
	graph *partition.Graph
	queue *conductance.Queue
	total uint64
	opts  options
}

// New creates a refiner for g. The refiner owns a fresh conductance queue.
func New(g *partition.Graph, optFns ...Option) *Refiner {
	o := applyOptions(optFns)
	q := conductance.NewQueue(
		conductance.WithStatsMode(o.mode),
		conductance.WithLogger(o.logger),
		conductance.WithMetricsCollector(o.metrics),
		conductance.WithParallelism(o.workers),
		conductance.WithInvariantChecks(o.checks),
	)
	return &Refiner{
		graph: g,
		queue: q,
		total: o.mode.Total(g),
		opts:  o,
	}
}

// Queue returns the queue tracking the graph's block conductances.
func (r *Refiner) Queue() *conductance.Queue {
	return r.queue
}

type counters struct {
	moves    atomic.Int64
	reverted atomic.Int64
	stale    atomic.Int64
	skipped  atomic.Int64
}

// Run refines until a round brings no improvement, the round limit is hit or
// ctx is done. On cancellation it returns the partial result and ctx's error.
// Run may be called again to continue refining; the queue is rebuilt from the
// graph each time.
func (r *Refiner) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	rc := r.opts.resources
	if err := rc.AcquireRun(ctx); err != nil {
		return Result{}, err
	}
	defer rc.ReleaseRun()

	r.queue.Reset()
	if err := r.queue.Initialize(r.graph); err != nil {
		return Result{}, err
	}
	reserved := int64(r.queue.MemoryUsage())
	if err := rc.AcquireMemory(reserved); err != nil {
		r.queue.Reset()
		return Result{}, fmt.Errorf("reserve %d bytes for k=%d: %w", reserved, r.graph.K(), err)
	}
	defer rc.ReleaseMemory(reserved)

	res := Result{Initial: r.queue.TopThreeInfo()[0]}
	var c counters
	finish := func(err error) (Result, error) {
		res.Final = r.queue.TopThreeInfo()[0]
		res.Moves = c.moves.Load()
		res.Reverted = c.reverted.Load()
		res.StaleMoves = c.stale.Load()
		res.SkippedUpdates = c.skipped.Load()
		res.Elapsed = time.Since(start)
		return res, err
	}

	for res.Rounds < r.opts.maxRounds {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		before := r.queue.TopFraction()
		committed := c.moves.Load()
		err := r.round(ctx, &c)
		if uerr := r.queue.GlobalUpdate(r.graph); uerr != nil {
			return finish(uerr)
		}
		res.Rounds++
		if err != nil {
			return finish(err)
		}

		after := r.queue.TopThreeInfo()[0]
		r.opts.logger.Info("refinement round",
			"round", res.Rounds,
			"worst_partition", after.Partition,
			"worst_conductance", after.Fraction.Value(),
			"moves", c.moves.Load()-committed,
		)
		r.opts.logger.LogFraction("worst block after round", after.Partition, after.Fraction)
		if c.moves.Load() == committed || !after.Fraction.Less(before) {
			break
		}
	}
	return finish(nil)
}

func (r *Refiner) round(ctx context.Context, c *counters) error {
	target := r.queue.Top()
	if target == conductance.NoPartition {
		return nil
	}
	candidates := r.graph.Boundary(target).ToArray()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.workers)
	for w := range min(r.opts.workers, len(candidates)) {
		g.Go(func() error {
			for i := w; i < len(candidates); i += r.opts.workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				r.tryMove(int(candidates[i]), c)
			}
			return nil
		})
	}
	return g.Wait()
}

// tryMove moves v to the adjacent block with the most negative gain, if any.
func (r *Refiner) tryMove(v int, c *counters) {
	var (
		best     = conductance.NoPartition
		bestGain int64
		from     conductance.PartitionID
	)
	for _, to := range r.graph.AdjacentBlocks(v) {
		preview, err := r.graph.PreviewMove(v, to)
		if err != nil {
			continue
		}
		if g := gain.Gain(r.update(preview, r.queue.TopThreeInfo())); g < bestGain {
			best, bestGain, from = to, g, preview.From.Partition
		}
	}
	if best == conductance.NoPartition {
		return
	}

	top := r.queue.TopThreeInfo()
	res, err := r.graph.Move(v, from, best)
	switch {
	case errors.Is(err, partition.ErrStaleMove), errors.Is(err, partition.ErrLastVertex):
		c.stale.Add(1)
		return
	case err != nil:
		return
	}
	r.adjust(res, c)

	// the partition may have changed since the preview
	if gain.Gain(r.update(res, top)) < 0 {
		c.moves.Add(1)
		return
	}
	back, err := r.graph.Move(v, best, from)
	if err != nil {
		c.moves.Add(1)
		return
	}
	r.adjust(back, c)
	c.reverted.Add(1)
	r.opts.logger.WithPartition(from).Debug("move reverted", "vertex", v, "to", best)
}

func (r *Refiner) adjust(res partition.MoveResult, c *counters) {
	_, fromVol := res.From.Volumes(r.opts.mode)
	_, toVol := res.To.Volumes(r.opts.mode)
	if !r.queue.AdjustKey(res.From.Partition, res.From.CutWeightAfter, fromVol) {
		c.skipped.Add(1)
	}
	if !r.queue.AdjustKey(res.To.Partition, res.To.CutWeightAfter, toVol) {
		c.skipped.Add(1)
	}
}

func (r *Refiner) update(res partition.MoveResult, top [3]conductance.Info) *gain.Update {
	fromBefore, fromAfter := res.From.Volumes(r.opts.mode)
	toBefore, toAfter := res.To.Volumes(r.opts.mode)
	return &gain.Update{
		From:                res.From.Partition,
		To:                  res.To.Partition,
		CutWeightFromBefore: res.From.CutWeightBefore,
		CutWeightFromAfter:  res.From.CutWeightAfter,
		CutWeightToBefore:   res.To.CutWeightBefore,
		CutWeightToAfter:    res.To.CutWeightAfter,
		VolumeFromBefore:    fromBefore,
		VolumeFromAfter:     fromAfter,
		VolumeToBefore:      toBefore,
		VolumeToAfter:       toAfter,
		TotalVolume:         r.total,
		WeightedDegree:      res.Degree(r.opts.mode),
		K:                   r.graph.K(),
		TopThreeBefore:      top,
	}
}
