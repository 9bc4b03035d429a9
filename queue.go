package conductance

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/cpu"
	"golang.org/x/time/rate"

	"github.com/hupe1980/conductance/fraction"
	"github.com/hupe1980/conductance/internal/bitset"
	"github.com/hupe1980/conductance/internal/conv"
	"github.com/hupe1980/conductance/internal/queue"
)

// minChunk is the smallest number of partitions handed to one goroutine
// during a parallel recompute.
const minChunk = 512

// indexedHeap is the part of the generic indexed max-heap the queue relies on.
type indexedHeap interface {
	Load(keys []fraction.Fraction)
	SetKey(id int32, key fraction.Fraction)
	AdjustKey(id int32, key fraction.Fraction)
	Build()
	SiftDown(i int)
	Top() int32
	Key(id int32) fraction.Fraction
	Position(id int32) int
	At(i int) queue.Entry[fraction.Fraction]
	Len() int
	Clear()
	IsHeap() bool
	PositionsMatch() bool
	MemoryUsage() int
}

var _ indexedHeap = (*queue.IndexedMaxHeap[fraction.Fraction])(nil)

// topThree is the immutable snapshot published for lock-free readers.
type topThree [3]Info

var emptyTop = &topThree{NoInfo, NoInfo, NoInfo}

// Queue is a thread-shared max-priority queue over the k blocks of a
// partition, keyed by exact conductance cut(p) / min(vol(p), total - vol(p)).
//
// Mutating operations take an internal mutex and are linearized.
// Top, SecondTop, TopThree and TopThreeInfo are lock-free: they read a
// snapshot republished after every mutation and may lag behind a concurrent
// writer. Use Acquire for a consistent view across several operations.
//
// The queue holds exactly k entries for the life of a partitioning pass;
// Reset returns it to the uninitialized state for the next pass.
type Queue struct {
	mu sync.Mutex
	_  cpu.CacheLinePad

	top         atomic.Pointer[topThree]
	initialized atomic.Bool
	updates     atomic.Uint64 // completed global updates
	_           cpu.CacheLinePad

	heap        indexedHeap
	complement  *bitset.BitSet
	keys        []fraction.Fraction // scratch for recomputes
	totalVolume Volume
	size        int
	mode        StatsMode

	opts     options
	logger   *Logger
	staleLog rate.Sometimes
}

// NewQueue creates an empty, uninitialized queue.
func NewQueue(optFns ...Option) *Queue {
	o := applyOptions(optFns)
	q := &Queue{
		heap:       queue.NewIndexedMax(fraction.Fraction.Greater),
		complement: bitset.New(0),
		mode:       o.statsMode,
		opts:       o,
		logger:     o.logger,
		staleLog:   rate.Sometimes{Interval: time.Second},
	}
	q.top.Store(emptyTop)
	return q
}

// Initialize reads cut weight and volume of every block of src in parallel and
// builds the heap in O(k).
//
// Calling Initialize on an initialized queue is a no-op, also when several
// goroutines race to initialize it: exactly one of them does the work.
func (q *Queue) Initialize(src StatsSource) error {
	if q.initialized.Load() {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.initializeLocked(src)
}

// Initialized reports whether Initialize completed since the last Reset.
func (q *Queue) Initialized() bool {
	return q.initialized.Load()
}

// Reset clears all state back to uninitialized. The stats mode is kept.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.heap.Clear()
	q.complement.Resize(0)
	q.keys = q.keys[:0]
	q.totalVolume = 0
	q.size = 0
	q.initialized.Store(false)
	q.top.Store(emptyTop)
}

// AdjustKey stores new statistics for p after a vertex move and restores the
// heap order. It reports whether the update was applied.
//
// Updates with volume < cut, total < volume or total < volume + cut are
// skipped: they come from a worker that raced with a newer move into or out
// of p, and the worker that made the last move will deliver a valid update.
func (q *Queue) AdjustKey(p PartitionID, cut, volume Volume) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.adjustKeyLocked(p, cut, volume)
}

// GlobalUpdate recomputes every entry from src and rebuilds the heap.
//
// Concurrent callers coalesce: a caller that waited for another global update
// to finish returns without rebuilding again.
func (q *Queue) GlobalUpdate(src StatsSource) error {
	seen := q.updates.Load()
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.updates.Load() != seen {
		return nil
	}
	return q.globalUpdateLocked(src)
}

// UpdateTotalVolume rescales every stored denominator to a new reference total
// volume, keeping each block's volume and cut weight.
func (q *Queue) UpdateTotalVolume(total Volume) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.updateTotalVolumeLocked(total)
}

// Check recomputes every entry from src and compares it with the stored
// state, the heap order and the position map. Mismatches are logged.
func (q *Queue) Check(src StatsSource) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.checkLocked(src)
}

// SetStatsMode changes the stats mode. It fails once the queue is initialized.
func (q *Queue) SetStatsMode(mode StatsMode) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.initialized.Load() {
		return ErrAlreadyInitialized
	}
	q.mode = mode
	return nil
}

// StatsMode returns the configured stats mode.
func (q *Queue) StatsMode() StatsMode {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.mode
}

// UsesOriginalStats reports whether the queue reads original volumes.
func (q *Queue) UsesOriginalStats() bool {
	return q.StatsMode() == StatsOriginal
}

// Size returns k, or 0 when uninitialized.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// TotalVolume returns the reference total volume the stored fractions use.
func (q *Queue) TotalVolume() Volume {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.totalVolume
}

// MemoryUsage returns an approximate memory consumption in bytes.
func (q *Queue) MemoryUsage() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.MemoryUsage() + q.complement.MemoryUsage() + cap(q.keys)*16
}

// Top returns the block with the worst conductance, or NoPartition.
func (q *Queue) Top() PartitionID {
	return q.top.Load()[0].Partition
}

// SecondTop returns the block with the second worst conductance, or NoPartition.
func (q *Queue) SecondTop() PartitionID {
	return q.top.Load()[1].Partition
}

// TopThree returns the three blocks with the worst conductance, worst first.
// Slots beyond k are NoPartition.
func (q *Queue) TopThree() [3]PartitionID {
	t := q.top.Load()
	return [3]PartitionID{t[0].Partition, t[1].Partition, t[2].Partition}
}

// TopThreeInfo returns the top three blocks with their fractions, worst first.
// This is the snapshot consumed by the gain package.
func (q *Queue) TopThreeInfo() [3]Info {
	return *q.top.Load()
}

// TopFraction returns the worst conductance, or fraction.Infinity when empty.
func (q *Queue) TopFraction() fraction.Fraction {
	return q.top.Load()[0].Fraction
}

// SecondTopFraction returns the second worst conductance, or fraction.Infinity.
func (q *Queue) SecondTopFraction() fraction.Fraction {
	return q.top.Load()[1].Fraction
}

// Fraction returns the stored fraction of p.
func (q *Queue) Fraction(p PartitionID) (fraction.Fraction, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fractionLocked(p)
}

// Conductance returns the stored conductance of p as a float64 for reporting.
func (q *Queue) Conductance(p PartitionID) float64 {
	f, ok := q.Fraction(p)
	if !ok {
		return 0
	}
	return f.Value()
}

func (q *Queue) initializeLocked(src StatsSource) error {
	if q.initialized.Load() {
		return nil
	}
	start := time.Now()

	k := src.K()
	if k <= 0 {
		return ErrInvalidK
	}
	if _, err := conv.IntToInt32(k); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}

	total := q.mode.Total(src)
	q.complement.Resize(uint64(k))
	keys := q.scratch(k)
	q.recompute(src, total, keys, "initialize")
	q.heap.Load(keys)

	q.totalVolume = total
	q.size = k
	q.initialized.Store(true)
	q.publishLocked()
	q.finishRebuild(RebuildInitialize, start)
	return nil
}

func (q *Queue) adjustKeyLocked(p PartitionID, cut, volume Volume) bool {
	if !q.initialized.Load() || p < 0 || int(p) >= q.size {
		q.opts.metricsCollector.RecordAdjustKey(false)
		return false
	}
	total := q.totalVolume
	if volume < cut || total < volume || total-volume < cut {
		q.opts.metricsCollector.RecordAdjustKey(false)
		q.staleLog.Do(func() {
			q.logger.LogSkippedUpdate(p, cut, volume, total)
		})
		return false
	}

	key, comp := conductanceKey(cut, volume, total)
	q.complement.Assign(uint64(p), comp)
	q.heap.AdjustKey(int32(p), key)
	q.publishLocked()
	q.opts.metricsCollector.RecordAdjustKey(true)
	return true
}

func (q *Queue) globalUpdateLocked(src StatsSource) error {
	if !q.initialized.Load() {
		return ErrNotInitialized
	}
	if k := src.K(); k != q.size {
		return fmt.Errorf("%w: queue has %d blocks, source has %d", ErrSizeMismatch, q.size, k)
	}
	start := time.Now()

	total := q.mode.Total(src)
	if q.opts.invariantChecks && q.mode == StatsOriginal && total != q.totalVolume {
		panic(&InvariantError{
			Op:          "global update",
			Partition:   NoPartition,
			Volume:      q.totalVolume,
			TotalVolume: total,
			Reason:      "original total volume changed",
		})
	}

	keys := q.scratch(q.size)
	q.recompute(src, total, keys, "global update")
	for i, key := range keys {
		q.heap.SetKey(int32(i), key)
	}
	q.heap.Build()

	q.totalVolume = total
	q.updates.Add(1)
	q.publishLocked()
	q.finishRebuild(RebuildGlobalUpdate, start)
	return nil
}

func (q *Queue) updateTotalVolumeLocked(total Volume) error {
	if !q.initialized.Load() {
		return ErrNotInitialized
	}
	start := time.Now()

	for i := 0; i < q.size; i++ {
		key := q.heap.Key(int32(i))
		volume := q.storedVolume(i, key)
		if q.opts.invariantChecks {
			if err := validateStats("update total volume", PartitionID(i), key.Numerator(), volume, total); err != nil {
				panic(err)
			}
		}
		next, comp := conductanceKey(key.Numerator(), volume, total)
		q.complement.Assign(uint64(i), comp)
		q.heap.SetKey(int32(i), next)
	}
	q.heap.Build()

	q.totalVolume = total
	q.publishLocked()
	q.finishRebuild(RebuildTotalVolume, start)
	return nil
}

func (q *Queue) checkLocked(src StatsSource) bool {
	ok := q.verifyLocked(src)
	q.opts.metricsCollector.RecordCheck(ok)
	return ok
}

func (q *Queue) verifyLocked(src StatsSource) bool {
	if !q.initialized.Load() {
		q.logger.Warn("check on uninitialized conductance queue")
		return false
	}
	if k := src.K(); k != q.size {
		q.logger.Warn("conductance queue size differs from source", "size", q.size, "k", k)
		return false
	}

	ok := true
	if total := q.mode.Total(src); total != q.totalVolume {
		q.logger.LogCheckMismatch(NoPartition, "total_volume", q.totalVolume, total)
		ok = false
	}
	for i := 0; i < q.size; i++ {
		p := PartitionID(i)
		key := q.heap.Key(int32(i))
		cut, volume := q.mode.BlockStats(src, p)
		if stored := q.storedVolume(i, key); stored != volume {
			q.logger.LogCheckMismatch(p, "volume", stored, volume)
			ok = false
		}
		if key.Numerator() != cut {
			q.logger.LogCheckMismatch(p, "cut_weight", key.Numerator(), cut)
			ok = false
		}
	}
	return ok && q.heap.IsHeap() && q.heap.PositionsMatch()
}

func (q *Queue) fractionLocked(p PartitionID) (fraction.Fraction, bool) {
	if p < 0 || int(p) >= q.size {
		return fraction.Infinity, false
	}
	return q.heap.Key(int32(p)), true
}

// storedVolume recovers a block's volume from its stored denominator.
// The complement flag is derivable as denominator < volume, i.e. the stored
// side is the smaller one and the block holds more than half of the total.
func (q *Queue) storedVolume(i int, key fraction.Fraction) Volume {
	if q.complement.Test(uint64(i)) {
		return q.totalVolume - key.Denominator()
	}
	return key.Denominator()
}

// recompute fills keys and complement flags for every block, in parallel for large k.
func (q *Queue) recompute(src StatsSource, total Volume, keys []fraction.Fraction, op string) {
	mode, checks := q.mode, q.opts.invariantChecks
	err := q.parallelFor(len(keys), func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			p := PartitionID(i)
			cut, volume := mode.BlockStats(src, p)
			if checks {
				if err := validateStats(op, p, cut, volume, total); err != nil {
					return err
				}
			}
			key, comp := conductanceKey(cut, volume, total)
			keys[i] = key
			q.complement.Assign(uint64(i), comp)
		}
		return nil
	})
	if err != nil {
		panic(err)
	}
}

func (q *Queue) parallelFor(n int, fn func(lo, hi int) error) error {
	workers := q.opts.parallelism
	if workers <= 1 || n <= minChunk {
		return fn(0, n)
	}
	chunk := max((n+workers-1)/workers, minChunk)

	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			return fn(lo, hi)
		})
	}
	return g.Wait()
}

func (q *Queue) scratch(k int) []fraction.Fraction {
	if cap(q.keys) < k {
		q.keys = make([]fraction.Fraction, k)
	}
	q.keys = q.keys[:k]
	return q.keys
}

// topThreeLocked finds the three largest entries of the binary heap: the root,
// the larger child, and the best of the other child and the larger child's children.
func (q *Queue) topThreeLocked() topThree {
	t := topThree{NoInfo, NoInfo, NoInfo}
	n := q.heap.Len()
	if n == 0 {
		return t
	}
	t[0] = q.infoAt(0)
	if n == 1 {
		return t
	}

	second := 1
	if n > 2 && q.heap.At(2).Key.Greater(q.heap.At(1).Key) {
		second = 2
	}
	t[1] = q.infoAt(second)

	third := -1
	for _, c := range [3]int{3 - second, 2*second + 1, 2*second + 2} {
		if c < n && (third < 0 || q.heap.At(c).Key.Greater(q.heap.At(third).Key)) {
			third = c
		}
	}
	if third >= 0 {
		t[2] = q.infoAt(third)
	}
	return t
}

func (q *Queue) infoAt(i int) Info {
	e := q.heap.At(i)
	return Info{Partition: PartitionID(e.ID), Fraction: e.Key}
}

func (q *Queue) publishLocked() {
	t := q.topThreeLocked()
	q.top.Store(&t)
}

func (q *Queue) finishRebuild(kind RebuildKind, start time.Time) {
	elapsed := time.Since(start)
	q.opts.metricsCollector.RecordRebuild(kind, q.size, elapsed)
	q.logger.LogRebuild(kind, q.size, q.totalVolume, q.topThreeLocked()[0], elapsed)
}
