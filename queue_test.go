package conductance_test

import (
	"bytes"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/conductance"
	"github.com/hupe1980/conductance/fraction"
	"github.com/hupe1980/conductance/testutil"
)

func scenarioStats() *testutil.Stats {
	return testutil.NewStats([]uint64{10, 4, 8, 6}, []uint64{30, 20, 25, 25}, 100)
}

func newInitialized(t *testing.T, src conductance.StatsSource, opts ...conductance.Option) *conductance.Queue {
	t.Helper()
	q := conductance.NewQueue(opts...)
	require.NoError(t, q.Initialize(src))
	return q
}

// requireExactTopThree compares the published top three against a full scan.
func requireExactTopThree(t *testing.T, q *conductance.Queue, src conductance.StatsSource, mode conductance.StatsMode) {
	t.Helper()

	all := conductance.Conductances(src, mode)
	slices.SortFunc(all, func(a, b conductance.Info) int {
		return b.Fraction.Compare(a.Fraction)
	})

	got := q.TopThreeInfo()
	for i := range 3 {
		if i >= len(all) {
			assert.Equal(t, conductance.NoPartition, got[i].Partition, "slot %d", i)
			assert.True(t, got[i].Fraction.IsInfinite(), "slot %d", i)
			continue
		}
		require.NotEqual(t, conductance.NoPartition, got[i].Partition, "slot %d", i)
		assert.True(t, all[i].Fraction.Equal(got[i].Fraction),
			"slot %d: want %s, got %s", i, all[i].Fraction, got[i].Fraction)
		f, ok := q.Fraction(got[i].Partition)
		require.True(t, ok)
		assert.True(t, f.Equal(got[i].Fraction))
	}
}

func TestQueueScenario(t *testing.T) {
	stats := scenarioStats()
	q := newInitialized(t, stats)

	assert.True(t, q.Initialized())
	assert.Equal(t, 4, q.Size())
	assert.Equal(t, conductance.PartitionID(0), q.Top())
	assert.Equal(t, conductance.PartitionID(2), q.SecondTop())
	assert.Equal(t, [3]conductance.PartitionID{0, 2, 3}, q.TopThree())
	assert.InDelta(t, 0.333, q.Conductance(0), 1e-3)
	assert.InDelta(t, 0.200, q.Conductance(1), 1e-3)
	assert.InDelta(t, 0.320, q.Conductance(2), 1e-3)
	assert.InDelta(t, 0.240, q.Conductance(3), 1e-3)
	assert.True(t, q.Check(stats))

	t.Run("AdjustKey", func(t *testing.T) {
		require.True(t, q.AdjustKey(0, 5, 30))
		stats.Set(0, 5, 30)

		assert.InDelta(t, 0.167, q.Conductance(0), 1e-3)
		assert.Equal(t, conductance.PartitionID(2), q.Top())
		assert.True(t, fraction.New(8, 25).Equal(q.TopFraction()))
		assert.True(t, fraction.New(6, 25).Equal(q.SecondTopFraction()))
		assert.True(t, q.Check(stats))
	})

	t.Run("UpdateTotalVolume", func(t *testing.T) {
		require.NoError(t, q.UpdateTotalVolume(200))
		stats.SetOriginalTotal(200)

		assert.Equal(t, uint64(200), q.TotalVolume())
		for i, vol := range []uint64{30, 20, 25, 25} {
			f, ok := q.Fraction(conductance.PartitionID(i))
			require.True(t, ok)
			assert.Equal(t, min(vol, 200-vol), f.Denominator())
		}
		assert.Equal(t, conductance.PartitionID(2), q.Top())
		assert.True(t, q.Check(stats))
	})
}

func TestQueueComplement(t *testing.T) {
	stats := testutil.NewStats([]uint64{12, 12}, []uint64{70, 30}, 100)
	q := newInitialized(t, stats)

	f, _ := q.Fraction(0)
	assert.Equal(t, uint64(30), f.Denominator())
	assert.True(t, q.Check(stats))

	require.NoError(t, q.UpdateTotalVolume(200))
	stats.SetOriginalTotal(200)

	f, _ = q.Fraction(0)
	assert.Equal(t, uint64(70), f.Denominator())
	f, _ = q.Fraction(1)
	assert.Equal(t, uint64(30), f.Denominator())
	assert.Equal(t, conductance.PartitionID(1), q.Top())
	assert.True(t, q.Check(stats))

	require.NoError(t, q.UpdateTotalVolume(100))
	stats.SetOriginalTotal(100)
	assert.True(t, q.Check(stats))
}

func TestQueueInitialize(t *testing.T) {
	rng := testutil.NewRNG(4711)

	for _, k := range []int{1, 2, 3, 4, 7, 64, 513, 3000} {
		stats := rng.RandomStats(k, uint64(k)*1000)
		q := newInitialized(t, stats, conductance.WithParallelism(4), conductance.WithInvariantChecks(true))

		assert.True(t, q.Check(stats), "k=%d", k)
		worst := conductance.WorstConductance(stats, conductance.StatsOriginal)
		assert.True(t, worst.Fraction.Equal(q.TopFraction()), "k=%d", k)
		requireExactTopThree(t, q, stats, conductance.StatsOriginal)
	}

	t.Run("InvalidK", func(t *testing.T) {
		q := conductance.NewQueue()
		err := q.Initialize(testutil.NewStats(nil, nil, 0))
		assert.ErrorIs(t, err, conductance.ErrInvalidK)
		assert.False(t, q.Initialized())
	})

	t.Run("Idempotent", func(t *testing.T) {
		metrics := &conductance.BasicMetricsCollector{}
		q := conductance.NewQueue(conductance.WithMetricsCollector(metrics))
		stats := rng.RandomStats(32, 5000)

		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, q.Initialize(stats))
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), metrics.GetStats().RebuildCount)
		assert.True(t, q.Check(stats))
	})
}

func TestQueueAdjustKey(t *testing.T) {
	rng := testutil.NewRNG(4711)

	for _, k := range []int{1, 2, 3, 5, 17, 100} {
		const total = 10_000
		stats := rng.RandomStats(k, total)
		q := newInitialized(t, stats)

		for range 500 {
			p := conductance.PartitionID(rng.Intn(k))
			cut, vol := rng.RandomValidUpdate(total)
			require.True(t, q.AdjustKey(p, cut, vol))
			stats.Set(p, cut, vol)
			stats.SetOriginal(p, vol)
		}

		assert.True(t, q.Check(stats), "k=%d", k)
		requireExactTopThree(t, q, stats, conductance.StatsOriginal)
	}
}

func TestQueueAdjustKeyStale(t *testing.T) {
	metrics := &conductance.BasicMetricsCollector{}
	var buf bytes.Buffer
	logger := conductance.NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	stats := scenarioStats()
	q := newInitialized(t, stats, conductance.WithMetricsCollector(metrics), conductance.WithLogger(logger))

	tests := []struct {
		name       string
		p          conductance.PartitionID
		cut, value uint64
	}{
		{"CutAboveVolume", 0, 40, 30},
		{"VolumeAboveTotal", 0, 10, 120},
		{"CutAboveComplement", 0, 60, 70},
		{"UnknownPartition", 9, 1, 2},
		{"NegativePartition", -1, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, q.AdjustKey(tt.p, tt.cut, tt.value))
		})
	}

	stats2 := metrics.GetStats()
	assert.Equal(t, int64(len(tests)), stats2.AdjustKeyCount)
	assert.Equal(t, int64(len(tests)), stats2.AdjustKeySkipped)
	assert.Contains(t, buf.String(), "adjust key skipped")
	assert.True(t, q.Check(stats), "skipped updates must not change the queue")
	assert.Equal(t, conductance.PartitionID(0), q.Top())
}

func TestQueueConcurrentAdjustKey(t *testing.T) {
	const (
		k       = 64
		total   = 100_000
		workers = 8
	)
	rng := testutil.NewRNG(4711)
	stats := rng.RandomStats(k, total)
	q := newInitialized(t, stats)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				// each partition has a single writer
				p := conductance.PartitionID(w + workers*rng.Intn(k/workers))
				cut, vol := rng.RandomValidUpdate(total)
				stats.Set(p, cut, vol)
				stats.SetOriginal(p, vol)
				assert.True(t, q.AdjustKey(p, cut, vol))
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 2000 {
			top := q.TopThree()
			assert.NotEqual(t, conductance.NoPartition, top[0])
			_ = q.TopThreeInfo()
		}
	}()
	wg.Wait()

	assert.True(t, q.Check(stats))
	requireExactTopThree(t, q, stats, conductance.StatsOriginal)
}

func TestQueueGlobalUpdate(t *testing.T) {
	rng := testutil.NewRNG(4711)

	t.Run("NotInitialized", func(t *testing.T) {
		q := conductance.NewQueue()
		assert.ErrorIs(t, q.GlobalUpdate(scenarioStats()), conductance.ErrNotInitialized)
		assert.ErrorIs(t, q.UpdateTotalVolume(10), conductance.ErrNotInitialized)
	})

	t.Run("SizeMismatch", func(t *testing.T) {
		q := newInitialized(t, scenarioStats())
		err := q.GlobalUpdate(rng.RandomStats(5, 100))
		assert.ErrorIs(t, err, conductance.ErrSizeMismatch)
	})

	t.Run("RemovesDrift", func(t *testing.T) {
		const total = 50_000
		stats := rng.RandomStats(40, total)
		metrics := &conductance.BasicMetricsCollector{}
		q := newInitialized(t, stats, conductance.WithMetricsCollector(metrics))

		for range 100 {
			p := conductance.PartitionID(rng.Intn(40))
			cut, vol := rng.RandomValidUpdate(total)
			stats.Set(p, cut, vol)
			stats.SetOriginal(p, vol)
		}
		assert.False(t, q.Check(stats))

		require.NoError(t, q.GlobalUpdate(stats))
		assert.True(t, q.Check(stats))
		requireExactTopThree(t, q, stats, conductance.StatsOriginal)

		before := q.TopThree()
		require.NoError(t, q.GlobalUpdate(stats))
		assert.Equal(t, before, q.TopThree())

		m := metrics.GetStats()
		assert.Equal(t, int64(2), m.GlobalUpdates)
		assert.Equal(t, int64(2), m.CheckCount)
		assert.Equal(t, int64(1), m.CheckFailures)
	})

	t.Run("Concurrent", func(t *testing.T) {
		stats := rng.RandomStats(2048, 1<<30)
		q := newInitialized(t, stats, conductance.WithParallelism(4))

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, q.GlobalUpdate(stats))
			}()
		}
		wg.Wait()
		assert.True(t, q.Check(stats))
	})
}

func TestQueueStatsMode(t *testing.T) {
	stats := testutil.NewStats([]uint64{10, 10}, []uint64{40, 60}, 100)
	stats.SetOriginal(0, 80)
	stats.SetOriginal(1, 120)
	stats.SetOriginalTotal(200)

	live := newInitialized(t, stats, conductance.WithStatsMode(conductance.StatsLive))
	original := newInitialized(t, stats)

	assert.False(t, live.UsesOriginalStats())
	assert.True(t, original.UsesOriginalStats())
	assert.Equal(t, uint64(100), live.TotalVolume())
	assert.Equal(t, uint64(200), original.TotalVolume())
	assert.True(t, fraction.New(10, 40).Equal(live.TopFraction()))
	assert.True(t, fraction.New(10, 80).Equal(original.TopFraction()))
	assert.True(t, live.Check(stats))
	assert.True(t, original.Check(stats))

	assert.ErrorIs(t, live.SetStatsMode(conductance.StatsOriginal), conductance.ErrAlreadyInitialized)

	q := conductance.NewQueue()
	require.NoError(t, q.SetStatsMode(conductance.StatsLive))
	assert.Equal(t, conductance.StatsLive, q.StatsMode())
	assert.Equal(t, "live", q.StatsMode().String())
}

func TestQueueReset(t *testing.T) {
	q := newInitialized(t, scenarioStats())

	q.Reset()

	assert.False(t, q.Initialized())
	assert.Equal(t, 0, q.Size())
	assert.Equal(t, conductance.NoPartition, q.Top())
	assert.Equal(t, [3]conductance.PartitionID{-1, -1, -1}, q.TopThree())
	assert.False(t, q.AdjustKey(0, 1, 2))
	_, ok := q.Fraction(0)
	assert.False(t, ok)

	stats := testutil.NewStats([]uint64{1, 2}, []uint64{5, 5}, 10)
	require.NoError(t, q.Initialize(stats))
	assert.Equal(t, 2, q.Size())
	assert.Equal(t, conductance.PartitionID(1), q.Top())
	assert.True(t, q.Check(stats))
}

func TestQueueSmallK(t *testing.T) {
	stats := testutil.NewStats([]uint64{0}, []uint64{50}, 50)
	q := newInitialized(t, stats)

	assert.Equal(t, conductance.PartitionID(0), q.Top())
	assert.Equal(t, conductance.NoPartition, q.SecondTop())
	assert.Equal(t, [3]conductance.PartitionID{0, -1, -1}, q.TopThree())
	assert.True(t, q.Check(stats))

	stats = testutil.NewStats([]uint64{3, 3}, []uint64{10, 10}, 20)
	q = newInitialized(t, stats)
	top := q.TopThree()
	assert.ElementsMatch(t, []conductance.PartitionID{0, 1}, top[:2])
	assert.Equal(t, conductance.NoPartition, top[2])
}

func TestQueueGuard(t *testing.T) {
	stats := scenarioStats()
	q := newInitialized(t, stats)

	g := q.Acquire()
	require.True(t, g.AdjustKey(0, 5, 30))
	assert.Equal(t, conductance.PartitionID(2), g.Top())
	assert.Equal(t, conductance.PartitionID(3), g.SecondTop())
	assert.Equal(t, [3]conductance.PartitionID{2, 3, 1}, g.TopThree())
	f, ok := g.Fraction(2)
	require.True(t, ok)
	assert.True(t, fraction.New(8, 25).Equal(f))
	stats.Set(0, 5, 30)
	assert.True(t, g.Check(stats))
	require.NoError(t, g.GlobalUpdate(stats))
	assert.Equal(t, uint64(100), g.TotalVolume())
	g.Release()

	assert.Equal(t, conductance.PartitionID(2), q.Top())
	assert.Panics(t, g.Release)
}

func TestQueueInvariantChecks(t *testing.T) {
	bad := testutil.NewStats([]uint64{40, 1}, []uint64{30, 70}, 100)

	t.Run("Enabled", func(t *testing.T) {
		q := conductance.NewQueue(conductance.WithInvariantChecks(true))
		defer func() {
			r := recover()
			require.NotNil(t, r)
			err, ok := r.(error)
			require.True(t, ok)
			assert.ErrorIs(t, err, conductance.ErrInvariantViolation)

			var ie *conductance.InvariantError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, conductance.PartitionID(0), ie.Partition)
		}()
		_ = q.Initialize(bad)
	})

	t.Run("Disabled", func(t *testing.T) {
		q := conductance.NewQueue()
		assert.NotPanics(t, func() {
			require.NoError(t, q.Initialize(bad))
		})
		assert.Equal(t, conductance.PartitionID(0), q.Top())
	})
}

func TestQueueMemoryUsage(t *testing.T) {
	q := conductance.NewQueue()
	empty := q.MemoryUsage()

	require.NoError(t, q.Initialize(testutil.NewRNG(1).RandomStats(1000, 1_000_000)))

	assert.Greater(t, q.MemoryUsage(), empty)
}
