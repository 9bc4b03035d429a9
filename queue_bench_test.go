package conductance_test

import (
	"fmt"
	"testing"

	"github.com/hupe1980/conductance"
	"github.com/hupe1980/conductance/testutil"
)

func BenchmarkInitialize(b *testing.B) {
	for _, k := range []int{64, 4096, 65536} {
		b.Run(fmt.Sprintf("k=%d", k), func(b *testing.B) {
			stats := testutil.NewRNG(42).RandomStats(k, 1<<40)
			q := conductance.NewQueue()

			b.ReportAllocs()
			for b.Loop() {
				q.Reset()
				if err := q.Initialize(stats); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkAdjustKey(b *testing.B) {
	const k, total = 4096, 1 << 40
	rng := testutil.NewRNG(42)
	q := conductance.NewQueue()
	if err := q.Initialize(rng.RandomStats(k, total)); err != nil {
		b.Fatal(err)
	}

	type update struct {
		p           conductance.PartitionID
		cut, volume uint64
	}
	updates := make([]update, 1024)
	for i := range updates {
		cut, volume := rng.RandomValidUpdate(total)
		updates[i] = update{conductance.PartitionID(rng.Intn(k)), cut, volume}
	}

	b.Run("Serial", func(b *testing.B) {
		b.ReportAllocs()
		i := 0
		for b.Loop() {
			u := updates[i%len(updates)]
			q.AdjustKey(u.p, u.cut, u.volume)
			i++
		}
	})

	b.Run("Parallel", func(b *testing.B) {
		b.RunParallel(func(pb *testing.PB) {
			i := 0
			for pb.Next() {
				u := updates[i%len(updates)]
				q.AdjustKey(u.p, u.cut, u.volume)
				i++
			}
		})
	})
}

func BenchmarkTopThreeInfo(b *testing.B) {
	q := conductance.NewQueue()
	if err := q.Initialize(testutil.NewRNG(42).RandomStats(4096, 1<<40)); err != nil {
		b.Fatal(err)
	}

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = q.TopThreeInfo()
		}
	})
}
