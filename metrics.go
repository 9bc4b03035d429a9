package conductance

import (
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"
)

// RebuildKind identifies which operation recomputed the whole queue.
type RebuildKind uint8

const (
	// RebuildInitialize is the first population of the queue.
	RebuildInitialize RebuildKind = iota
	// RebuildGlobalUpdate is a full recompute from ground truth.
	RebuildGlobalUpdate
	// RebuildTotalVolume is a rescale after the reference total volume changed.
	RebuildTotalVolume
)

func (k RebuildKind) String() string {
	switch k {
	case RebuildInitialize:
		return "initialize"
	case RebuildGlobalUpdate:
		return "global_update"
	case RebuildTotalVolume:
		return "total_volume"
	default:
		return "unknown"
	}
}

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus
// (see the promcollector package).
//
// Implementations must be safe for concurrent use: RecordAdjustKey is called
// from every refinement worker.
type MetricsCollector interface {
	// RecordAdjustKey is called after each AdjustKey.
	// applied is false when the update was skipped as stale.
	RecordAdjustKey(applied bool)

	// RecordRebuild is called after Initialize, GlobalUpdate and UpdateTotalVolume.
	RecordRebuild(kind RebuildKind, k int, duration time.Duration)

	// RecordCheck is called after each Check with its result.
	RecordCheck(ok bool)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdjustKey(bool)                          {}
func (NoopMetricsCollector) RecordRebuild(RebuildKind, int, time.Duration) {}
func (NoopMetricsCollector) RecordCheck(bool)                              {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AdjustKeyCount   atomic.Int64
	AdjustKeySkipped atomic.Int64
	_                cpu.CacheLinePad // keep the hot counters off the rebuild line
	RebuildCount     atomic.Int64
	RebuildNanos     atomic.Int64
	GlobalUpdates    atomic.Int64
	CheckCount       atomic.Int64
	CheckFailures    atomic.Int64
}

// RecordAdjustKey implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdjustKey(applied bool) {
	b.AdjustKeyCount.Add(1)
	if !applied {
		b.AdjustKeySkipped.Add(1)
	}
}

// RecordRebuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRebuild(kind RebuildKind, k int, duration time.Duration) {
	b.RebuildCount.Add(1)
	b.RebuildNanos.Add(duration.Nanoseconds())
	if kind == RebuildGlobalUpdate {
		b.GlobalUpdates.Add(1)
	}
}

// RecordCheck implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCheck(ok bool) {
	b.CheckCount.Add(1)
	if !ok {
		b.CheckFailures.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AdjustKeyCount:   b.AdjustKeyCount.Load(),
		AdjustKeySkipped: b.AdjustKeySkipped.Load(),
		RebuildCount:     b.RebuildCount.Load(),
		RebuildAvgNanos:  b.getAvgRebuildNanos(),
		GlobalUpdates:    b.GlobalUpdates.Load(),
		CheckCount:       b.CheckCount.Load(),
		CheckFailures:    b.CheckFailures.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgRebuildNanos() int64 {
	count := b.RebuildCount.Load()
	if count == 0 {
		return 0
	}
	return b.RebuildNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector counters.
type BasicMetricsStats struct {
	AdjustKeyCount   int64
	AdjustKeySkipped int64
	RebuildCount     int64
	RebuildAvgNanos  int64
	GlobalUpdates    int64
	CheckCount       int64
	CheckFailures    int64
}
