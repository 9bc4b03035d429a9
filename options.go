package conductance

import (
	"log/slog"
	"runtime"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	statsMode        StatsMode
	parallelism      int
	invariantChecks  bool
}

// Option configures a Queue.
type Option func(*options)

// WithLogger configures structured logging for queue operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := conductance.NewJSONLogger(slog.LevelDebug)
//	q := conductance.NewQueue(conductance.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &conductance.BasicMetricsCollector{}
//	q := conductance.NewQueue(conductance.WithMetricsCollector(metrics))
//	// ... refine ...
//	stats := metrics.GetStats()
//	fmt.Printf("skipped: %d of %d\n", stats.AdjustKeySkipped, stats.AdjustKeyCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithStatsMode selects whether volumes are read from the current partition
// state (StatsLive) or the original, un-contracted baseline (StatsOriginal).
// The default is StatsOriginal. The mode is fixed once Initialize ran.
func WithStatsMode(mode StatsMode) Option {
	return func(o *options) {
		o.statsMode = mode
	}
}

// WithParallelism bounds the number of goroutines used by Initialize and
// GlobalUpdate. Values <= 0 select runtime.GOMAXPROCS(0).
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithInvariantChecks enables assertions on partition statistics.
//
// When enabled, Initialize, GlobalUpdate and UpdateTotalVolume panic with an
// *InvariantError if a partition reports cut > volume, volume > total or
// cut + volume > total. Stale AdjustKey calls are never asserted; they are
// expected under concurrency and are skipped.
func WithInvariantChecks(enabled bool) Option {
	return func(o *options) {
		o.invariantChecks = enabled
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		statsMode:        StatsOriginal,
		parallelism:      0,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.parallelism <= 0 {
		o.parallelism = runtime.GOMAXPROCS(0)
	}
	return o
}
