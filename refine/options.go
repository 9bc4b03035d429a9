package refine

import (
	"runtime"

	"github.com/hupe1980/conductance"
	"github.com/hupe1980/conductance/resource"
)

type options struct {
	workers   int
	maxRounds int
	mode      conductance.StatsMode
	logger    *conductance.Logger
	metrics   conductance.MetricsCollector
	checks    bool
	resources *resource.Controller
}

// Option configures a Refiner.
type Option func(*options)

// WithWorkers sets the number of goroutines moving vertices. Values <= 0 select
// runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithMaxRounds bounds the number of rounds. The default is 100.
func WithMaxRounds(n int) Option {
	return func(o *options) {
		o.maxRounds = n
	}
}

// WithStatsMode selects the volumes the objective is normalized with.
// The default is conductance.StatsLive.
func WithStatsMode(mode conductance.StatsMode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithLogger sets the logger shared by the refiner and its queue.
func WithLogger(logger *conductance.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = conductance.NoopLogger()
		}
		o.logger = logger
	}
}

// WithMetricsCollector sets the collector the queue reports to.
func WithMetricsCollector(mc conductance.MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = conductance.NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithInvariantChecks enables the queue's invariant assertions.
func WithInvariantChecks(enabled bool) Option {
	return func(o *options) {
		o.checks = enabled
	}
}

// WithResourceController makes every Run take a run slot and reserve the
// queue's memory from rc. Runs sharing rc wait for a free slot.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		maxRounds: 100,
		mode:      conductance.StatsLive,
		logger:    conductance.NoopLogger(),
		metrics:   conductance.NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.workers <= 0 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	return o
}
