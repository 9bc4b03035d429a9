// Package promcollector exports conductance queue metrics to Prometheus.
package promcollector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/conductance"
)

var _ conductance.MetricsCollector = (*Collector)(nil)

// Collector implements conductance.MetricsCollector on top of Prometheus
// counters and histograms.
type Collector struct {
	adjustKeys      *prometheus.CounterVec
	rebuilds        *prometheus.CounterVec
	rebuildDuration *prometheus.HistogramVec
	blocks          prometheus.Gauge
	checks          *prometheus.CounterVec
}

// New registers the conductance metrics on reg and returns the collector.
// A nil reg registers on prometheus.DefaultRegisterer. The namespace prefixes
// every metric name; it defaults to "conductance" when empty.
func New(reg prometheus.Registerer, namespace string) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "conductance"
	}
	f := promauto.With(reg)

	return &Collector{
		// Labels: "applied", "skipped"
		adjustKeys: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adjust_key_total",
			Help:      "Incremental key updates by outcome",
		}, []string{"result"}),
		rebuilds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Full queue recomputations by kind",
		}, []string{"kind"}),
		rebuildDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of full queue recomputations",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"kind"}),
		blocks: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "blocks",
			Help:      "Number of blocks in the most recently rebuilt queue",
		}),
		// Labels: "ok", "mismatch"
		checks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Consistency checks against ground truth by result",
		}, []string{"result"}),
	}
}

// RecordAdjustKey implements conductance.MetricsCollector.
func (c *Collector) RecordAdjustKey(applied bool) {
	result := "applied"
	if !applied {
		result = "skipped"
	}
	c.adjustKeys.WithLabelValues(result).Inc()
}

// RecordRebuild implements conductance.MetricsCollector.
func (c *Collector) RecordRebuild(kind conductance.RebuildKind, k int, duration time.Duration) {
	c.rebuilds.WithLabelValues(kind.String()).Inc()
	c.rebuildDuration.WithLabelValues(kind.String()).Observe(duration.Seconds())
	c.blocks.Set(float64(k))
}

// RecordCheck implements conductance.MetricsCollector.
func (c *Collector) RecordCheck(ok bool) {
	result := "ok"
	if !ok {
		result = "mismatch"
	}
	c.checks.WithLabelValues(result).Inc()
}
