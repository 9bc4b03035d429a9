package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/conductance"
	"github.com/hupe1980/conductance/partition"
	"github.com/hupe1980/conductance/promcollector"
	"github.com/hupe1980/conductance/refine"
	"github.com/hupe1980/conductance/resource"
	"github.com/hupe1980/conductance/snapshot"
	"github.com/hupe1980/conductance/testutil"
)

// buildGraph generates the random partitioned graph described by cfg.
func buildGraph(cfg *Config) (*partition.Graph, error) {
	rng := testutil.NewRNG(cfg.Seed)
	b := partition.NewBuilder(cfg.Vertices)
	for _, e := range rng.RandomEdges(cfg.Vertices, cfg.Edges, cfg.MaxWeight) {
		if err := b.AddEdge(e.U, e.V, e.W); err != nil {
			return nil, err
		}
	}
	return b.Build(cfg.K, rng.RandomAssignment(cfg.Vertices, cfg.K))
}

// run refines a random graph and writes the report to out, or to cfg.Report
// when set. A canceled ctx still produces a report of the partial run.
func run(ctx context.Context, cfg *Config, logger *conductance.Logger, out io.Writer) error {
	mode, err := parseStatsMode(cfg.StatsMode)
	if err != nil {
		return err
	}
	compression, err := snapshot.ParseCompression(cfg.Compression)
	if err != nil {
		return err
	}

	g, err := buildGraph(cfg)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}
	logger.WithK(g.K()).Info("graph built",
		"vertices", g.NumVertices(),
		"edges", g.NumEdges(),
		"total_volume", g.TotalVolume(),
	)

	reg := prometheus.NewRegistry()
	collector := promcollector.New(reg, "")
	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   cfg.MemoryLimit,
		IOLimitBytesPerSec: cfg.IOLimit,
	})
	r := refine.New(g,
		refine.WithWorkers(cfg.Workers),
		refine.WithMaxRounds(cfg.MaxRounds),
		refine.WithStatsMode(mode),
		refine.WithLogger(logger),
		refine.WithMetricsCollector(collector),
		refine.WithInvariantChecks(cfg.Checks),
		refine.WithResourceController(rc),
	)
	res, runErr := r.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return fmt.Errorf("refine: %w", runErr)
	}
	consistent := r.Queue().Check(g)
	logger.Info("refinement finished",
		"initial", res.Initial.Fraction.Value(),
		"final", res.Final.Fraction.Value(),
		"rounds", res.Rounds,
		"moves", res.Moves,
		"elapsed", res.Elapsed,
	)

	if cfg.Snapshot != "" {
		if err := writeSnapshot(ctx, cfg.Snapshot, g, compression, rc); err != nil {
			return err
		}
	}

	if cfg.Report != "" {
		f, err := os.Create(cfg.Report)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := writeReport(out, newReport(cfg, mode, g, res, consistent)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return runErr
}

func writeSnapshot(ctx context.Context, path string, src conductance.StatsSource, c snapshot.Compression, rc *resource.Controller) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := resource.NewRateLimitedWriter(ctx, f, rc)
	if err := snapshot.Encode(w, snapshot.Capture(src), snapshot.WithCompression(c)); err != nil {
		_ = f.Close()
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return f.Close()
}
