// Command condrefine generates a random partitioned graph, lowers the worst
// block conductance with parallel local search and reports the result as JSON.
//
// Configuration is read from an optional YAML file (-config) and CONDREFINE_*
// environment variables, e.g. CONDREFINE_K=16.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	initConfig := flag.Bool("init", false, "write the effective configuration to -config and exit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := newLogger(os.Stderr, ParseLogFormat(cfg.LogFormat), ParseLogLevel(cfg.LogLevel))

	if *initConfig {
		if *configPath == "" {
			logger.Error("-init needs -config")
			os.Exit(2)
		}
		if err := writeConfig(*configPath, cfg); err != nil {
			logger.Error("failed to write config", "error", err)
			os.Exit(1)
		}
		slog.Info("config written", "file", *configPath)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("refinement interrupted")
			os.Exit(130)
		}
		logger.Error("refinement failed", "error", err)
		os.Exit(1)
	}
}
