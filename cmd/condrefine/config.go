package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/conductance"
	"github.com/hupe1980/conductance/snapshot"
)

const envPrefix = "CONDREFINE"

// Config is the effective configuration of a run.
type Config struct {
	Vertices    int    `yaml:"vertices"`
	Edges       int    `yaml:"edges"`
	MaxWeight   uint64 `yaml:"max_weight"`
	K           int    `yaml:"k"`
	Seed        int64  `yaml:"seed"`
	Workers     int    `yaml:"workers"`
	MaxRounds   int    `yaml:"max_rounds"`
	StatsMode   string `yaml:"stats_mode"`
	Checks      bool   `yaml:"checks"`
	Compression string `yaml:"compression"`
	Snapshot    string `yaml:"snapshot"`
	Report      string `yaml:"report"`
	MetricsAddr string `yaml:"metrics_addr"`
	MemoryLimit int64  `yaml:"memory_limit"`
	IOLimit     int64  `yaml:"io_limit"`
	LogFormat   string `yaml:"log_format"`
	LogLevel    string `yaml:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("vertices", 2000)
	v.SetDefault("edges", 10000)
	v.SetDefault("max_weight", 5)
	v.SetDefault("k", 8)
	v.SetDefault("seed", 42)
	v.SetDefault("workers", 0) // GOMAXPROCS
	v.SetDefault("max_rounds", 100)
	v.SetDefault("stats_mode", "live") // live or original
	v.SetDefault("checks", false)
	v.SetDefault("compression", "zstd") // none, lz4 or zstd
	v.SetDefault("snapshot", "")
	v.SetDefault("report", "") // stdout
	v.SetDefault("metrics_addr", "")
	v.SetDefault("memory_limit", 0) // bytes, 0 is unlimited
	v.SetDefault("io_limit", 0)     // snapshot bytes per second, 0 is unlimited
	v.SetDefault("log_format", "pretty") // pretty, json, or text
	v.SetDefault("log_level", "info")    // debug, info, warn, error
}

// loadConfig merges defaults, the optional YAML file at path and CONDREFINE_*
// environment variables, in increasing precedence. A missing file is not an
// error.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Vertices:    v.GetInt("vertices"),
		Edges:       v.GetInt("edges"),
		MaxWeight:   v.GetUint64("max_weight"),
		K:           v.GetInt("k"),
		Seed:        v.GetInt64("seed"),
		Workers:     v.GetInt("workers"),
		MaxRounds:   v.GetInt("max_rounds"),
		StatsMode:   v.GetString("stats_mode"),
		Checks:      v.GetBool("checks"),
		Compression: v.GetString("compression"),
		Snapshot:    v.GetString("snapshot"),
		Report:      v.GetString("report"),
		MetricsAddr: v.GetString("metrics_addr"),
		MemoryLimit: v.GetInt64("memory_limit"),
		IOLimit:     v.GetInt64("io_limit"),
		LogFormat:   v.GetString("log_format"),
		LogLevel:    v.GetString("log_level"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.K < 2:
		return fmt.Errorf("k must be at least 2, got %d", c.K)
	case c.Vertices < c.K:
		return fmt.Errorf("need at least k=%d vertices, got %d", c.K, c.Vertices)
	case c.Edges < c.Vertices-1:
		return fmt.Errorf("need at least %d edges to connect %d vertices, got %d", c.Vertices-1, c.Vertices, c.Edges)
	case c.MaxWeight == 0:
		return errors.New("max_weight must be positive")
	case c.MaxRounds < 1:
		return fmt.Errorf("max_rounds must be positive, got %d", c.MaxRounds)
	case c.MemoryLimit < 0 || c.IOLimit < 0:
		return errors.New("memory_limit and io_limit must not be negative")
	}
	if _, err := parseStatsMode(c.StatsMode); err != nil {
		return err
	}
	if _, err := snapshot.ParseCompression(c.Compression); err != nil {
		return err
	}
	return nil
}

func parseStatsMode(s string) (conductance.StatsMode, error) {
	switch strings.ToLower(s) {
	case "live", "":
		return conductance.StatsLive, nil
	case "original":
		return conductance.StatsOriginal, nil
	default:
		return 0, fmt.Errorf("unknown stats mode %q", s)
	}
}

// writeConfig writes cfg as YAML to path.
func writeConfig(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(f)
	if err := enc.Encode(cfg); err != nil {
		_ = f.Close()
		return fmt.Errorf("write config %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
