package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/conductance"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 2000, cfg.Vertices)
	assert.Equal(t, 10000, cfg.Edges)
	assert.Equal(t, uint64(5), cfg.MaxWeight)
	assert.Equal(t, 8, cfg.K)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 100, cfg.MaxRounds)
	assert.Equal(t, "live", cfg.StatsMode)
	assert.Equal(t, "zstd", cfg.Compression)
	assert.Equal(t, "pretty", cfg.LogFormat)
	assert.Empty(t, cfg.Report)
	assert.Zero(t, cfg.MemoryLimit)
	assert.Zero(t, cfg.IOLimit)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "condrefine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("k: 4\nvertices: 100\nedges: 400\nstats_mode: original\n"), 0o600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.K)
	assert.Equal(t, 100, cfg.Vertices)
	assert.Equal(t, "original", cfg.StatsMode)

	t.Setenv("CONDREFINE_K", "6")
	t.Setenv("CONDREFINE_COMPRESSION", "lz4")
	cfg, err = loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.K, "environment overrides the file")
	assert.Equal(t, "lz4", cfg.Compression)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.K)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"SmallK", map[string]string{"CONDREFINE_K": "1"}},
		{"FewVertices", map[string]string{"CONDREFINE_VERTICES": "4"}},
		{"FewEdges", map[string]string{"CONDREFINE_EDGES": "10"}},
		{"ZeroWeight", map[string]string{"CONDREFINE_MAX_WEIGHT": "0"}},
		{"ZeroRounds", map[string]string{"CONDREFINE_MAX_ROUNDS": "0"}},
		{"StatsMode", map[string]string{"CONDREFINE_STATS_MODE": "fancy"}},
		{"Compression", map[string]string{"CONDREFINE_COMPRESSION": "brotli"}},
		{"NegativeMemory", map[string]string{"CONDREFINE_MEMORY_LIMIT": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := loadConfig("")
			assert.Error(t, err)
		})
	}
}

func TestWriteConfig(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	cfg.K = 12
	cfg.Compression = "none"

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, writeConfig(path, cfg))

	got, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestParseStatsMode(t *testing.T) {
	mode, err := parseStatsMode("Original")
	require.NoError(t, err)
	assert.Equal(t, conductance.StatsOriginal, mode)

	mode, err = parseStatsMode("")
	require.NoError(t, err)
	assert.Equal(t, conductance.StatsLive, mode)

	_, err = parseStatsMode("both")
	assert.Error(t, err)
}
