package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sugawarayuuta/sonnet"
)

func TestParseLogFormat(t *testing.T) {
	tests := []struct {
		in   string
		want LogFormat
	}{
		{"json", LogFormatJSON},
		{"JSON", LogFormatJSON},
		{"text", LogFormatText},
		{"pretty", LogFormatPretty},
		{"", LogFormatPretty},
		{"xml", LogFormatPretty},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLogFormat(tt.in), tt.in)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLogLevel(tt.in), tt.in)
	}
}

func TestNewLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	logger := newLogger(&buf, LogFormatJSON, slog.LevelWarn)
	logger.Info("hidden")
	logger.WithK(4).Warn("visible", "round", 2)

	var line map[string]any
	assert.NoError(t, sonnet.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "visible", line["msg"])
	assert.EqualValues(t, 4, line["k"])
	assert.EqualValues(t, 2, line["round"])

	buf.Reset()
	newLogger(&buf, LogFormatPretty, slog.LevelInfo).Info("pretty")
	assert.Contains(t, buf.String(), "pretty")
}
