package conductance

import (
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/conductance/fraction"
)

// Logger wraps slog.Logger with conductance-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithPartition adds a partition field to the logger.
func (l *Logger) WithPartition(p PartitionID) *Logger {
	return &Logger{
		Logger: l.Logger.With("partition", p),
	}
}

// WithK adds a k (block count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// LogRebuild logs a full recompute of the queue.
func (l *Logger) LogRebuild(kind RebuildKind, k int, total Volume, top Info, elapsed time.Duration) {
	l.Debug("conductance queue rebuilt",
		"kind", kind.String(),
		"k", k,
		"total_volume", total,
		"top_partition", top.Partition,
		"top_conductance", top.Fraction.Value(),
		"elapsed", elapsed,
	)
}

// LogSkippedUpdate logs a stale AdjustKey that was dropped.
func (l *Logger) LogSkippedUpdate(p PartitionID, cut, volume, total Volume) {
	l.Debug("adjust key skipped due to inconsistent stats",
		"partition", p,
		"cut_weight", cut,
		"volume", volume,
		"total_volume", total,
	)
}

// LogCheckMismatch logs a difference between stored and recomputed state.
func (l *Logger) LogCheckMismatch(p PartitionID, field string, stored, want Volume) {
	l.Warn("conductance queue out of sync",
		"partition", p,
		"field", field,
		"stored", stored,
		"want", want,
	)
}

// LogFraction logs a single partition fraction at debug level.
func (l *Logger) LogFraction(msg string, p PartitionID, f fraction.Fraction) {
	l.Debug(msg,
		"partition", p,
		"fraction", f.String(),
		"conductance", f.Value(),
	)
}
