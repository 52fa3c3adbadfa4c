package pcgo

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with pcgo-specific context.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable
	}))
}

// WithOp adds an operation name to the logger.
func (l *Logger) WithOp(op string) *Logger {
	return &Logger{
		Logger: l.Logger.With("op", op),
	}
}

// WithCount adds a point count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("points", count),
	}
}

// LogTransform logs a transform of points points.
func (l *Logger) LogTransform(ctx context.Context, kind string, points int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "transform failed",
			"kind", kind,
			"points", points,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "transform completed",
		"kind", kind,
		"points", points,
		"elapsed", elapsed,
	)
}

// LogDownsample logs a voxel downsampling run.
func (l *Logger) LogDownsample(ctx context.Context, strategy Strategy, voxelSize float32, in, out int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "voxel downsample failed",
			"strategy", strategy.String(),
			"voxel_size", voxelSize,
			"points", in,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "voxel downsample completed",
		"strategy", strategy.String(),
		"voxel_size", voxelSize,
		"points_in", in,
		"points_out", out,
		"elapsed", elapsed,
	)
}

// LogRead logs a cloud read through the format bridge.
func (l *Logger) LogRead(ctx context.Context, format, name string, points int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "read failed",
			"format", format,
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "cloud read",
		"format", format,
		"name", name,
		"points", points,
	)
}

// LogWrite logs a cloud write through the format bridge.
func (l *Logger) LogWrite(ctx context.Context, format, name string, points int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "write failed",
			"format", format,
			"name", name,
			"points", points,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "cloud written",
		"format", format,
		"name", name,
		"points", points,
	)
}
