package dbscan

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with consistent field names for clustering runs.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, uses a text handler to stderr at Info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithEngine adds an engine field to the logger.
func (l *Logger) WithEngine(kind EngineKind) *Logger {
	return &Logger{Logger: l.Logger.With("engine", string(kind))}
}

// LogEngine logs the build of a region-query index.
func (l *Logger) LogEngine(ctx context.Context, kind EngineKind, points, dims int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "engine init failed",
			"engine", string(kind),
			"points", points,
			"dimension", dims,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "engine initialized",
		"engine", string(kind),
		"points", points,
		"dimension", dims,
		"elapsed", elapsed,
	)
}

// LogCluster logs the completion of one cluster expansion.
func (l *Logger) LogCluster(ctx context.Context, cid, size int) {
	l.DebugContext(ctx, "cluster expanded",
		"cluster", cid,
		"size", size,
	)
}

// LogRun logs the outcome of a full DBSCAN run.
func (l *Logger) LogRun(ctx context.Context, points, clusters, noise int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "dbscan run failed",
			"points", points,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "dbscan run completed",
		"points", points,
		"clusters", clusters,
		"noise", noise,
		"elapsed", elapsed,
	)
}
