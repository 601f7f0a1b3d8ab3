package stampede

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with stampede-specific context.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithCacheID adds a cache field to the logger.
func (l *Logger) WithCacheID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("cache", id),
	}
}

// WithKey adds a key field to the logger.
func (l *Logger) WithKey(key any) *Logger {
	return &Logger{
		Logger: l.Logger.With("key", key),
	}
}

// WithTimeout adds a timeout field to the logger.
func (l *Logger) WithTimeout(timeout time.Duration) *Logger {
	return &Logger{
		Logger: l.Logger.With("timeout", timeout),
	}
}

// LogGet logs a get operation.
func (l *Logger) LogGet(ctx context.Context, key any, hit bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "get failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "get completed",
			"key", key,
			"hit", hit,
		)
	}
}

// LogPut logs a put operation.
func (l *Logger) LogPut(ctx context.Context, key any, err error) {
	if err != nil {
		l.ErrorContext(ctx, "put failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "put completed",
			"key", key,
		)
	}
}

// LogLockWait logs a contended lock acquisition.
func (l *Logger) LogLockWait(ctx context.Context, key any, waited time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "lock wait aborted",
			"key", key,
			"waited", waited,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "lock acquired after wait",
			"key", key,
			"waited", waited,
		)
	}
}

// LogClear logs a clear operation.
func (l *Logger) LogClear(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "clear failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "clear completed")
	}
}
