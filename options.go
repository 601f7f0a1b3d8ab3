package stampede

import (
	"log/slog"
	"time"
)

type options struct {
	timeout          time.Duration
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures BlockingCache constructor behavior.
type Option func(*options)

// WithTimeout bounds how long a Get may wait for another caller to
// release the per-key lock. Each individual wait gets the full timeout.
//
// A timeout <= 0 (the default) waits indefinitely. When the timeout
// expires, Get returns an *ErrLockTimeout.
//
// The timeout is fixed at construction time; use Timeout to read it back.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &stampede.BasicMetricsCollector{}
//	cache := stampede.NewBlockingCache(delegate, stampede.WithMetricsCollector(metrics))
//	// ... use cache ...
//	stats := metrics.GetStats()
//	fmt.Printf("Gets: %d, Avg lock wait: %dns\n", stats.GetCount, stats.LockWaitAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := stampede.NewJSONLogger(slog.LevelInfo)
//	cache := stampede.NewBlockingCache(delegate, stampede.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
