package cstdio

import "log/slog"

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	bufferSize       int
}

// Option configures a Runtime.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for stream operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &cstdio.BasicMetricsCollector{}
//	rt := cstdio.New(h, cstdio.WithMetricsCollector(metrics))
//	// ... use rt ...
//	stats := metrics.Stats()
//	fmt.Printf("Writes: %d, bytes: %d\n", stats.WriteCount, stats.WriteBytes)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging. Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
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

// WithDefaultBufferSize sets the buffer size used for the standard streams,
// for files opened with Fopen and for Setvbuf calls that pass size 0.
// Values below stream.MinBufferSize are raised to it.
func WithDefaultBufferSize(n int) Option {
	return func(o *options) {
		o.bufferSize = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		bufferSize:       BUFSIZ,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
