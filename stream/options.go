package stream

import "log/slog"

type options struct {
	logger *slog.Logger
	offset int64
	size   int
}

// Option configures a Stream.
type Option func(*options)

// WithLogger sets the logger used for swallowed errors.
// If nil is passed, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithOffset sets the initial logical offset. Use EndOffset(0) for append.
func WithOffset(off int64) Option {
	return func(o *options) {
		o.offset = off
	}
}

// WithBufferSize sets the buffer size requested for New.
// Sizes below MinBufferSize are raised to it.
func WithBufferSize(n int) Option {
	return func(o *options) {
		o.size = n
	}
}
