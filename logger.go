package cstdio

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with stream-specific fields.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithStream adds a stream token field to the logger.
func (l *Logger) WithStream(f FILE) *Logger {
	return &Logger{
		Logger: l.Logger.With("stream", uint32(f)),
	}
}

// WithPath adds a path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// LogOpen logs a stream open.
func (l *Logger) LogOpen(path, mode string, f FILE, err error) {
	pl := l.WithPath(path)
	if err != nil {
		pl.Debug("open failed",
			"mode", mode,
			"error", err,
		)
	} else {
		pl.Debug("open completed",
			"mode", mode,
			"stream", uint32(f),
		)
	}
}

// LogClose logs a stream close.
func (l *Logger) LogClose(f FILE, err error) {
	if err != nil {
		l.Debug("close failed",
			"stream", uint32(f),
			"error", err,
		)
	} else {
		l.Debug("close completed",
			"stream", uint32(f),
		)
	}
}

// LogShutdown logs the result of runtime teardown.
func (l *Logger) LogShutdown(closed, failed int) {
	if failed > 0 {
		l.Warn("shutdown completed with failures",
			"closed", closed,
			"failed", failed,
		)
	} else {
		l.Debug("shutdown completed",
			"closed", closed,
		)
	}
}
