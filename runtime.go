package cstdio

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/cstdio/dirent"
	"github.com/hupe1980/cstdio/host"
	"github.com/hupe1980/cstdio/internal/handle"
	"github.com/hupe1980/cstdio/stream"
)

const (
	// EOF is the negative sentinel returned by failing calls.
	EOF = -1

	// BUFSIZ is the default stream buffer size.
	BUFSIZ = 4096
)

// Whence values for Fseek.
const (
	SEEK_SET = 0
	SEEK_CUR = 1
	SEEK_END = 2
)

// Buffering modes for Setvbuf.
const (
	IONBF = int(stream.Unbuffered)
	IOFBF = int(stream.Block)
	IOLBF = int(stream.Line)
)

// FILE is an opaque stream token. The zero value is NULL.
type FILE uint32

// DIR is an opaque directory iterator token. The zero value is NULL.
type DIR uint32

// StdHandles carries the host handles of the standard streams.
// A zero handle leaves the matching slot empty.
type StdHandles struct {
	Stdin  host.Handle
	Stdout host.Handle
	Stderr host.Handle
}

// Runtime is the process-wide state behind the C call surface: the open
// streams and directories, the standard stream slots and the last-error slot.
//
// A Runtime is not safe for concurrent use.
type Runtime struct {
	host    host.Host
	logger  *Logger
	metrics MetricsCollector
	bufSize int

	files *handle.Table[*stream.Stream]
	dirs  *handle.Table[*dirent.Dir]

	stdin, stdout, stderr FILE
	stdioReady            bool

	errno   Errno
	lastErr error
}

// New creates a Runtime over h. The standard streams stay empty until InitStdio.
func New(h host.Host, optFns ...Option) *Runtime {
	opts := applyOptions(optFns)
	return &Runtime{
		host:    h,
		logger:  opts.logger,
		metrics: opts.metricsCollector,
		bufSize: max(opts.bufferSize, stream.MinBufferSize),
		files:   handle.NewTable[*stream.Stream](),
		dirs:    handle.NewTable[*dirent.Dir](),
	}
}

// Host returns the transport the runtime was created with.
func (r *Runtime) Host() host.Host { return r.host }

// InitStdio wraps the standard handles: stdin block buffered, stdout line
// buffered and stderr unbuffered. It may be called once.
func (r *Runtime) InitStdio(std StdHandles) error {
	if r.stdioReady {
		return ErrAlreadyInitialized
	}
	r.stdioReady = true

	wrap := func(h host.Handle, mode stream.Mode) FILE {
		if h == 0 {
			return 0
		}
		s := stream.New(r.host, h, mode, r.streamOptions()...)
		return FILE(r.files.Insert(s))
	}
	r.stdin = wrap(std.Stdin, stream.Block)
	r.stdout = wrap(std.Stdout, stream.Line)
	r.stderr = wrap(std.Stderr, stream.Unbuffered)

	r.logger.Debug("standard streams initialized",
		"stdin", uint32(r.stdin),
		"stdout", uint32(r.stdout),
		"stderr", uint32(r.stderr),
	)
	return nil
}

// Stdin returns the standard input token, or 0 when absent.
func (r *Runtime) Stdin() FILE { return r.stdin }

// Stdout returns the standard output token, or 0 when absent.
func (r *Runtime) Stdout() FILE { return r.stdout }

// Stderr returns the standard error token, or 0 when absent.
func (r *Runtime) Stderr() FILE { return r.stderr }

// Errno returns the last-error slot.
func (r *Runtime) Errno() Errno { return r.errno }

// SetErrno overwrites the last-error slot.
func (r *Runtime) SetErrno(e Errno) {
	r.errno = e
	r.lastErr = nil
}

// LastError returns the error behind the current errno, if any.
func (r *Runtime) LastError() error { return r.lastErr }

// Strerror returns the message for e.
func (r *Runtime) Strerror(e Errno) string { return Strerror(e) }

// Perror writes "prefix: message" for the current errno to stderr.
func (r *Runtime) Perror(prefix string) {
	msg := Strerror(r.errno)
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	s, err := r.file(r.stderr)
	if err != nil {
		return
	}
	// perror leaves errno untouched.
	_, _ = s.Write([]byte(msg + "\n"))
}

// fail records err in the last-error slot.
func (r *Runtime) fail(err error) {
	r.errno = ErrnoOf(err)
	r.lastErr = err
}

func (r *Runtime) file(f FILE) (*stream.Stream, error) {
	if f == 0 {
		return nil, ErrBadStream
	}
	s, ok := r.files.Get(uint32(f))
	if !ok {
		return nil, ErrBadStream
	}
	return s, nil
}

func (r *Runtime) dir(d DIR) (*dirent.Dir, error) {
	if d == 0 {
		return nil, ErrBadStream
	}
	dd, ok := r.dirs.Get(uint32(d))
	if !ok {
		return nil, ErrBadStream
	}
	return dd, nil
}

func (r *Runtime) streamOptions(extra ...stream.Option) []stream.Option {
	return append([]stream.Option{
		stream.WithLogger(r.logger.Logger),
		stream.WithBufferSize(r.bufSize),
	}, extra...)
}

// checkPath rejects paths a C caller could not have passed.
func checkPath(path string) error {
	if !utf8.ValidString(path) || strings.IndexByte(path, 0) >= 0 {
		return ErrInvalidEncoding
	}
	return nil
}

// cstring cuts s at its first NUL.
func cstring(s string) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return s[:i]
	}
	return s
}

// CString returns the bytes of b before the first NUL as a string.
func CString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
