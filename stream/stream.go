package stream

import (
	"errors"
	"io"
	"log/slog"

	"github.com/hupe1980/cstdio/host"
)

var (
	// ErrPushbackFull is returned when a byte is already pushed back.
	ErrPushbackFull = errors.New("stream: pushback slot in use")

	// ErrInvalidUnreadByte is returned by UnreadByte without a preceding ReadByte.
	ErrInvalidUnreadByte = errors.New("stream: invalid use of UnreadByte")
)

// Stream is a buffered file stream. It owns its host handle.
type Stream struct {
	raw    *Raw
	buf    buffer
	logger *slog.Logger

	pushed    bool
	pushback  byte
	last      byte
	lastValid bool

	eof    bool
	failed bool
	closed bool
}

var (
	_ io.ReadWriteCloser = (*Stream)(nil)
	_ io.ByteScanner     = (*Stream)(nil)
	_ io.ByteWriter      = (*Stream)(nil)
)

// Open opens path on h and returns an unbuffered stream.
func Open(h host.Host, path string, flags host.OpenFlag, optFns ...Option) (*Stream, error) {
	handle, err := h.Open(path, flags)
	if err != nil {
		return nil, err
	}
	return New(h, handle, Unbuffered, optFns...), nil
}

// New wraps an already open handle, taking ownership of it.
// New cannot fail, so an invalid mode falls back to Unbuffered and is
// logged at debug. Use SetBuffering to have it rejected with ErrInvalidMode.
func New(h host.Host, handle host.Handle, mode Mode, optFns ...Option) *Stream {
	opts := options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := opts.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if !mode.Valid() {
		logger.Debug("invalid buffering mode, using unbuffered",
			"handle", handle,
			"mode", mode.String(),
		)
		mode = Unbuffered
	}
	return &Stream{
		raw:    NewRaw(h, handle, opts.offset),
		buf:    newBuffer(mode, opts.size),
		logger: logger,
	}
}

// Raw returns the underlying unbuffered stream.
func (s *Stream) Raw() *Raw { return s.raw }

// Mode returns the active buffering mode.
func (s *Stream) Mode() Mode { return s.buf.mode }

// Buffered returns the number of written bytes not yet handed to the host.
func (s *Stream) Buffered() int { return s.buf.pending() }

// Closed reports whether Close was called.
func (s *Stream) Closed() bool { return s.closed }

// EOF reports whether a read hit end of file since the last seek or ClearErr.
func (s *Stream) EOF() bool { return s.eof }

// Err reports whether an I/O error occurred since the last ClearErr.
func (s *Stream) Err() bool { return s.failed }

// ClearErr resets the EOF and error indicators.
func (s *Stream) ClearErr() {
	s.eof = false
	s.failed = false
}

func (s *Stream) fail(err error) error {
	if err != nil && err != io.EOF {
		s.failed = true
	}
	return err
}

// Read reads up to len(p) bytes through the active buffer.
func (s *Stream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	if s.pushed {
		s.pushed = false
		p[0] = s.pushback
		s.last, s.lastValid = p[0], true
		return 1, nil
	}
	n, err := s.buf.read(s.raw, p)
	if err == io.EOF {
		s.eof = true
	}
	if n > 0 {
		s.last, s.lastValid = p[n-1], true
	}
	return n, s.fail(err)
}

// ReadByte reads one byte.
func (s *Stream) ReadByte() (byte, error) {
	var one [1]byte
	for {
		n, err := s.Read(one[:])
		if n == 1 {
			return one[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// UnreadByte pushes back the last byte read.
func (s *Stream) UnreadByte() error {
	if !s.lastValid {
		return ErrInvalidUnreadByte
	}
	if err := s.PushBack(s.last); err != nil {
		return err
	}
	s.lastValid = false
	return nil
}

// PushBack makes c the next byte read. One byte of pushback is guaranteed.
func (s *Stream) PushBack(c byte) error {
	if s.closed {
		return ErrClosed
	}
	if s.pushed {
		return ErrPushbackFull
	}
	s.pushed = true
	s.pushback = c
	s.eof = false
	return nil
}

// ReadUntil reads bytes up to and including delim, stopping after limit
// bytes (no limit if negative). It returns io.EOF only when no byte was read.
func (s *Stream) ReadUntil(delim byte, limit int) ([]byte, error) {
	var line []byte
	for limit < 0 || len(line) < limit {
		c, err := s.ReadByte()
		if err == io.EOF {
			if len(line) == 0 {
				return nil, io.EOF
			}
			break
		}
		if err != nil {
			return line, err
		}
		line = append(line, c)
		if c == delim {
			break
		}
	}
	return line, nil
}

// Write accepts all of p or returns an error.
func (s *Stream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if err := s.dropReadAhead(); err != nil {
		return 0, s.fail(err)
	}
	n, err := s.buf.write(s.raw, p)
	return n, s.fail(err)
}

// WriteByte writes one byte.
func (s *Stream) WriteByte(c byte) error {
	_, err := s.Write([]byte{c})
	return err
}

// dropReadAhead discards fetched but unserved bytes and rewinds the raw
// offset over them so the logical position is preserved.
func (s *Stream) dropReadAhead() error {
	unread := s.buf.unread()
	if s.pushed {
		unread++
		s.pushed = false
	}
	s.buf.discardReads()
	s.lastValid = false
	if unread == 0 {
		return nil
	}
	return s.raw.Seek(Current(-int64(unread)))
}

// Seek writes out pending output, drops read-ahead and moves the position.
func (s *Stream) Seek(pos SeekPosition) error {
	if s.closed {
		return ErrClosed
	}
	if err := s.buf.drainWrites(s.raw); err != nil {
		return s.fail(err)
	}
	if err := s.dropReadAhead(); err != nil {
		return s.fail(err)
	}
	if err := s.raw.Seek(pos); err != nil {
		return err
	}
	s.eof = false
	return nil
}

// Tell returns the absolute logical position, accounting for buffered bytes.
func (s *Stream) Tell() (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	unread := int64(s.buf.unread())
	if s.pushed {
		unread++
	}
	return max(s.raw.Tell()-unread+int64(s.buf.pending()), 0), nil
}

// Flush writes out pending output and syncs.
func (s *Stream) Flush() error {
	if s.closed {
		return ErrClosed
	}
	return s.fail(s.buf.flush(s.raw))
}

// Size returns the host-reported resource length.
func (s *Stream) Size() (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	return s.raw.Size(), nil
}

// SetBuffering flushes best-effort and switches to mode with a buffer of at
// least size bytes. Prior buffer contents are discarded.
func (s *Stream) SetBuffering(mode Mode, size int) error {
	if s.closed {
		return ErrClosed
	}
	if !mode.Valid() {
		return ErrInvalidMode
	}
	if err := s.buf.flush(s.raw); err != nil {
		s.logger.Debug("flush before buffering change failed",
			"handle", s.raw.Handle(),
			"mode", mode.String(),
			"error", err,
		)
	}
	if err := s.dropReadAhead(); err != nil {
		s.logger.Debug("rewind before buffering change failed",
			"handle", s.raw.Handle(),
			"error", err,
		)
	}
	s.buf = newBuffer(mode, size)
	return nil
}

// Close flushes best-effort and releases the handle exactly once.
// Both the flush and the release error are reported.
func (s *Stream) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	flushErr := s.buf.flush(s.raw)
	return errors.Join(flushErr, s.raw.Close())
}
