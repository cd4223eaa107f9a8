package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/cstdio/host"
)

var (
	// ErrClosed is returned when using a stream after Close.
	ErrClosed = errors.New("stream: use of closed stream")

	// ErrInvalidSeek is returned for seeks before the start of the file.
	ErrInvalidSeek = errors.New("stream: invalid seek position")
)

// Whence selects the reference point of a SeekPosition.
type Whence uint8

const (
	SeekStart Whence = iota
	SeekCurrent
	SeekEnd
)

// SeekPosition describes a seek target.
type SeekPosition struct {
	Whence Whence
	Offset int64
}

// Start seeks to n bytes after the beginning.
func Start(n int64) SeekPosition { return SeekPosition{Whence: SeekStart, Offset: n} }

// Current moves the position by d bytes.
func Current(d int64) SeekPosition { return SeekPosition{Whence: SeekCurrent, Offset: d} }

// End seeks to n bytes before the end. End(0) is the append sentinel.
func End(n int64) SeekPosition { return SeekPosition{Whence: SeekEnd, Offset: n} }

// EndOffset encodes "n bytes before end" as a logical offset.
func EndOffset(n int64) int64 { return -(n + 1) }

// Raw is an unbuffered stream: one host handle plus a logical offset.
//
// Read and Write perform exactly one host call and may transfer fewer bytes
// than requested without an error. Use a Stream for io.Reader/io.Writer
// semantics.
type Raw struct {
	host   host.Host
	handle host.Handle
	offset int64
	eof    bool
	closed bool
}

// NewRaw takes ownership of handle.
func NewRaw(h host.Host, handle host.Handle, offset int64) *Raw {
	return &Raw{host: h, handle: handle, offset: offset}
}

// Handle returns the owned host handle.
func (r *Raw) Handle() host.Handle { return r.handle }

// Offset returns the logical offset.
func (r *Raw) Offset() int64 { return r.offset }

// EOF reports whether the last read hit end of file.
func (r *Raw) EOF() bool { return r.eof }

// advance moves the offset after a transfer of n bytes.
// The append sentinel stays in place; other end-relative offsets clamp to it.
func (r *Raw) advance(n int) {
	switch {
	case r.offset >= 0:
		r.offset += int64(n)
	case r.offset < -1:
		r.offset = min(r.offset+int64(n), -1)
	}
}

// Read performs one host read at the current offset.
// A zero-byte read sets the EOF flag and returns io.EOF.
func (r *Raw) Read(p []byte) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err := r.host.Read(r.handle, r.offset, p)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		r.eof = true
		return 0, io.EOF
	}
	r.advance(n)
	return n, nil
}

// Write performs one host write at the current offset.
func (r *Raw) Write(p []byte) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	n, err := r.host.Write(r.handle, r.offset, p)
	if err != nil {
		return 0, err
	}
	r.advance(n)
	return n, nil
}

// Seek recomputes the logical offset and clears the EOF flag.
func (r *Raw) Seek(pos SeekPosition) error {
	if r.closed {
		return ErrClosed
	}
	switch pos.Whence {
	case SeekStart:
		if pos.Offset < 0 {
			return ErrInvalidSeek
		}
		r.offset = pos.Offset
	case SeekEnd:
		if pos.Offset < 0 {
			return ErrInvalidSeek
		}
		r.offset = EndOffset(pos.Offset)
	case SeekCurrent:
		next := r.offset + pos.Offset
		if r.offset >= 0 {
			if next < 0 {
				return ErrInvalidSeek
			}
		} else {
			// End-relative positions cannot move past the end.
			next = min(next, -1)
		}
		r.offset = next
	default:
		return ErrInvalidSeek
	}
	r.eof = false
	return nil
}

// Size queries the resource length. A failing size query on a live handle
// violates the host contract and panics.
func (r *Raw) Size() int64 {
	if r.closed {
		panic(ErrClosed)
	}
	size, err := r.host.Size(r.handle)
	if err != nil {
		panic(fmt.Sprintf("stream: size query on handle %d failed: %v", r.handle, err))
	}
	return size
}

// Tell returns the absolute position.
func (r *Raw) Tell() int64 {
	if r.offset >= 0 {
		return r.offset
	}
	return host.Resolve(r.offset, r.Size())
}

// Sync requests durability of written data.
func (r *Raw) Sync() error {
	if r.closed {
		return ErrClosed
	}
	return r.host.Sync(r.handle)
}

// Close releases the handle. A second Close returns ErrClosed without
// touching the host.
func (r *Raw) Close() error {
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	return r.host.Destroy(r.handle)
}
