package format

import "io"

// FixedBuffer is a sink over a pre-sized byte slice. Writes past the end
// are dropped but still reported as fully written, so a running count
// matches the length the output would have had.
type FixedBuffer struct {
	buf []byte
	n   int
}

var _ io.Writer = (*FixedBuffer)(nil)

// NewFixedBuffer creates a sink that writes into buf.
func NewFixedBuffer(buf []byte) *FixedBuffer {
	return &FixedBuffer{buf: buf}
}

// Write copies as much of p as fits and reports len(p).
func (f *FixedBuffer) Write(p []byte) (int, error) {
	f.n += copy(f.buf[f.n:], p)
	return len(p), nil
}

// Len returns the number of bytes actually copied.
func (f *FixedBuffer) Len() int { return f.n }

// Cap returns the buffer capacity.
func (f *FixedBuffer) Cap() int { return len(f.buf) }

// Bytes returns the copied bytes.
func (f *FixedBuffer) Bytes() []byte { return f.buf[:f.n] }
