package stream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Mode is a buffering discipline. The values match _IONBF, _IOFBF and _IOLBF.
type Mode uint8

const (
	Unbuffered Mode = 0
	Block      Mode = 1
	Line       Mode = 2
)

// MinBufferSize is the floor applied to every requested buffer size.
const MinBufferSize = 1024

// ErrInvalidMode is returned for unknown buffering modes.
var ErrInvalidMode = errors.New("stream: invalid buffering mode")

func (m Mode) String() string {
	switch m {
	case Unbuffered:
		return "unbuffered"
	case Block:
		return "block"
	case Line:
		return "line"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m <= Line }

// buffer holds the state of one buffering discipline.
//
// Write-side contents are always an unflushed prefix. Read-side contents
// are always unread bytes fetched earlier.
type buffer struct {
	mode Mode

	// Block
	rchunk []byte
	rpos   int
	rlen   int
	wchunk []byte
	wpos   int

	// Line
	rline []byte
	wline []byte
}

func newBuffer(mode Mode, size int) buffer {
	size = max(size, MinBufferSize)
	b := buffer{mode: mode}
	switch mode {
	case Block:
		b.rchunk = make([]byte, size)
		b.wchunk = make([]byte, size)
	case Line:
		b.rline = make([]byte, 0, size)
		b.wline = make([]byte, 0, size)
	}
	return b
}

// unread returns the number of fetched but unserved bytes.
func (b *buffer) unread() int {
	switch b.mode {
	case Block:
		return b.rlen - b.rpos
	case Line:
		return len(b.rline)
	}
	return 0
}

// pending returns the number of accepted but unwritten bytes.
func (b *buffer) pending() int {
	switch b.mode {
	case Block:
		return b.wpos
	case Line:
		return len(b.wline)
	}
	return 0
}

func (b *buffer) discardReads() {
	b.rpos, b.rlen = 0, 0
	b.rline = b.rline[:0]
}

// drain writes all of p to raw, looping over short writes.
func drain(raw *Raw, p []byte) (int, error) {
	done := 0
	for done < len(p) {
		n, err := raw.Write(p[done:])
		done += n
		if err != nil {
			return done, err
		}
		if n == 0 {
			return done, io.ErrShortWrite
		}
	}
	return done, nil
}

func (b *buffer) read(raw *Raw, p []byte) (int, error) {
	switch b.mode {
	case Block:
		return b.readBlock(raw, p)
	case Line:
		return b.readLine(raw, p)
	default:
		return raw.Read(p)
	}
}

// readBlock serves from the read chunk, refilling it at most once.
func (b *buffer) readBlock(raw *Raw, p []byte) (int, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if b.rpos < b.rlen {
			n := copy(p, b.rchunk[b.rpos:b.rlen])
			b.rpos += n
			return n, nil
		}
		if attempt == 1 {
			break
		}
		n, err := raw.Read(b.rchunk)
		b.rpos, b.rlen = 0, n
		if err != nil {
			return 0, err
		}
	}
	return 0, io.EOF
}

// readLine fetches a whole line byte by byte, then serves it.
func (b *buffer) readLine(raw *Raw, p []byte) (int, error) {
	if len(b.rline) == 0 {
		var one [1]byte
		for {
			_, err := raw.Read(one[:])
			if err == io.EOF {
				break
			}
			if err != nil {
				return 0, err
			}
			b.rline = append(b.rline, one[0])
			if one[0] == '\n' {
				break
			}
		}
		if len(b.rline) == 0 {
			return 0, io.EOF
		}
	}
	n := copy(p, b.rline)
	b.rline = b.rline[:copy(b.rline, b.rline[n:])]
	return n, nil
}

func (b *buffer) write(raw *Raw, p []byte) (int, error) {
	switch b.mode {
	case Block:
		return b.writeBlock(raw, p)
	case Line:
		return b.writeLine(raw, p)
	default:
		return drain(raw, p)
	}
}

// writeBlock fills the write chunk and drains it whenever it is full.
func (b *buffer) writeBlock(raw *Raw, p []byte) (int, error) {
	accepted := 0
	for accepted < len(p) {
		n := copy(b.wchunk[b.wpos:], p[accepted:])
		b.wpos += n
		accepted += n
		if b.wpos == len(b.wchunk) {
			if err := b.drainWrites(raw); err != nil {
				return accepted, err
			}
		}
	}
	return accepted, nil
}

// writeLine appends to the pending line and drains through the last newline.
func (b *buffer) writeLine(raw *Raw, p []byte) (int, error) {
	b.wline = append(b.wline, p...)
	if bytes.IndexByte(p, '\n') < 0 {
		return len(p), nil
	}
	end := bytes.LastIndexByte(b.wline, '\n') + 1
	n, err := drain(raw, b.wline[:end])
	b.wline = b.wline[:copy(b.wline, b.wline[n:])]
	if err != nil {
		return len(p), err
	}
	return len(p), nil
}

// drainWrites writes out every pending byte. Bytes that could not be
// written stay pending.
func (b *buffer) drainWrites(raw *Raw) error {
	switch b.mode {
	case Block:
		if b.wpos == 0 {
			return nil
		}
		n, err := drain(raw, b.wchunk[:b.wpos])
		b.wpos = copy(b.wchunk, b.wchunk[n:b.wpos])
		return err
	case Line:
		if len(b.wline) == 0 {
			return nil
		}
		n, err := drain(raw, b.wline)
		b.wline = b.wline[:copy(b.wline, b.wline[n:])]
		return err
	}
	return nil
}

// flush drains pending writes, then syncs. A failed drain skips the sync.
func (b *buffer) flush(raw *Raw) error {
	if err := b.drainWrites(raw); err != nil {
		return err
	}
	return raw.Sync()
}
