package cstdio

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/cstdio/host"
	"github.com/hupe1980/cstdio/internal/conv"
	"github.com/hupe1980/cstdio/stream"
)

// openMode is a parsed fopen mode string.
type openMode struct {
	flags     host.OpenFlag
	append    bool
	exclusive bool
}

// parseMode parses r, w, a with the + x b modifiers.
func parseMode(mode string) (openMode, error) {
	var m openMode
	if mode == "" {
		return m, fmt.Errorf("%w: empty mode", ErrInvalidArgument)
	}
	switch mode[0] {
	case 'r':
		m.flags = host.OpenRead
	case 'w':
		m.flags = host.OpenWrite | host.OpenCreate | host.OpenTruncate
	case 'a':
		m.flags = host.OpenWrite | host.OpenCreate
		m.append = true
	default:
		return m, fmt.Errorf("%w: mode %q", ErrInvalidArgument, mode)
	}
	for i := 1; i < len(mode); i++ {
		switch mode[i] {
		case '+':
			m.flags |= host.OpenRead | host.OpenWrite
		case 'x':
			m.exclusive = true
		case 'b':
		default:
			return m, fmt.Errorf("%w: mode %q", ErrInvalidArgument, mode)
		}
	}
	return m, nil
}

// open opens path as a block buffered stream.
func (r *Runtime) open(path, mode string) (*stream.Stream, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}
	m, err := parseMode(mode)
	if err != nil {
		return nil, err
	}

	if m.exclusive {
		h, err := r.host.Open(path, 0)
		if err == nil {
			_ = r.host.Destroy(h)
			return nil, &OpenError{Op: "fopen", Path: path, Err: host.ErrExist}
		}
		if !errors.Is(err, host.ErrNotFound) {
			return nil, &OpenError{Op: "fopen", Path: path, Err: err}
		}
	}

	var extra []stream.Option
	if m.append {
		extra = append(extra, stream.WithOffset(stream.EndOffset(0)))
	}
	h, err := r.host.Open(path, m.flags)
	if err != nil {
		return nil, &OpenError{Op: "fopen", Path: path, Err: err}
	}
	return stream.New(r.host, h, stream.Block, r.streamOptions(extra...)...), nil
}

// Fopen opens path with a C mode string and returns its token, or 0.
func (r *Runtime) Fopen(path, mode string) FILE {
	start := time.Now()
	s, err := r.open(path, mode)
	r.metrics.RecordOpen(time.Since(start), err)
	if err != nil {
		r.logger.LogOpen(path, mode, 0, err)
		r.fail(err)
		return 0
	}
	f := FILE(r.files.Insert(s))
	r.logger.LogOpen(path, mode, f, nil)
	return f
}

// Freopen closes the stream behind f and opens path in its place, keeping
// the token. When the new open fails the token stays registered to the
// closed stream, every later call on it fails with EBADF, and 0 is returned.
func (r *Runtime) Freopen(path, mode string, f FILE) FILE {
	old, err := r.file(f)
	if err != nil {
		r.fail(err)
		return 0
	}
	if err := old.Close(); err != nil && !errors.Is(err, stream.ErrClosed) {
		r.logger.WithStream(f).Debug("close before reopen failed", "error", err)
	}

	start := time.Now()
	s, err := r.open(path, mode)
	r.metrics.RecordOpen(time.Since(start), err)
	r.logger.LogOpen(path, mode, f, err)
	if err != nil {
		r.fail(err)
		return 0
	}
	r.files.Replace(uint32(f), s)
	return f
}

// Fclose flushes and closes f and releases the token.
func (r *Runtime) Fclose(f FILE) int {
	s, err := r.file(f)
	if err != nil {
		r.fail(err)
		return EOF
	}
	r.files.Remove(uint32(f))
	switch f {
	case r.stdin:
		r.stdin = 0
	case r.stdout:
		r.stdout = 0
	case r.stderr:
		r.stderr = 0
	}

	err = s.Close()
	r.metrics.RecordClose(err)
	r.logger.LogClose(f, err)
	if err != nil {
		r.fail(&IOError{Op: "fclose", Err: err})
		return EOF
	}
	return 0
}

// Remove deletes the file or empty directory at path.
func (r *Runtime) Remove(path string) int {
	if err := checkPath(path); err != nil {
		r.fail(err)
		return -1
	}
	if err := r.host.Remove(path); err != nil {
		r.fail(&OpenError{Op: "remove", Path: path, Err: err})
		return -1
	}
	return 0
}

// Rename moves oldpath to newpath.
func (r *Runtime) Rename(oldpath, newpath string) int {
	if err := errors.Join(checkPath(oldpath), checkPath(newpath)); err != nil {
		r.fail(err)
		return -1
	}
	if err := r.host.Rename(oldpath, newpath); err != nil {
		r.fail(&OpenError{Op: "rename", Path: oldpath, Err: err})
		return -1
	}
	return 0
}

// span validates an element size and count against a buffer.
func span(p []byte, size, count int) (int, error) {
	if size < 0 || count < 0 {
		return 0, ErrInvalidArgument
	}
	n, err := conv.MulSize(uint64(size), uint64(count))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errRange, err)
	}
	if n > len(p) {
		return 0, fmt.Errorf("%w: %d bytes requested, buffer holds %d", ErrInvalidArgument, n, len(p))
	}
	return n, nil
}

// Fread reads up to count elements of size bytes into p and returns the
// number of complete elements read.
func (r *Runtime) Fread(p []byte, size, count int, f FILE) int {
	s, err := r.file(f)
	if err != nil {
		r.fail(err)
		return 0
	}
	n, err := span(p, size, count)
	if err != nil {
		r.fail(err)
		return 0
	}
	if n == 0 {
		return 0
	}

	got := 0
	var readErr error
	for got < n {
		k, err := s.Read(p[got:n])
		got += k
		if err == io.EOF {
			break
		}
		if err != nil {
			readErr = &IOError{Op: "fread", Err: err}
			r.fail(readErr)
			break
		}
	}
	r.metrics.RecordRead(got, readErr)
	return got / size
}

// Fwrite writes count elements of size bytes from p and returns the number
// of complete elements written.
func (r *Runtime) Fwrite(p []byte, size, count int, f FILE) int {
	s, err := r.file(f)
	if err != nil {
		r.fail(err)
		return 0
	}
	n, err := span(p, size, count)
	if err != nil {
		r.fail(err)
		return 0
	}
	if n == 0 {
		return 0
	}

	k, err := s.Write(p[:n])
	r.metrics.RecordWrite(k, err)
	if err != nil {
		r.fail(&IOError{Op: "fwrite", Err: err})
	}
	return k / size
}

// Fgetc reads one byte, or returns EOF.
func (r *Runtime) Fgetc(f FILE) int {
	s, err := r.file(f)
	if err != nil {
		r.fail(err)
		return EOF
	}
	c, err := s.ReadByte()
	if err == io.EOF {
		return EOF
	}
	if err != nil {
		r.metrics.RecordRead(0, err)
		r.fail(&IOError{Op: "fgetc", Err: err})
		return EOF
	}
	r.metrics.RecordRead(1, nil)
	return int(c)
}

// Getc is Fgetc.
func (r *Runtime) Getc(f FILE) int { return r.Fgetc(f) }

// Getchar reads one byte from stdin.
func (r *Runtime) Getchar() int { return r.Fgetc(r.stdin) }

// Ungetc pushes c back onto f. Only one byte of pushback is kept.
func (r *Runtime) Ungetc(c int, f FILE) int {
	if c == EOF {
		return EOF
	}
	s, err := r.file(f)
	if err != nil {
		r.fail(err)
		return EOF
	}
	if err := s.PushBack(byte(c)); err != nil {
		r.fail(err)
		return EOF
	}
	return int(byte(c))
}

// Fputc writes c as an unsigned char.
func (r *Runtime) Fputc(c int, f FILE) int {
	s, err := r.file(f)
	if err != nil {
		r.fail(err)
		return EOF
	}
	err = s.WriteByte(byte(c))
	if err != nil {
		r.metrics.RecordWrite(0, err)
		r.fail(&IOError{Op: "fputc", Err: err})
		return EOF
	}
	r.metrics.RecordWrite(1, nil)
	return int(byte(c))
}

// Putc is Fputc.
func (r *Runtime) Putc(c int, f FILE) int { return r.Fputc(c, f) }

// Putchar writes c to stdout.
func (r *Runtime) Putchar(c int) int { return r.Fputc(c, r.stdout) }

func (r *Runtime) puts(op string, f FILE, b []byte) int {
	s, err := r.file(f)
	if err != nil {
		r.fail(err)
		return EOF
	}
	n, err := s.Write(b)
	r.metrics.RecordWrite(n, err)
	if err != nil {
		r.fail(&IOError{Op: op, Err: err})
		return EOF
	}
	return 0
}

// Fputs writes the string s, without a newline.
func (r *Runtime) Fputs(s string, f FILE) int {
	return r.puts("fputs", f, []byte(cstring(s)))
}

// Puts writes s and a newline to stdout.
func (r *Runtime) Puts(s string) int {
	return r.puts("puts", r.stdout, []byte(cstring(s)+"\n"))
}

// Fgets reads at most len(buf)-1 bytes, stopping after a newline, and
// NUL-terminates buf. It returns the filled prefix of buf without the NUL,
// or nil at end of file or on error.
func (r *Runtime) Fgets(buf []byte, f FILE) []byte {
	s, err := r.file(f)
	if err != nil {
		r.fail(err)
		return nil
	}
	if len(buf) == 0 {
		r.fail(ErrInvalidArgument)
		return nil
	}

	line, err := s.ReadUntil('\n', len(buf)-1)
	r.metrics.RecordRead(len(line), err)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		r.fail(&IOError{Op: "fgets", Err: err})
		return nil
	}
	n := copy(buf, line)
	buf[n] = 0
	return buf[:n]
}

// Fgetline reads one line of any length, including its newline.
// It returns nil at end of file or on error.
func (r *Runtime) Fgetline(f FILE) []byte {
	s, err := r.file(f)
	if err != nil {
		r.fail(err)
		return nil
	}
	line, err := s.ReadUntil('\n', -1)
	r.metrics.RecordRead(len(line), err)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		r.fail(&IOError{Op: "fgetline", Err: err})
		return nil
	}
	return line
}

// Setvbuf switches the buffering mode of f. Caller-supplied buffers are not
// supported: buf must be nil. A size of 0 selects the default buffer size.
func (r *Runtime) Setvbuf(f FILE, buf []byte, mode, size int) int {
	s, err := r.file(f)
	if err != nil {
		r.fail(err)
		return -1
	}
	if buf != nil || size < 0 || mode < 0 || mode > 0xff {
		r.fail(ErrInvalidArgument)
		return -1
	}
	if size == 0 {
		size = r.bufSize
	}
	if err := s.SetBuffering(stream.Mode(mode), size); err != nil {
		r.fail(err)
		return -1
	}
	return 0
}

// seekPosition maps an fseek offset and whence onto a stream position.
// A positive SEEK_END offset lands past the end of the resource.
func seekPosition(s *stream.Stream, offset int64, whence int) (stream.SeekPosition, error) {
	switch whence {
	case SEEK_SET:
		if offset < 0 {
			return stream.SeekPosition{}, stream.ErrInvalidSeek
		}
		return stream.Start(offset), nil
	case SEEK_CUR:
		return stream.Current(offset), nil
	case SEEK_END:
		if offset <= 0 {
			return stream.End(-offset), nil
		}
		size, err := s.Size()
		if err != nil {
			return stream.SeekPosition{}, err
		}
		return stream.Start(size + offset), nil
	default:
		return stream.SeekPosition{}, ErrInvalidArgument
	}
}

// Fseek moves the position of f.
func (r *Runtime) Fseek(f FILE, offset int64, whence int) int {
	s, err := r.file(f)
	if err != nil {
		r.fail(err)
		return -1
	}
	pos, err := seekPosition(s, offset, whence)
	if err != nil {
		r.fail(err)
		return -1
	}
	if err := s.Seek(pos); err != nil {
		r.fail(err)
		return -1
	}
	return 0
}

// Ftell returns the absolute position of f, or -1.
func (r *Runtime) Ftell(f FILE) int64 {
	s, err := r.file(f)
	if err != nil {
		r.fail(err)
		return -1
	}
	pos, err := s.Tell()
	if err != nil {
		r.fail(err)
		return -1
	}
	return pos
}

// Rewind seeks to the start and clears the error indicators.
func (r *Runtime) Rewind(f FILE) {
	s, err := r.file(f)
	if err != nil {
		r.fail(err)
		return
	}
	if err := s.Seek(stream.Start(0)); err != nil {
		r.fail(err)
	}
	s.ClearErr()
}

// Feof reports the end-of-file indicator as 0 or 1.
func (r *Runtime) Feof(f FILE) int {
	s, err := r.file(f)
	if err != nil || !s.EOF() {
		return 0
	}
	return 1
}

// Ferror reports the error indicator as 0 or 1.
func (r *Runtime) Ferror(f FILE) int {
	s, err := r.file(f)
	if err != nil || !s.Err() {
		return 0
	}
	return 1
}

// Clearerr resets the end-of-file and error indicators.
func (r *Runtime) Clearerr(f FILE) {
	if s, err := r.file(f); err == nil {
		s.ClearErr()
	}
}

// Fflush writes out pending output of f, or of every open stream when f is 0.
func (r *Runtime) Fflush(f FILE) int {
	if f == 0 {
		rc := 0
		for _, tok := range r.files.Tokens() {
			s, _ := r.files.Get(tok)
			if s.Closed() {
				continue
			}
			if r.flush(s) != 0 {
				rc = EOF
			}
		}
		return rc
	}
	s, err := r.file(f)
	if err != nil {
		r.fail(err)
		return EOF
	}
	return r.flush(s)
}

func (r *Runtime) flush(s *stream.Stream) int {
	start := time.Now()
	err := s.Flush()
	r.metrics.RecordFlush(time.Since(start), err)
	if err != nil {
		r.fail(&IOError{Op: "fflush", Err: err})
		return EOF
	}
	return 0
}
