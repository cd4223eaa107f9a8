package stream

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hupe1980/cstdio/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rw = host.OpenRead | host.OpenWrite | host.OpenCreate

func newFaulty(t *testing.T) (*host.FaultyHost, *host.MemHost) {
	t.Helper()
	m := host.NewMemHost()
	return host.NewFaultyHost(m), m
}

func TestNewInvalidMode(t *testing.T) {
	m := host.NewMemHost()
	h, err := m.Open("/x", rw)
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := New(m, h, Mode(7), WithLogger(logger))
	assert.Equal(t, Unbuffered, s.Mode())
	assert.Contains(t, logs.String(), "invalid buffering mode")

	_, err = s.Write([]byte("a"))
	require.NoError(t, err)
	assert.Zero(t, s.Buffered())

	assert.ErrorIs(t, s.SetBuffering(Mode(7), 0), ErrInvalidMode)
	assert.Equal(t, Unbuffered, s.Mode())
	require.NoError(t, s.Close())
}

func TestFlushIdempotent(t *testing.T) {
	f, m := newFaulty(t)
	s, err := Open(f, "/out", rw)
	require.NoError(t, err)
	require.NoError(t, s.SetBuffering(Block, 0))

	_, err = s.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, s.Buffered())

	f.ResetCalls()
	require.NoError(t, s.Flush())
	assert.Equal(t, 1, f.Calls().Write)
	assert.Equal(t, 1, f.Calls().Sync)

	require.NoError(t, s.Flush())
	assert.Equal(t, 1, f.Calls().Write, "second flush must not write")
	assert.Equal(t, 2, f.Calls().Sync)

	data, _ := m.ReadFile("/out")
	assert.Equal(t, "hello", string(data))
}

func TestBlockWriteFlushesOnFill(t *testing.T) {
	f, m := newFaulty(t)
	s, err := Open(f, "/out", rw)
	require.NoError(t, err)
	require.NoError(t, s.SetBuffering(Block, 16)) // raised to MinBufferSize
	f.ResetCalls()

	for i := 0; i < MinBufferSize+1; i++ {
		require.NoError(t, s.WriteByte(byte('a'+i%26)))
	}

	assert.Equal(t, 1, f.Calls().Write)
	assert.Equal(t, 1, s.Buffered())
	data, _ := m.ReadFile("/out")
	assert.Len(t, data, MinBufferSize)

	require.NoError(t, s.Close())
	data, _ = m.ReadFile("/out")
	assert.Len(t, data, MinBufferSize+1)
}

func TestAppendOffset(t *testing.T) {
	m := host.NewMemHost()
	s, err := Open(m, "/log", rw, WithOffset(EndOffset(0)))
	require.NoError(t, err)

	_, err = s.Write([]byte("abc"))
	require.NoError(t, err)
	// Another writer extends the file between our writes.
	other, err := Open(m, "/log", host.OpenWrite, WithOffset(EndOffset(0)))
	require.NoError(t, err)
	_, err = other.Write([]byte("-"))
	require.NoError(t, err)
	require.NoError(t, other.Close())

	_, err = s.Write([]byte("def"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	data, _ := m.ReadFile("/log")
	assert.Equal(t, "abc-def", string(data))
}

func TestAppendOffsetBuffered(t *testing.T) {
	m := host.NewMemHost()
	s, err := Open(m, "/log", rw, WithOffset(EndOffset(0)))
	require.NoError(t, err)
	require.NoError(t, s.SetBuffering(Block, 0))

	_, err = s.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, s.Flush())
	_, err = s.Write([]byte("def"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	data, _ := m.ReadFile("/log")
	assert.Equal(t, "abcdef", string(data))
}

func TestBlockReadConsumes(t *testing.T) {
	m := host.NewMemHost()
	m.WriteFile("/in", []byte("abcdefgh"))
	s, err := Open(m, "/in", host.OpenRead)
	require.NoError(t, err)
	require.NoError(t, s.SetBuffering(Block, 0))

	var got []string
	buf := make([]byte, 3)
	for {
		n, err := s.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, string(buf[:n]))
	}
	assert.Equal(t, []string{"abc", "def", "gh"}, got)
	assert.True(t, s.EOF())
}

func TestBlockReadTell(t *testing.T) {
	m := host.NewMemHost()
	m.WriteFile("/in", []byte("0123456789"))
	s, err := Open(m, "/in", host.OpenRead|host.OpenWrite)
	require.NoError(t, err)
	require.NoError(t, s.SetBuffering(Block, 0))

	buf := make([]byte, 4)
	_, err = s.Read(buf)
	require.NoError(t, err)

	pos, err := s.Tell()
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)

	t.Run("Write after read lands at the logical position", func(t *testing.T) {
		_, err := s.Write([]byte("XY"))
		require.NoError(t, err)
		require.NoError(t, s.Flush())
		data, _ := m.ReadFile("/in")
		assert.Equal(t, "0123XY6789", string(data))
	})

	t.Run("Seek current accounts for read-ahead", func(t *testing.T) {
		require.NoError(t, s.Seek(Start(0)))
		_, err := s.Read(buf[:2])
		require.NoError(t, err)
		require.NoError(t, s.Seek(Current(1)))
		c, err := s.ReadByte()
		require.NoError(t, err)
		assert.Equal(t, byte('3'), c)
	})
}

func TestLineBuffering(t *testing.T) {
	f, m := newFaulty(t)
	s, err := Open(f, "/tty", rw)
	require.NoError(t, err)
	require.NoError(t, s.SetBuffering(Line, 0))
	f.ResetCalls()

	_, err = s.Write([]byte("partial"))
	require.NoError(t, err)
	assert.Equal(t, 0, f.Calls().Write)

	_, err = s.Write([]byte(" line\nnext"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.Calls().Write)
	data, _ := m.ReadFile("/tty")
	assert.Equal(t, "partial line\n", string(data))
	assert.Equal(t, 4, s.Buffered())

	t.Run("Unbounded between newlines", func(t *testing.T) {
		long := strings.Repeat("x", 3*MinBufferSize)
		_, err := s.Write([]byte(long))
		require.NoError(t, err)
		assert.Equal(t, 1, f.Calls().Write)
		assert.Equal(t, 4+len(long), s.Buffered())
	})
}

func TestLineRead(t *testing.T) {
	m := host.NewMemHost()
	m.WriteFile("/in", []byte("first line\nsecond\nlast"))
	s, err := Open(m, "/in", host.OpenRead)
	require.NoError(t, err)
	require.NoError(t, s.SetBuffering(Line, 0))

	buf := make([]byte, 5)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "first", string(buf[:n]))

	buf = make([]byte, 64)
	n, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, " line\n", string(buf[:n]), "pending remainder of the line")

	n, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(buf[:n]))

	n, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "last", string(buf[:n]))

	_, err = s.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestSetBufferingSwallowsFlushError(t *testing.T) {
	boom := errors.New("disk full")
	f, _ := newFaulty(t)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s, err := Open(f, "/out", rw, WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, s.SetBuffering(Block, 0))
	_, err = s.Write([]byte("lost"))
	require.NoError(t, err)

	f.SetFault(s.Raw().Handle(), host.Fault{FailAfterBytes: 0, Err: boom})
	require.NoError(t, s.SetBuffering(Line, 0))
	assert.Equal(t, Line, s.Mode())
	assert.Equal(t, 0, s.Buffered(), "prior contents are discarded")
	assert.Contains(t, logs.String(), "disk full")

	assert.ErrorIs(t, s.SetBuffering(Mode(9), 0), ErrInvalidMode)
}

func TestErrorIndicator(t *testing.T) {
	boom := errors.New("io failure")
	f, _ := newFaulty(t)
	s, err := Open(f, "/out", rw)
	require.NoError(t, err)

	f.SetFault(s.Raw().Handle(), host.Fault{FailAfterBytes: 0, Err: boom})
	_, err = s.Write([]byte("x"))
	assert.ErrorIs(t, err, boom)
	assert.True(t, s.Err())

	s.ClearErr()
	assert.False(t, s.Err())
}

func TestPushBack(t *testing.T) {
	m := host.NewMemHost()
	m.WriteFile("/in", []byte("ab"))
	s, err := Open(m, "/in", host.OpenRead)
	require.NoError(t, err)

	c, err := s.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('a'), c)
	require.NoError(t, s.UnreadByte())
	assert.ErrorIs(t, s.UnreadByte(), ErrInvalidUnreadByte)

	c, err = s.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('a'), c)

	require.NoError(t, s.PushBack('z'))
	assert.ErrorIs(t, s.PushBack('y'), ErrPushbackFull)

	pos, err := s.Tell()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	rest, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, "zb", string(rest))
}

func TestReadUntil(t *testing.T) {
	m := host.NewMemHost()
	m.WriteFile("/in", []byte("one\ntwo"))
	s, err := Open(m, "/in", host.OpenRead)
	require.NoError(t, err)
	require.NoError(t, s.SetBuffering(Block, 0))

	line, err := s.ReadUntil('\n', -1)
	require.NoError(t, err)
	assert.Equal(t, "one\n", string(line))

	line, err = s.ReadUntil('\n', 2)
	require.NoError(t, err)
	assert.Equal(t, "tw", string(line))

	line, err = s.ReadUntil('\n', -1)
	require.NoError(t, err)
	assert.Equal(t, "o", string(line))

	_, err = s.ReadUntil('\n', -1)
	assert.ErrorIs(t, err, io.EOF)
}

func TestClose(t *testing.T) {
	f, m := newFaulty(t)
	s, err := Open(f, "/out", rw)
	require.NoError(t, err)
	require.NoError(t, s.SetBuffering(Line, 0))
	_, err = s.Write([]byte("no newline"))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	data, _ := m.ReadFile("/out")
	assert.Equal(t, "no newline", string(data))

	assert.ErrorIs(t, s.Close(), ErrClosed)
	assert.Equal(t, 1, f.Calls().Destroy)
	assert.Zero(t, m.OpenHandles())

	_, err = s.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Flush(), ErrClosed)
	_, err = s.Tell()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseReleasesOnFlushFailure(t *testing.T) {
	boom := errors.New("write failed")
	f, m := newFaulty(t)
	s, err := Open(f, "/out", rw)
	require.NoError(t, err)
	require.NoError(t, s.SetBuffering(Block, 0))
	_, err = s.Write([]byte("pending"))
	require.NoError(t, err)

	f.SetFault(s.Raw().Handle(), host.Fault{FailAfterBytes: 0, Err: boom})
	assert.ErrorIs(t, s.Close(), boom)
	assert.Zero(t, m.OpenHandles())
	assert.ErrorIs(t, s.Close(), ErrClosed)
}
