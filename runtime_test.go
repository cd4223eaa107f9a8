package cstdio_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/hupe1980/cstdio"
	"github.com/hupe1980/cstdio/format"
	"github.com/hupe1980/cstdio/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openHandle(t *testing.T, h host.Host, path string, flags host.OpenFlag) host.Handle {
	t.Helper()
	hd, err := h.Open(path, flags)
	require.NoError(t, err)
	return hd
}

func TestStandardStreams(t *testing.T) {
	h := host.NewMemHost()
	h.WriteFile("/stdin", []byte("42 hello\n"))
	rt := cstdio.New(h)

	out := host.OpenWrite | host.OpenCreate
	require.NoError(t, rt.InitStdio(cstdio.StdHandles{
		Stdin:  openHandle(t, h, "/stdin", host.OpenRead),
		Stdout: openHandle(t, h, "/stdout", out),
		Stderr: openHandle(t, h, "/stderr", out),
	}))
	assert.ErrorIs(t, rt.InitStdio(cstdio.StdHandles{}), cstdio.ErrAlreadyInitialized)
	assert.NotZero(t, rt.Stdin())
	assert.NotZero(t, rt.Stdout())
	assert.NotZero(t, rt.Stderr())

	t.Run("Stdout is line buffered", func(t *testing.T) {
		assert.Equal(t, 4, rt.Printf("%d-%s\n", format.Int(7), format.CString("x")))
		assert.Equal(t, "7-x\n", fileContent(t, h, "/stdout"))

		assert.Equal(t, 7, rt.Printf("partial"))
		assert.Equal(t, "7-x\n", fileContent(t, h, "/stdout"))
		require.Equal(t, 0, rt.Fflush(0))
		assert.Equal(t, "7-x\npartial", fileContent(t, h, "/stdout"))

		assert.Equal(t, int('!'), rt.Putchar('!'))
		assert.Equal(t, 0, rt.Puts("done"))
		assert.Equal(t, "7-x\npartial!done\n", fileContent(t, h, "/stdout"))
	})

	t.Run("Stdin", func(t *testing.T) {
		var n int32
		word := make([]byte, 16)
		assert.Equal(t, 2, rt.Scanf("%d %s\n", format.Out(&n), format.Out(word)))
		assert.Equal(t, int32(42), n)
		assert.Equal(t, "hello\x00", string(word[:6]))

		assert.Equal(t, cstdio.EOF, rt.Getchar())
		assert.Equal(t, cstdio.EOF, rt.Scanf("%d", format.Out(&n)))
	})

	t.Run("Stderr is unbuffered", func(t *testing.T) {
		rt.SetErrno(cstdio.ENOENT)
		rt.Perror("open")
		assert.Equal(t, "open: No such file or directory\n", fileContent(t, h, "/stderr"))
		assert.Equal(t, cstdio.ENOENT, rt.Errno())
	})

	require.NoError(t, rt.Shutdown())
	assert.Zero(t, h.OpenHandles())
	assert.Zero(t, rt.Stdout())
	assert.Equal(t, cstdio.EOF, rt.Putchar('x'))
	assert.Equal(t, cstdio.EBADF, rt.Errno())
}

func TestStandardStreamsPartial(t *testing.T) {
	h := host.NewMemHost()
	rt := cstdio.New(h)
	require.NoError(t, rt.InitStdio(cstdio.StdHandles{
		Stdout: openHandle(t, h, "/stdout", host.OpenWrite|host.OpenCreate),
	}))

	assert.Zero(t, rt.Stdin())
	assert.Zero(t, rt.Stderr())
	assert.Equal(t, cstdio.EOF, rt.Getchar())
	rt.Perror("quiet")

	require.Equal(t, 0, rt.Fclose(rt.Stdout()))
	assert.Zero(t, rt.Stdout())
	require.NoError(t, rt.Close())
}

func TestShutdownJoinsFailures(t *testing.T) {
	var logs bytes.Buffer
	fh := host.NewFaultyHost(nil)
	fh.AddRule("/bad", host.Fault{FailAfterBytes: -1, FailOnDestroy: true})

	metrics := &cstdio.BasicMetricsCollector{}
	rt := cstdio.New(fh,
		cstdio.WithLogger(cstdio.NewLogger(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
		cstdio.WithMetricsCollector(metrics),
	)

	bad := rt.Fopen("/bad", "w")
	good := rt.Fopen("/good", "w")
	require.NotZero(t, bad)
	require.NotZero(t, good)
	rt.Fputs("saved", good)

	err := rt.Shutdown()
	require.Error(t, err)

	var ioErr *cstdio.IOError
	assert.ErrorAs(t, err, &ioErr)
	assert.Contains(t, logs.String(), "teardown close failed")

	mem := fh.Host.(*host.MemHost)
	data, ok := mem.ReadFile("/good")
	require.True(t, ok)
	assert.Equal(t, "saved", string(data))

	stats := metrics.Stats()
	assert.Equal(t, int64(2), stats.CloseCount)
	assert.Equal(t, int64(1), stats.CloseErrors)

	assert.NoError(t, rt.Shutdown(), "nothing left to close")
}

func TestMetrics(t *testing.T) {
	metrics := &cstdio.BasicMetricsCollector{}
	rt := cstdio.New(host.NewMemHost(), cstdio.WithMetricsCollector(metrics))

	f := rt.Fopen("/m", "w+")
	require.NotZero(t, f)
	assert.Zero(t, rt.Fopen("/missing", "r"))

	rt.Fwrite([]byte("hello"), 1, 5, f)
	rt.Fprintf(f, "%d", format.Int(12))
	require.Equal(t, 0, rt.Fflush(f))
	rt.Rewind(f)
	rt.Fread(make([]byte, 7), 1, 7, f)
	require.Equal(t, 0, rt.Fclose(f))

	stats := metrics.Stats()
	assert.Equal(t, int64(2), stats.OpenCount)
	assert.Equal(t, int64(1), stats.OpenErrors)
	assert.Equal(t, int64(2), stats.WriteCount)
	assert.Equal(t, int64(7), stats.WriteBytes)
	assert.Equal(t, int64(1), stats.ReadCount)
	assert.Equal(t, int64(7), stats.ReadBytes)
	assert.Equal(t, int64(1), stats.FlushCount)
	assert.Equal(t, int64(1), stats.CloseCount)
	assert.Zero(t, stats.CloseErrors)
}

func TestLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := cstdio.NewLogger(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rt := cstdio.New(host.NewMemHost(), cstdio.WithLogger(logger))

	assert.Zero(t, rt.Fopen("/missing", "r"))
	assert.Contains(t, logs.String(), "open failed")
	assert.Contains(t, logs.String(), "path=/missing")

	f := rt.Fopen("/x", "w")
	require.NotZero(t, f)
	assert.Contains(t, logs.String(), "open completed")

	logs.Reset()
	logger.WithStream(f).Info("tagged")
	assert.Contains(t, logs.String(), "stream=1")

	require.Equal(t, 0, rt.Fclose(f))
	assert.Contains(t, logs.String(), "close completed")

	logs.Reset()
	d := rt.Opendir("/")
	require.NotZero(t, d)
	assert.Contains(t, logs.String(), "opendir completed")
	assert.Contains(t, logs.String(), "path=/")
	require.Equal(t, 0, rt.Closedir(d))

	logs.Reset()
	buf := make([]byte, 8)
	assert.Equal(t, 1, rt.Snprintf(buf, len(buf), "%d", format.Int(1), format.Int(2)))
	assert.Contains(t, logs.String(), "unused format arguments")
	assert.Contains(t, logs.String(), "count=1")

	quiet := cstdio.New(host.NewMemHost(), cstdio.WithLogLevel(slog.LevelError))
	assert.NotZero(t, quiet.Fopen("/q", "w"))
	require.NoError(t, quiet.Shutdown())

	assert.NotNil(t, cstdio.NoopLogger())
	assert.NotNil(t, cstdio.NewJSONLogger(slog.LevelInfo))
	assert.NotNil(t, cstdio.NewLogger(nil))
}

func TestErrnoOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want cstdio.Errno
	}{
		{"nil", nil, 0},
		{"errno", cstdio.EACCES, cstdio.EACCES},
		{"not found", host.ErrNotFound, cstdio.ENOENT},
		{"wrapped not found", &cstdio.OpenError{Op: "fopen", Path: "/x", Err: host.ErrNotFound}, cstdio.ENOENT},
		{"exists", host.ErrExist, cstdio.EEXIST},
		{"not dir", host.ErrNotDir, cstdio.ENOTDIR},
		{"is dir", host.ErrIsDir, cstdio.EISDIR},
		{"not empty", host.ErrNotEmpty, cstdio.ENOTEMPTY},
		{"bad handle", host.ErrBadHandle, cstdio.EBADF},
		{"bad stream", cstdio.ErrBadStream, cstdio.EBADF},
		{"encoding", cstdio.ErrInvalidEncoding, cstdio.EILSEQ},
		{"argument", cstdio.ErrInvalidArgument, cstdio.EINVAL},
		{"format argument", &format.ArgError{Index: 0, Want: format.KindInt32}, cstdio.EINVAL},
		{"sink", &format.SinkError{Err: host.ErrNotWritable}, cstdio.EBADF},
		{"unknown", errors.New("boom"), cstdio.EIO},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cstdio.ErrnoOf(tc.err))
		})
	}
}

func TestStrerror(t *testing.T) {
	assert.Equal(t, "Success", cstdio.Strerror(0))
	assert.Equal(t, "Bad file descriptor", cstdio.EBADF.Error())
	assert.Equal(t, "Unknown error 999", cstdio.Strerror(999))

	rt := cstdio.New(host.NewMemHost())
	assert.Equal(t, "Is a directory", rt.Strerror(cstdio.EISDIR))
}

func TestDefaultBufferSize(t *testing.T) {
	h := host.NewMemHost()
	rt := cstdio.New(h, cstdio.WithDefaultBufferSize(2048))
	t.Cleanup(func() { _ = rt.Shutdown() })

	f := rt.Fopen("/big", "w")
	require.NotZero(t, f)
	require.Equal(t, 2047, rt.Fwrite(bytes.Repeat([]byte("a"), 2047), 1, 2047, f))
	data, _ := h.ReadFile("/big")
	assert.Empty(t, data)
	require.Equal(t, 1, rt.Fwrite([]byte("b"), 1, 1, f))
	data, _ = h.ReadFile("/big")
	assert.Len(t, data, 2048, "full buffer drained")

	t.Run("Setvbuf size zero", func(t *testing.T) {
		g := rt.Fopen("/vbuf", "w")
		require.NotZero(t, g)
		require.Equal(t, 0, rt.Setvbuf(g, nil, cstdio.IOFBF, 0))
		require.Equal(t, 2048, rt.Fwrite(bytes.Repeat([]byte("c"), 2048), 1, 2048, g))
		data, _ := h.ReadFile("/vbuf")
		assert.Len(t, data, 2048)
	})

	t.Run("Raised to the minimum", func(t *testing.T) {
		small := cstdio.New(h, cstdio.WithDefaultBufferSize(16))
		t.Cleanup(func() { _ = small.Close() })

		g := small.Fopen("/small", "w")
		require.NotZero(t, g)
		require.Equal(t, 16, small.Fwrite(bytes.Repeat([]byte("d"), 16), 1, 16, g))
		data, _ := h.ReadFile("/small")
		assert.Empty(t, data)
	})
}
