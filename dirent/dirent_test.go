package dirent

import (
	"io"
	"testing"

	"github.com/hupe1980/cstdio/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdir(t *testing.T, h host.Host, path string) {
	t.Helper()
	dh, err := h.Open(path, host.OpenCreateDirectory)
	require.NoError(t, err)
	require.NoError(t, h.Destroy(dh))
}

func TestDir(t *testing.T) {
	h := host.NewMemHost()
	mkdir(t, h, "/data")
	h.WriteFile("/data/b.txt", []byte("bb"))
	h.WriteFile("/data/a.txt", []byte("a"))
	h.WriteFile("/data/sub/c.txt", []byte("ccc"))

	d, err := Open(h, "/data")
	require.NoError(t, err)
	assert.Equal(t, 1, h.OpenHandles(), "directory handle is released after deriving the iterator")

	var got []host.DirEntry
	for {
		e, err := d.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, *e)
	}

	assert.Equal(t, []host.DirEntry{
		{Name: "a.txt", Kind: host.KindFile, Size: 1},
		{Name: "b.txt", Kind: host.KindFile, Size: 2},
		{Name: "sub", Kind: host.KindDirectory},
	}, got)
	assert.Equal(t, 3, d.Tell())

	_, err = d.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 3, d.Tell())

	require.NoError(t, d.Close())
	assert.Zero(t, h.OpenHandles())
	assert.ErrorIs(t, d.Close(), ErrClosed)

	_, err = d.Next()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDirEntryReused(t *testing.T) {
	h := host.NewMemHost()
	mkdir(t, h, "/d")
	h.WriteFile("/d/one", nil)
	h.WriteFile("/d/two", nil)

	d, err := Open(h, "/d")
	require.NoError(t, err)
	defer d.Close()

	first, err := d.Next()
	require.NoError(t, err)
	second, err := d.Next()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "two", first.Name)
}

func TestOpenErrors(t *testing.T) {
	h := host.NewMemHost()
	h.WriteFile("/file", []byte("x"))

	t.Run("Missing", func(t *testing.T) {
		_, err := Open(h, "/nope")
		assert.ErrorIs(t, err, host.ErrNotFound)
	})

	t.Run("Not a directory", func(t *testing.T) {
		_, err := Open(h, "/file")
		assert.ErrorIs(t, err, host.ErrNotDir)
		assert.Zero(t, h.OpenHandles())
	})

	t.Run("Destroy failure", func(t *testing.T) {
		fh := host.NewFaultyHost(h)
		fh.AddRule("/", host.Fault{FailAfterBytes: -1, FailOnDestroy: true})
		_, err := Open(fh, "/")
		assert.Error(t, err)
		assert.Equal(t, 2, fh.Calls().Destroy)
	})
}
