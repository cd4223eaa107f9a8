package dirent

import (
	"errors"
	"io"

	"github.com/hupe1980/cstdio/host"
)

// ErrClosed is returned by operations on a closed Dir.
var ErrClosed = errors.New("dirent: directory iterator closed")

// Dir is an open directory iterator.
type Dir struct {
	host   host.Host
	handle host.Handle
	index  int
	entry  host.DirEntry
	closed bool
}

// Open opens the directory at path and derives an iterator from it.
func Open(h host.Host, path string) (*Dir, error) {
	dh, err := h.Open(path, 0)
	if err != nil {
		return nil, err
	}
	it, err := h.OpenDirIter(dh)
	if err != nil {
		_ = h.Destroy(dh)
		return nil, err
	}
	if err := h.Destroy(dh); err != nil {
		_ = h.Destroy(it)
		return nil, err
	}
	return &Dir{host: h, handle: it}, nil
}

// Next returns the next entry, or io.EOF after the last one.
// The returned entry is owned by d and overwritten by the following call.
func (d *Dir) Next() (*host.DirEntry, error) {
	if d.closed {
		return nil, ErrClosed
	}
	e, err := d.host.DirNext(d.handle)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	d.index++
	d.entry = e
	return &d.entry, nil
}

// Tell returns the number of entries fetched so far.
func (d *Dir) Tell() int { return d.index }

// Close releases the iterator. Only the first call reaches the host.
func (d *Dir) Close() error {
	if d.closed {
		return ErrClosed
	}
	d.closed = true
	return d.host.Destroy(d.handle)
}
