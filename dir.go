package cstdio

import (
	"errors"
	"io"
	"time"

	"github.com/hupe1980/cstdio/dirent"
	"github.com/hupe1980/cstdio/host"
)

// Opendir opens the directory at path and returns its token, or 0.
func (r *Runtime) Opendir(path string) DIR {
	if err := checkPath(path); err != nil {
		r.fail(err)
		return 0
	}
	start := time.Now()
	d, err := dirent.Open(r.host, path)
	r.metrics.RecordOpen(time.Since(start), err)
	if err != nil {
		r.logger.WithPath(path).Debug("opendir failed", "error", err)
		r.fail(&OpenError{Op: "opendir", Path: path, Err: err})
		return 0
	}
	tok := DIR(r.dirs.Insert(d))
	r.logger.WithPath(path).Debug("opendir completed", "dir", uint32(tok))
	return tok
}

// Readdir returns the next entry of d, or nil at the end. The entry is
// overwritten by the next call. errno is only set on failure.
func (r *Runtime) Readdir(d DIR) *host.DirEntry {
	dd, err := r.dir(d)
	if err != nil {
		r.fail(err)
		return nil
	}
	e, err := dd.Next()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			r.fail(&IOError{Op: "readdir", Err: err})
		}
		return nil
	}
	return e
}

// Telldir returns the number of entries read from d, or -1.
func (r *Runtime) Telldir(d DIR) int {
	dd, err := r.dir(d)
	if err != nil {
		r.fail(err)
		return -1
	}
	return dd.Tell()
}

// Closedir closes d and releases the token.
func (r *Runtime) Closedir(d DIR) int {
	dd, err := r.dir(d)
	if err != nil {
		r.fail(err)
		return -1
	}
	r.dirs.Remove(uint32(d))
	err = dd.Close()
	r.metrics.RecordClose(err)
	if err != nil {
		r.fail(&IOError{Op: "closedir", Err: err})
		return -1
	}
	return 0
}

// Mkdir creates a directory. The permission bits are ignored.
func (r *Runtime) Mkdir(path string, _ uint32) int {
	if err := checkPath(path); err != nil {
		r.fail(err)
		return -1
	}
	h, err := r.host.Open(path, host.OpenCreateDirectory)
	if err != nil {
		r.fail(&OpenError{Op: "mkdir", Path: path, Err: err})
		return -1
	}
	if err := r.host.Destroy(h); err != nil {
		r.fail(&IOError{Op: "mkdir", Err: err})
		return -1
	}
	return 0
}
