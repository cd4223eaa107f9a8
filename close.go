package cstdio

import (
	"errors"

	"github.com/hupe1980/cstdio/stream"
)

// Shutdown flushes and closes every open stream and directory. Failures do
// not stop the teardown: they are logged and joined into the result.
func (r *Runtime) Shutdown() error {
	var errs []error
	closed, failed := 0, 0

	for _, tok := range r.files.Tokens() {
		s, _ := r.files.Remove(tok)
		err := s.Close()
		if errors.Is(err, stream.ErrClosed) {
			// Left behind by a failed Freopen; the handle is already released.
			continue
		}
		r.metrics.RecordClose(err)
		closed++
		if err != nil {
			failed++
			r.logger.Error("teardown close failed", "stream", tok, "error", err)
			errs = append(errs, &IOError{Op: "close", Err: err})
		}
	}
	for _, tok := range r.dirs.Tokens() {
		d, _ := r.dirs.Remove(tok)
		err := d.Close()
		r.metrics.RecordClose(err)
		closed++
		if err != nil {
			failed++
			r.logger.Error("teardown closedir failed", "dir", tok, "error", err)
			errs = append(errs, &IOError{Op: "closedir", Err: err})
		}
	}

	r.stdin, r.stdout, r.stderr = 0, 0, 0
	r.logger.LogShutdown(closed, failed)
	return errors.Join(errs...)
}

// Close implements io.Closer by calling Shutdown.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	return r.Shutdown()
}
