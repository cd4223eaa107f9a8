// Package oshost implements host.Host over the local operating system.
//
// Positioned transfers use pread/pwrite so the stream's logical offset is the
// only position state; the kernel file offset is never consulted. End-relative
// offsets are resolved against fstat at call time.
//
//	h := oshost.New(t.TempDir())
//	rt := cstdio.New(h)
package oshost
