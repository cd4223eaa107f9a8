// Package cstdio implements the stdio surface of a C library on top of a
// small syscall-style transport.
//
// A [Runtime] owns every open stream and directory iterator and hands out
// opaque [FILE] and [DIR] tokens, with 0 playing the role of NULL. Calls
// follow C conventions: failures return a negative sentinel (or a 0 token)
// and leave the cause in the last-error slot, read with [Runtime.Errno].
//
// # Quick Start
//
//	h := host.NewMemHost()
//	rt := cstdio.New(h)
//	defer rt.Shutdown()
//
//	f := rt.Fopen("/greeting.txt", "w+")
//	rt.Fprintf(f, "%s, %d!\n", format.CString("hello"), format.Int(42))
//	rt.Rewind(f)
//	line := rt.Fgetline(f)
//	rt.Fclose(f)
//
// # Standard streams
//
// InitStdio wraps three host handles once per runtime: stdout is line
// buffered, stderr unbuffered and stdin block buffered. Shutdown flushes
// and releases them together with everything else still open.
//
// # Hosts
//
// The transport is a [host.Host]. Besides the in-memory host, the module
// ships adapters for the local file system (host/oshost) and for object
// stores such as MinIO and S3 (host/objhost).
//
// # Formatting
//
// Printf and Scanf style calls take tagged arguments from the format
// package (format.Int, format.Long, format.CString, format.Out, ...). An
// argument whose tag does not fit its conversion fails the call with
// EINVAL instead of reading garbage.
package cstdio
