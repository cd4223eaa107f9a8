package cstdio

import (
	"bytes"
	"io"

	"github.com/hupe1980/cstdio/format"
)

// Vfprintf formats into f from a pre-expanded argument list and returns
// the number of bytes written, or -1.
func (r *Runtime) Vfprintf(f FILE, fmtStr string, args *format.Args) int {
	s, err := r.file(f)
	if err != nil {
		r.fail(err)
		return -1
	}
	n, err := format.Fprintf(s, []byte(fmtStr), args)
	r.metrics.RecordWrite(n, err)
	if err != nil {
		r.fail(err)
		return -1
	}
	r.logUnused(fmtStr, args)
	return n
}

// logUnused reports arguments the format never consumed. C ignores them.
func (r *Runtime) logUnused(fmtStr string, args *format.Args) {
	if n := args.Remaining(); n > 0 {
		r.logger.Debug("unused format arguments", "format", fmtStr, "count", n)
	}
}

// Fprintf formats into f.
func (r *Runtime) Fprintf(f FILE, fmtStr string, args ...format.Arg) int {
	return r.Vfprintf(f, fmtStr, format.NewArgs(args...))
}

// Printf formats into stdout.
func (r *Runtime) Printf(fmtStr string, args ...format.Arg) int {
	return r.Vfprintf(r.stdout, fmtStr, format.NewArgs(args...))
}

// Vsnprintf formats into at most n bytes of dst, always NUL-terminating
// when n > 0. It returns the length the full output would have had, or -1.
func (r *Runtime) Vsnprintf(dst []byte, n int, fmtStr string, args *format.Args) int {
	if n < 0 {
		r.fail(ErrInvalidArgument)
		return -1
	}
	capacity := min(n, len(dst))

	var sink *format.FixedBuffer
	if capacity > 0 {
		sink = format.NewFixedBuffer(dst[:capacity-1])
	} else {
		sink = format.NewFixedBuffer(nil)
	}
	total, err := format.Fprintf(sink, []byte(fmtStr), args)
	if capacity > 0 {
		dst[sink.Len()] = 0
	}
	if err != nil {
		r.fail(err)
		return -1
	}
	r.logUnused(fmtStr, args)
	return total
}

// Snprintf formats into at most n bytes of dst.
func (r *Runtime) Snprintf(dst []byte, n int, fmtStr string, args ...format.Arg) int {
	return r.Vsnprintf(dst, n, fmtStr, format.NewArgs(args...))
}

// Sprintf formats into dst, using all of dst as the capacity.
func (r *Runtime) Sprintf(dst []byte, fmtStr string, args ...format.Arg) int {
	return r.Vsnprintf(dst, len(dst), fmtStr, format.NewArgs(args...))
}

// scan runs the scanner and converts the result to a C return value:
// the number of stored conversions, or EOF when input ran out first.
func (r *Runtime) scan(src io.Reader, fmtStr string, args []format.Arg) int {
	res, err := format.Fscanf(src, []byte(fmtStr), format.NewArgs(args...))
	r.metrics.RecordRead(res.Consumed, err)
	if err != nil {
		r.fail(err)
		return EOF
	}
	if res.Matched == 0 && res.EOF {
		return EOF
	}
	return res.Matched
}

// Fscanf scans from f.
func (r *Runtime) Fscanf(f FILE, fmtStr string, args ...format.Arg) int {
	s, err := r.file(f)
	if err != nil {
		r.fail(err)
		return EOF
	}
	return r.scan(s, fmtStr, args)
}

// Scanf scans from stdin.
func (r *Runtime) Scanf(fmtStr string, args ...format.Arg) int {
	return r.Fscanf(r.stdin, fmtStr, args...)
}

// Sscanf scans the C string src.
func (r *Runtime) Sscanf(src, fmtStr string, args ...format.Arg) int {
	return r.scan(bytes.NewReader([]byte(cstring(src))), fmtStr, args)
}
