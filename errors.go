package cstdio

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/hupe1980/cstdio/dirent"
	"github.com/hupe1980/cstdio/format"
	"github.com/hupe1980/cstdio/host"
	"github.com/hupe1980/cstdio/stream"
)

var (
	// ErrBadStream is returned for a null, unknown or closed FILE or DIR token.
	ErrBadStream = errors.New("bad stream")

	// ErrInvalidArgument is returned for malformed call arguments.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidEncoding is returned when a path is not valid UTF-8 or contains NUL.
	ErrInvalidEncoding = errors.New("invalid path encoding")

	// ErrAlreadyInitialized is returned by a second InitStdio call.
	ErrAlreadyInitialized = errors.New("standard streams already initialized")
)

// OpenError records a failed open of a path.
//
// The host error can be accessed via errors.Unwrap.
type OpenError struct {
	Op   string
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// IOError records a failed transfer on an open stream.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Errno is a C error number.
type Errno int32

const (
	ENOENT    Errno = 2
	EIO       Errno = 5
	EBADF     Errno = 9
	EACCES    Errno = 13
	EEXIST    Errno = 17
	ENOTDIR   Errno = 20
	EISDIR    Errno = 21
	EINVAL    Errno = 22
	ERANGE    Errno = 34
	ENOTEMPTY Errno = 39
	EILSEQ    Errno = 84
)

var errnoText = map[Errno]string{
	0:         "Success",
	ENOENT:    "No such file or directory",
	EIO:       "Input/output error",
	EBADF:     "Bad file descriptor",
	EACCES:    "Permission denied",
	EEXIST:    "File exists",
	ENOTDIR:   "Not a directory",
	EISDIR:    "Is a directory",
	EINVAL:    "Invalid argument",
	ERANGE:    "Numerical result out of range",
	ENOTEMPTY: "Directory not empty",
	EILSEQ:    "Invalid or incomplete multibyte or wide character",
}

func (e Errno) Error() string { return Strerror(e) }

// Strerror returns the message for an error number.
func Strerror(e Errno) string {
	if s, ok := errnoText[e]; ok {
		return s
	}
	return fmt.Sprintf("Unknown error %d", int32(e))
}

// ErrnoOf classifies err into an error number. A nil error is 0 and
// anything unrecognized is EIO.
func ErrnoOf(err error) Errno {
	if err == nil {
		return 0
	}

	var en Errno
	if errors.As(err, &en) {
		return en
	}
	var argErr *format.ArgError
	if errors.As(err, &argErr) {
		return EINVAL
	}

	switch {
	case errors.Is(err, ErrInvalidEncoding):
		return EILSEQ
	case errors.Is(err, host.ErrNotFound):
		return ENOENT
	case errors.Is(err, host.ErrExist):
		return EEXIST
	case errors.Is(err, host.ErrNotDir):
		return ENOTDIR
	case errors.Is(err, host.ErrIsDir):
		return EISDIR
	case errors.Is(err, host.ErrNotEmpty):
		return ENOTEMPTY
	case errors.Is(err, ErrBadStream),
		errors.Is(err, stream.ErrClosed),
		errors.Is(err, dirent.ErrClosed),
		errors.Is(err, host.ErrBadHandle),
		errors.Is(err, host.ErrNotReadable),
		errors.Is(err, host.ErrNotWritable):
		return EBADF
	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrAlreadyInitialized),
		errors.Is(err, stream.ErrInvalidSeek),
		errors.Is(err, stream.ErrInvalidMode),
		errors.Is(err, stream.ErrPushbackFull):
		return EINVAL
	case errors.Is(err, errRange):
		return ERANGE
	case errors.Is(err, os.ErrPermission):
		return EACCES
	}

	var se syscall.Errno
	if errors.As(err, &se) {
		return Errno(se)
	}
	return EIO
}

// errRange marks size computations that do not fit.
var errRange = errors.New("result out of range")
