package host

import (
	"errors"
	"os"
)

// Handle identifies an open resource.
type Handle uint32

// OpenFlag controls how Open resolves a path.
type OpenFlag uint32

const (
	// OpenRead allows Read on the returned handle.
	OpenRead OpenFlag = 1 << iota
	// OpenWrite allows Write on the returned handle.
	OpenWrite
	// OpenCreate creates the file if it does not exist.
	OpenCreate
	// OpenTruncate discards existing content.
	OpenTruncate
	// OpenCreateDirectory creates a directory at the path.
	OpenCreateDirectory
)

// Has reports whether all bits of mask are set.
func (f OpenFlag) Has(mask OpenFlag) bool { return f&mask == mask }

var (
	// ErrNotFound is returned when a path does not exist.
	// It maps to os.ErrNotExist so errors.Is works across hosts.
	ErrNotFound = os.ErrNotExist

	// ErrExist is returned when creating something that already exists.
	ErrExist = os.ErrExist

	// ErrBadHandle is returned for unknown or already destroyed handles.
	ErrBadHandle = errors.New("bad resource handle")

	// ErrNotReadable is returned when reading a handle opened without OpenRead.
	ErrNotReadable = errors.New("resource not opened for reading")

	// ErrNotWritable is returned when writing a handle opened without OpenWrite.
	ErrNotWritable = errors.New("resource not opened for writing")

	// ErrNotDir is returned when iterating something that is not a directory.
	ErrNotDir = errors.New("not a directory")

	// ErrIsDir is returned when doing file I/O on a directory.
	ErrIsDir = errors.New("is a directory")

	// ErrNotEmpty is returned when removing a directory that still has children.
	ErrNotEmpty = errors.New("directory not empty")
)

// EntryKind classifies a directory entry.
type EntryKind uint8

const (
	KindFile EntryKind = iota
	KindDirectory
)

func (k EntryKind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// DirEntry is one entry produced by a directory iterator.
type DirEntry struct {
	Name string
	Kind EntryKind
	Size int64
}

// Host is the transport consumed by streams and directory iterators.
type Host interface {
	Open(path string, flags OpenFlag) (Handle, error)
	Destroy(h Handle) error

	// Read and Write perform exactly one transfer at the logical offset off.
	// Read returns 0, nil at end of file.
	Read(h Handle, off int64, p []byte) (int, error)
	Write(h Handle, off int64, p []byte) (int, error)

	Sync(h Handle) error
	Size(h Handle) (int64, error)

	Remove(path string) error
	Rename(oldpath, newpath string) error

	// OpenDirIter derives a new iterator resource from an open directory.
	OpenDirIter(h Handle) (Handle, error)
	// DirNext returns the next entry or io.EOF.
	DirNext(h Handle) (DirEntry, error)
}

// Resolve maps a logical offset to an absolute one for a resource of the
// given size. End-relative offsets that reach before the start resolve to 0.
func Resolve(off, size int64) int64 {
	if off >= 0 {
		return off
	}
	back := -(off + 1)
	if back >= size {
		return 0
	}
	return size - back
}
