//go:build unix

package oshost

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hupe1980/cstdio/host"
	"golang.org/x/sys/unix"
)

// Host is a host.Host backed by file descriptors.
type Host struct {
	root string

	mu      sync.Mutex
	entries map[host.Handle]*entry
	next    host.Handle
}

type entry struct {
	fd    int
	path  string
	dir   bool
	iter  []host.DirEntry
	isIt  bool
	flags host.OpenFlag
}

var _ host.Host = (*Host)(nil)

// New creates a Host. Relative and absolute paths are both resolved below
// root; an empty root uses paths as given.
func New(root string) *Host {
	return &Host{
		root:    root,
		entries: make(map[host.Handle]*entry),
		next:    1,
	}
}

func (h *Host) path(p string) string {
	if h.root == "" {
		return p
	}
	return filepath.Join(h.root, filepath.FromSlash(filepath.Clean("/"+p)))
}

func (h *Host) register(e *entry) host.Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.entries[id] = e
	return id
}

func (h *Host) lookup(id host.Handle) (*entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.entries[id]
	if !ok {
		return nil, host.ErrBadHandle
	}
	return e, nil
}

func (h *Host) file(id host.Handle) (*entry, error) {
	e, err := h.lookup(id)
	if err != nil {
		return nil, err
	}
	if e.isIt {
		return nil, host.ErrBadHandle
	}
	if e.dir {
		return nil, host.ErrIsDir
	}
	return e, nil
}

func openMode(flags host.OpenFlag) int {
	var mode int
	switch {
	case flags.Has(host.OpenRead | host.OpenWrite):
		mode = unix.O_RDWR
	case flags.Has(host.OpenWrite):
		mode = unix.O_WRONLY
	default:
		mode = unix.O_RDONLY
	}
	if flags.Has(host.OpenCreate) {
		mode |= unix.O_CREAT
	}
	if flags.Has(host.OpenTruncate) {
		mode |= unix.O_TRUNC
	}
	return mode | unix.O_CLOEXEC
}

// Open opens p with the given flags.
func (h *Host) Open(p string, flags host.OpenFlag) (host.Handle, error) {
	full := h.path(p)
	if flags.Has(host.OpenCreateDirectory) {
		if err := unix.Mkdir(full, 0o755); err != nil {
			return 0, &os.PathError{Op: "mkdir", Path: p, Err: err}
		}
		flags = 0
	}

	fd, err := unix.Open(full, openMode(flags), 0o644)
	if err != nil {
		return 0, &os.PathError{Op: "open", Path: p, Err: err}
	}
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		_ = unix.Close(fd)
		return 0, &os.PathError{Op: "fstat", Path: p, Err: err}
	}
	return h.register(&entry{
		fd:    fd,
		path:  full,
		dir:   st.Mode&unix.S_IFMT == unix.S_IFDIR,
		flags: flags,
	}), nil
}

// Destroy closes the descriptor behind id.
func (h *Host) Destroy(id host.Handle) error {
	h.mu.Lock()
	e, ok := h.entries[id]
	if ok {
		delete(h.entries, id)
	}
	h.mu.Unlock()

	if !ok {
		return host.ErrBadHandle
	}
	if e.isIt {
		return nil
	}
	return unix.Close(e.fd)
}

func (h *Host) resolve(e *entry, off int64) (int64, error) {
	if off >= 0 {
		return off, nil
	}
	size, err := fstatSize(e.fd)
	if err != nil {
		return 0, err
	}
	return host.Resolve(off, size), nil
}

// Read performs one pread at the resolved offset.
func (h *Host) Read(id host.Handle, off int64, p []byte) (int, error) {
	e, err := h.file(id)
	if err != nil {
		return 0, err
	}
	pos, err := h.resolve(e, off)
	if err != nil {
		return 0, err
	}
	n, err := unix.Pread(e.fd, p, pos)
	if n < 0 {
		n = 0
	}
	return n, err
}

// Write performs one pwrite at the resolved offset.
func (h *Host) Write(id host.Handle, off int64, p []byte) (int, error) {
	e, err := h.file(id)
	if err != nil {
		return 0, err
	}
	pos, err := h.resolve(e, off)
	if err != nil {
		return 0, err
	}
	n, err := unix.Pwrite(e.fd, p, pos)
	if n < 0 {
		n = 0
	}
	return n, err
}

// Sync flushes the descriptor to stable storage.
func (h *Host) Sync(id host.Handle) error {
	e, err := h.file(id)
	if err != nil {
		return err
	}
	return unix.Fsync(e.fd)
}

// Size returns the current file size.
func (h *Host) Size(id host.Handle) (int64, error) {
	e, err := h.lookup(id)
	if err != nil {
		return 0, err
	}
	if e.isIt {
		return 0, host.ErrBadHandle
	}
	return fstatSize(e.fd)
}

func fstatSize(fd int) (int64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return 0, err
	}
	return st.Size, nil
}

// Remove unlinks a file or removes an empty directory.
func (h *Host) Remove(p string) error {
	full := h.path(p)
	err := unix.Unlink(full)
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.EISDIR) || errors.Is(err, unix.EPERM) {
		rerr := unix.Rmdir(full)
		switch {
		case rerr == nil:
			return nil
		case errors.Is(rerr, unix.ENOTEMPTY) || errors.Is(rerr, unix.EEXIST):
			return &os.PathError{Op: "remove", Path: p, Err: host.ErrNotEmpty}
		}
	}
	return &os.PathError{Op: "remove", Path: p, Err: err}
}

// Rename renames oldpath to newpath.
func (h *Host) Rename(oldpath, newpath string) error {
	if err := unix.Rename(h.path(oldpath), h.path(newpath)); err != nil {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: err}
	}
	return nil
}

// OpenDirIter snapshots the entries of an open directory.
func (h *Host) OpenDirIter(id host.Handle) (host.Handle, error) {
	e, err := h.lookup(id)
	if err != nil {
		return 0, err
	}
	if e.isIt {
		return 0, host.ErrBadHandle
	}
	if !e.dir {
		return 0, host.ErrNotDir
	}
	dirents, err := os.ReadDir(e.path)
	if err != nil {
		return 0, err
	}
	list := make([]host.DirEntry, 0, len(dirents))
	for _, d := range dirents {
		de := host.DirEntry{Name: d.Name(), Kind: host.KindFile}
		if d.IsDir() {
			de.Kind = host.KindDirectory
		} else if info, err := d.Info(); err == nil {
			de.Size = info.Size()
		}
		list = append(list, de)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return h.register(&entry{path: e.path, isIt: true, iter: list}), nil
}

// DirNext returns the next directory entry or io.EOF.
func (h *Host) DirNext(id host.Handle) (host.DirEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.entries[id]
	if !ok || !e.isIt {
		return host.DirEntry{}, host.ErrBadHandle
	}
	if len(e.iter) == 0 {
		return host.DirEntry{}, io.EOF
	}
	next := e.iter[0]
	e.iter = e.iter[1:]
	return next, nil
}
