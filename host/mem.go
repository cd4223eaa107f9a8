package host

import (
	"io"
	"path"
	"sort"
	"strings"
	"sync"
)

// MemHost is an in-memory Host implementation.
// Paths are slash separated and cleaned; the root directory "/" always exists.
// Thread-safe for concurrent use, although streams on top of it are not.
type MemHost struct {
	mu      sync.Mutex
	nodes   map[string]*memNode
	handles map[Handle]*memHandle
	next    Handle
}

type memNode struct {
	data []byte
	dir  bool
}

type memHandle struct {
	path  string
	node  *memNode
	flags OpenFlag
	iter  *memIter
}

type memIter struct {
	entries []DirEntry
	pos     int
}

// NewMemHost creates an empty in-memory host.
func NewMemHost() *MemHost {
	return &MemHost{
		nodes:   map[string]*memNode{"/": {dir: true}},
		handles: make(map[Handle]*memHandle),
		next:    1,
	}
}

func cleanPath(p string) string {
	return path.Clean("/" + p)
}

func (m *MemHost) register(h *memHandle) Handle {
	id := m.next
	m.next++
	m.handles[id] = h
	return id
}

// Open opens or creates the resource at p.
func (m *MemHost) Open(p string, flags OpenFlag) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = cleanPath(p)
	n := m.nodes[p]
	if flags.Has(OpenCreateDirectory) {
		if n != nil {
			return 0, ErrExist
		}
		n = &memNode{dir: true}
		m.nodes[p] = n
		return m.register(&memHandle{path: p, node: n, flags: flags}), nil
	}
	if n == nil {
		if !flags.Has(OpenCreate) {
			return 0, ErrNotFound
		}
		n = &memNode{}
		m.nodes[p] = n
	}
	if n.dir && (flags.Has(OpenWrite) || flags.Has(OpenTruncate)) {
		return 0, ErrIsDir
	}
	if flags.Has(OpenTruncate) {
		n.data = nil
	}
	return m.register(&memHandle{path: p, node: n, flags: flags}), nil
}

// Destroy releases a handle.
func (m *MemHost) Destroy(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.handles[h]; !ok {
		return ErrBadHandle
	}
	delete(m.handles, h)
	return nil
}

func (m *MemHost) file(h Handle) (*memHandle, error) {
	mh, ok := m.handles[h]
	if !ok || mh.iter != nil {
		return nil, ErrBadHandle
	}
	if mh.node.dir {
		return nil, ErrIsDir
	}
	return mh, nil
}

// Read copies bytes at the resolved offset into p.
func (m *MemHost) Read(h Handle, off int64, p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mh, err := m.file(h)
	if err != nil {
		return 0, err
	}
	if !mh.flags.Has(OpenRead) {
		return 0, ErrNotReadable
	}
	data := mh.node.data
	pos := Resolve(off, int64(len(data)))
	if pos >= int64(len(data)) {
		return 0, nil
	}
	return copy(p, data[pos:]), nil
}

// Write stores p at the resolved offset, growing the file as needed.
func (m *MemHost) Write(h Handle, off int64, p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mh, err := m.file(h)
	if err != nil {
		return 0, err
	}
	if !mh.flags.Has(OpenWrite) {
		return 0, ErrNotWritable
	}
	n := mh.node
	pos := Resolve(off, int64(len(n.data)))
	if end := pos + int64(len(p)); end > int64(len(n.data)) {
		n.data = append(n.data, make([]byte, end-int64(len(n.data)))...)
	}
	copy(n.data[pos:], p)
	return len(p), nil
}

// Sync is a no-op for memory but still validates the handle.
func (m *MemHost) Sync(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.handles[h]; !ok {
		return ErrBadHandle
	}
	return nil
}

// Size returns the byte length of the resource.
func (m *MemHost) Size(h Handle) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mh, ok := m.handles[h]
	if !ok {
		return 0, ErrBadHandle
	}
	return int64(len(mh.node.data)), nil
}

// Remove deletes a file or an empty directory.
func (m *MemHost) Remove(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = cleanPath(p)
	n, ok := m.nodes[p]
	if !ok || p == "/" {
		return ErrNotFound
	}
	if n.dir {
		prefix := p + "/"
		for name := range m.nodes {
			if strings.HasPrefix(name, prefix) {
				return ErrNotEmpty
			}
		}
	}
	delete(m.nodes, p)
	return nil
}

// Rename moves a file or a directory together with its children.
func (m *MemHost) Rename(oldpath, newpath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldpath, newpath = cleanPath(oldpath), cleanPath(newpath)
	n, ok := m.nodes[oldpath]
	if !ok {
		return ErrNotFound
	}
	delete(m.nodes, oldpath)
	m.nodes[newpath] = n
	if n.dir {
		prefix := oldpath + "/"
		for name, child := range m.nodes {
			if strings.HasPrefix(name, prefix) {
				delete(m.nodes, name)
				m.nodes[newpath+"/"+strings.TrimPrefix(name, prefix)] = child
			}
		}
	}
	return nil
}

// OpenDirIter snapshots the immediate children of an open directory.
func (m *MemHost) OpenDirIter(h Handle) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mh, ok := m.handles[h]
	if !ok || mh.iter != nil {
		return 0, ErrBadHandle
	}
	if !mh.node.dir {
		return 0, ErrNotDir
	}

	prefix := mh.path + "/"
	if mh.path == "/" {
		prefix = "/"
	}
	seen := make(map[string]DirEntry)
	for name, n := range m.nodes {
		if name == mh.path || !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		child, _, nested := strings.Cut(rest, "/")
		if nested {
			// Intermediate directories are implied by deeper paths.
			seen[child] = DirEntry{Name: child, Kind: KindDirectory}
			continue
		}
		if _, ok := seen[child]; ok {
			continue
		}
		e := DirEntry{Name: child, Kind: KindFile, Size: int64(len(n.data))}
		if n.dir {
			e.Kind = KindDirectory
			e.Size = 0
		}
		seen[child] = e
	}

	entries := make([]DirEntry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return m.register(&memHandle{path: mh.path, node: mh.node, iter: &memIter{entries: entries}}), nil
}

// DirNext returns the next snapshotted entry.
func (m *MemHost) DirNext(h Handle) (DirEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mh, ok := m.handles[h]
	if !ok || mh.iter == nil {
		return DirEntry{}, ErrBadHandle
	}
	it := mh.iter
	if it.pos >= len(it.entries) {
		return DirEntry{}, io.EOF
	}
	e := it.entries[it.pos]
	it.pos++
	return e, nil
}

// WriteFile creates or replaces a file with data.
func (m *MemHost) WriteFile(p string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	m.nodes[cleanPath(p)] = &memNode{data: copied}
}

// ReadFile returns a copy of a file's content.
func (m *MemHost) ReadFile(p string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[cleanPath(p)]
	if !ok || n.dir {
		return nil, false
	}
	copied := make([]byte, len(n.data))
	copy(copied, n.data)
	return copied, true
}

// OpenHandles returns the number of live handles.
func (m *MemHost) OpenHandles() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}
