package objhost

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/hupe1980/cstdio/host"
	"golang.org/x/time/rate"
)

// Host is a host.Host backed by an ObjectStore.
type Host struct {
	store   ObjectStore
	ctx     context.Context
	codec   Codec
	limiter *rate.Limiter

	mu      sync.Mutex
	handles map[host.Handle]*object
	next    host.Handle
}

// object is one open handle. mu guards data and dirty; Host.mu only
// guards the handle table.
type object struct {
	mu    sync.Mutex
	key   string
	flags host.OpenFlag
	data  []byte
	dirty bool
	dir   bool
	iter  []host.DirEntry
	isIt  bool
}

var _ host.Host = (*Host)(nil)

// New creates a Host over store.
func New(store ObjectStore, optFns ...Option) *Host {
	opts := options{ctx: context.Background()}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Host{
		store:   store,
		ctx:     opts.ctx,
		codec:   opts.codec,
		limiter: opts.limiter,
		handles: make(map[host.Handle]*object),
		next:    1,
	}
}

// objectKey maps a path to a key: cleaned, without a leading slash.
// The root directory maps to "".
func objectKey(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

func dirPrefix(key string) string {
	if key == "" {
		return ""
	}
	return key + "/"
}

// wait blocks until n bytes of transfer budget are available.
func (h *Host) wait(n int) error {
	if h.limiter == nil {
		return nil
	}
	burst := h.limiter.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := h.limiter.WaitN(h.ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

func (h *Host) get(key string) ([]byte, error) {
	body, err := h.store.Get(h.ctx, key)
	if err != nil {
		return nil, err
	}
	if err := h.wait(len(body)); err != nil {
		return nil, err
	}
	return decode(body)
}

func (h *Host) put(key string, data []byte) error {
	body, err := encode(h.codec, data)
	if err != nil {
		return err
	}
	if err := h.wait(len(body)); err != nil {
		return err
	}
	return h.store.Put(h.ctx, key, body)
}

func (h *Host) isDir(key string) (bool, error) {
	if key == "" {
		return true, nil
	}
	infos, err := h.store.List(h.ctx, dirPrefix(key))
	if err != nil {
		return false, err
	}
	return len(infos) > 0, nil
}

func (h *Host) register(o *object) host.Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.handles[id] = o
	return id
}

// Open loads, creates or truncates the object at p.
func (h *Host) Open(p string, flags host.OpenFlag) (host.Handle, error) {
	key := objectKey(p)

	if flags.Has(host.OpenCreateDirectory) {
		dir, err := h.isDir(key)
		if err != nil {
			return 0, err
		}
		if dir {
			return 0, host.ErrExist
		}
		if err := h.store.Put(h.ctx, dirPrefix(key), nil); err != nil {
			return 0, err
		}
		return h.register(&object{key: key, dir: true}), nil
	}

	if key != "" {
		data, err := h.get(key)
		switch {
		case err == nil:
			o := &object{key: key, flags: flags, data: data}
			if flags.Has(host.OpenTruncate) && len(data) > 0 {
				o.data = nil
				o.dirty = true
			}
			return h.register(o), nil
		case !errors.Is(err, ErrNotFound):
			return 0, err
		}
	}

	dir, err := h.isDir(key)
	if err != nil {
		return 0, err
	}
	if dir {
		if flags.Has(host.OpenWrite) || flags.Has(host.OpenTruncate) {
			return 0, host.ErrIsDir
		}
		return h.register(&object{key: key, dir: true}), nil
	}

	if !flags.Has(host.OpenCreate) {
		return 0, host.ErrNotFound
	}
	// Created objects exist once opened, as with open(O_CREAT).
	if err := h.put(key, nil); err != nil {
		return 0, err
	}
	return h.register(&object{key: key, flags: flags}), nil
}

// Destroy uploads a dirty body and releases the handle. The handle is
// released even when the upload fails.
func (h *Host) Destroy(id host.Handle) error {
	h.mu.Lock()
	o, ok := h.handles[id]
	delete(h.handles, id)
	h.mu.Unlock()

	if !ok {
		return host.ErrBadHandle
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.dirty {
		return h.put(o.key, o.data)
	}
	return nil
}

func (h *Host) file(id host.Handle) (*object, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	o, ok := h.handles[id]
	if !ok || o.isIt {
		return nil, host.ErrBadHandle
	}
	if o.dir {
		return nil, host.ErrIsDir
	}
	return o, nil
}

// Read copies from the in-memory body.
func (h *Host) Read(id host.Handle, off int64, p []byte) (int, error) {
	o, err := h.file(id)
	if err != nil {
		return 0, err
	}
	if !o.flags.Has(host.OpenRead) {
		return 0, host.ErrNotReadable
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	pos := host.Resolve(off, int64(len(o.data)))
	if pos >= int64(len(o.data)) {
		return 0, nil
	}
	return copy(p, o.data[pos:]), nil
}

// Write updates the in-memory body and marks it dirty.
func (h *Host) Write(id host.Handle, off int64, p []byte) (int, error) {
	o, err := h.file(id)
	if err != nil {
		return 0, err
	}
	if !o.flags.Has(host.OpenWrite) {
		return 0, host.ErrNotWritable
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	pos := host.Resolve(off, int64(len(o.data)))
	if end := pos + int64(len(p)); end > int64(len(o.data)) {
		o.data = append(o.data, make([]byte, end-int64(len(o.data)))...)
	}
	copy(o.data[pos:], p)
	if len(p) > 0 {
		o.dirty = true
	}
	return len(p), nil
}

// Sync uploads the body if it changed since the last upload. Writes on
// the same handle wait for the upload to finish.
func (h *Host) Sync(id host.Handle) error {
	o, err := h.file(id)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.dirty {
		return nil
	}
	if err := h.put(o.key, o.data); err != nil {
		return err
	}
	o.dirty = false
	return nil
}

// Size returns the in-memory body length.
func (h *Host) Size(id host.Handle) (int64, error) {
	h.mu.Lock()
	o, ok := h.handles[id]
	h.mu.Unlock()
	if !ok || o.isIt {
		return 0, host.ErrBadHandle
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return int64(len(o.data)), nil
}

// Remove deletes an object or an empty directory marker.
func (h *Host) Remove(p string) error {
	key := objectKey(p)
	if key == "" {
		return host.ErrNotFound
	}
	if _, err := h.store.Get(h.ctx, key); err == nil {
		return h.store.Delete(h.ctx, key)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	marker := dirPrefix(key)
	infos, err := h.store.List(h.ctx, marker)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return host.ErrNotFound
	}
	for _, info := range infos {
		if info.Key != marker {
			return host.ErrNotEmpty
		}
	}
	return h.store.Delete(h.ctx, marker)
}

// Rename copies the object to its new key and deletes the old one.
func (h *Host) Rename(oldpath, newpath string) error {
	oldKey, newKey := objectKey(oldpath), objectKey(newpath)
	body, err := h.store.Get(h.ctx, oldKey)
	if err != nil {
		return err
	}
	if err := h.wait(2 * len(body)); err != nil {
		return err
	}
	if err := h.store.Put(h.ctx, newKey, body); err != nil {
		return err
	}
	return h.store.Delete(h.ctx, oldKey)
}

// OpenDirIter lists the keys below an open directory.
func (h *Host) OpenDirIter(id host.Handle) (host.Handle, error) {
	h.mu.Lock()
	o, ok := h.handles[id]
	h.mu.Unlock()
	if !ok || o.isIt {
		return 0, host.ErrBadHandle
	}
	if !o.dir {
		return 0, host.ErrNotDir
	}

	prefix := dirPrefix(o.key)
	infos, err := h.store.List(h.ctx, prefix)
	if err != nil {
		return 0, err
	}
	var entries []host.DirEntry
	seen := make(map[string]bool)
	for _, info := range infos {
		rest := strings.TrimPrefix(info.Key, prefix)
		if rest == "" {
			continue // the directory's own marker
		}
		child, _, nested := strings.Cut(rest, "/")
		if seen[child] {
			continue
		}
		seen[child] = true
		e := host.DirEntry{Name: child, Kind: host.KindFile, Size: info.Size}
		if nested {
			e.Kind = host.KindDirectory
			e.Size = 0
		}
		entries = append(entries, e)
	}
	return h.register(&object{key: o.key, isIt: true, iter: entries}), nil
}

// DirNext returns the next listed entry or io.EOF.
func (h *Host) DirNext(id host.Handle) (host.DirEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	o, ok := h.handles[id]
	if !ok || !o.isIt {
		return host.DirEntry{}, host.ErrBadHandle
	}
	if len(o.iter) == 0 {
		return host.DirEntry{}, io.EOF
	}
	e := o.iter[0]
	o.iter = o.iter[1:]
	return e, nil
}
