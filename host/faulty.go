package host

import (
	"errors"
	"strings"
	"sync"
)

// errInjected is the fallback error used when a Fault has no Err.
var errInjected = errors.New("injected fault error")

// Fault defines specific failure behavior.
type Fault struct {
	FailAfterBytes int64 // Fail writes after this many bytes written TO THIS HANDLE. -1 to disable.
	FailOnRead     bool
	FailOnSync     bool
	FailOnDestroy  bool
	FailOnSize     bool
	Err            error
}

func (f Fault) err() error {
	if f.Err != nil {
		return f.Err
	}
	return errInjected
}

// Calls counts the transport calls that reached a FaultyHost.
type Calls struct {
	Open    int
	Destroy int
	Read    int
	Write   int
	Sync    int
	Size    int
}

// FaultyHost is a Host wrapper that counts calls and can inject errors.
type FaultyHost struct {
	Host    Host
	Default Fault // Fallback

	mu      sync.Mutex
	rules   map[string]Fault // Path pattern -> Fault
	handles map[Handle]*faultyHandle
	calls   Calls
}

type faultyHandle struct {
	fault   Fault
	written int64
}

// NewFaultyHost creates a new FaultyHost wrapping h (or a fresh MemHost if nil).
func NewFaultyHost(h Host) *FaultyHost {
	if h == nil {
		h = NewMemHost()
	}
	return &FaultyHost{
		Host:    h,
		Default: Fault{FailAfterBytes: -1},
		rules:   make(map[string]Fault),
		handles: make(map[Handle]*faultyHandle),
	}
}

// AddRule adds a fault injection rule for paths containing pattern.
func (f *FaultyHost) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[pattern] = fault
}

// SetFault replaces the fault of an already open handle.
func (f *FaultyHost) SetFault(h Handle, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fh, ok := f.handles[h]; ok {
		fh.fault = fault
		return
	}
	f.handles[h] = &faultyHandle{fault: fault}
}

// Calls returns a snapshot of the call counters.
func (f *FaultyHost) Calls() Calls {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// ResetCalls zeroes the call counters.
func (f *FaultyHost) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = Calls{}
}

func (f *FaultyHost) faultFor(h Handle) Fault {
	if fh, ok := f.handles[h]; ok {
		return fh.fault
	}
	return f.Default
}

func (f *FaultyHost) Open(path string, flags OpenFlag) (Handle, error) {
	f.mu.Lock()
	f.calls.Open++
	f.mu.Unlock()

	h, err := f.Host.Open(path, flags)
	if err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	fault := f.Default
	// Match pattern (last winning match)
	for pattern, rule := range f.rules {
		if strings.Contains(path, pattern) {
			fault = rule
		}
	}
	f.handles[h] = &faultyHandle{fault: fault}
	return h, nil
}

func (f *FaultyHost) Destroy(h Handle) error {
	f.mu.Lock()
	f.calls.Destroy++
	fault := f.faultFor(h)
	f.mu.Unlock()

	if fault.FailOnDestroy {
		return fault.err()
	}
	if err := f.Host.Destroy(h); err != nil {
		return err
	}

	f.mu.Lock()
	delete(f.handles, h)
	f.mu.Unlock()
	return nil
}

func (f *FaultyHost) Read(h Handle, off int64, p []byte) (int, error) {
	f.mu.Lock()
	f.calls.Read++
	fault := f.faultFor(h)
	f.mu.Unlock()

	if fault.FailOnRead {
		return 0, fault.err()
	}
	return f.Host.Read(h, off, p)
}

func (f *FaultyHost) Write(h Handle, off int64, p []byte) (int, error) {
	f.mu.Lock()
	f.calls.Write++
	fh, ok := f.handles[h]
	if !ok {
		fh = &faultyHandle{fault: f.Default}
		f.handles[h] = fh
	}
	if fh.fault.FailAfterBytes >= 0 && fh.written+int64(len(p)) > fh.fault.FailAfterBytes {
		err := fh.fault.err()
		f.mu.Unlock()
		return 0, err
	}
	f.mu.Unlock()

	n, err := f.Host.Write(h, off, p)

	f.mu.Lock()
	fh.written += int64(n)
	f.mu.Unlock()
	return n, err
}

func (f *FaultyHost) Sync(h Handle) error {
	f.mu.Lock()
	f.calls.Sync++
	fault := f.faultFor(h)
	f.mu.Unlock()

	if fault.FailOnSync {
		return fault.err()
	}
	return f.Host.Sync(h)
}

func (f *FaultyHost) Size(h Handle) (int64, error) {
	f.mu.Lock()
	f.calls.Size++
	fault := f.faultFor(h)
	f.mu.Unlock()

	if fault.FailOnSize {
		return 0, fault.err()
	}
	return f.Host.Size(h)
}

func (f *FaultyHost) Remove(path string) error { return f.Host.Remove(path) }

func (f *FaultyHost) Rename(oldpath, newpath string) error {
	return f.Host.Rename(oldpath, newpath)
}

func (f *FaultyHost) OpenDirIter(h Handle) (Handle, error) { return f.Host.OpenDirIter(h) }

func (f *FaultyHost) DirNext(h Handle) (DirEntry, error) { return f.Host.DirNext(h) }
