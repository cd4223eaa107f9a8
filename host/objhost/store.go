package objhost

import (
	"context"

	"github.com/hupe1980/cstdio/host"
)

// ErrNotFound is returned by stores when an object does not exist.
// It aliases host.ErrNotFound so errors.Is works end to end.
var ErrNotFound = host.ErrNotFound

// ObjectInfo describes one listed object.
type ObjectInfo struct {
	Key  string
	Size int64 // Stored size (compressed bodies report their compressed size)
}

// ObjectStore is the minimal object API the host needs.
// Implementations must be safe for concurrent use.
type ObjectStore interface {
	// Get downloads a whole object. Missing objects return ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put uploads a whole object atomically.
	Put(ctx context.Context, key string, data []byte) error
	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
	// List returns all objects whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}
