// Package host defines the syscall-style transport that streams are built on.
//
// A [Host] is keyed by [Handle]: an opaque resource identifier returned by
// Open and released exactly once by Destroy. Reads and writes are positioned
// by a signed logical offset: non-negative values are absolute, -1 means
// "the current end of file" and -(n+1) means "n bytes before the end".
// Hosts resolve these offsets at call time with [Resolve], so an append
// stream re-resolves the end on every write.
//
// # Implementations
//
//   - [MemHost]: in-memory host for tests and embedded use
//   - [FaultyHost]: wrapper that counts calls and injects failures
//   - oshost.Host: the local operating system (golang.org/x/sys/unix)
//   - objhost.Host: an object store (MinIO, S3) with optional compression
//
// # Design Notes
//
// The contract intentionally does NOT include context.Context parameters,
// mirroring the blocking syscalls it models. Hosts backed by remote storage
// carry their own context (see objhost.WithContext).
package host
