// Package stream implements buffered file streams over a host.Host.
//
// A Stream composes a Raw stream, which performs exactly one host call per
// read or write at a signed logical offset, with one of three buffering
// disciplines:
//
//   - Unbuffered: every call goes straight to the host.
//   - Block: reads and writes go through fixed-size chunks.
//   - Line: output is held until a newline, input is fetched a line at a time.
//
// # Logical offsets
//
// Non-negative offsets are absolute. The sentinel -1 means "the current end
// of file" and is re-resolved by the host on every call, which gives
// O_APPEND semantics without a separate flag. Values below -1 encode
// -(n+1), that is n bytes before the end.
//
// Streams are not safe for concurrent use.
package stream
