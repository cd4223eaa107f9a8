// Package objhost implements host.Host on top of an object store.
//
// Object stores have no partial writes, so every open handle keeps the whole
// object body in memory: the body is downloaded on Open, reads and writes are
// served from memory, and Sync uploads it. Destroy uploads a dirty body before
// releasing the handle.
//
// Directories are marker objects whose key ends in "/"; directory iteration
// lists the keys below the directory prefix and reports the next path segment.
//
// # Compression
//
// Bodies can be stored compressed (see [WithCodec]):
//
//   - CodecNone: raw bytes (default; interoperable with other bucket users)
//   - CodecLZ4: LZ4 block compression (fast)
//   - CodecZstd: Zstandard (better ratio)
//
// Compressed bodies carry a small header; bodies without it are read as raw
// bytes, so a bucket may mix both.
//
// # Adapters
//
//   - objhost/minio: MinIO and other S3-compatible servers
//   - objhost/s3: Amazon S3 via aws-sdk-go-v2
//   - [MemoryStore]: in-memory store for tests
package objhost
