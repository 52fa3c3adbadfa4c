// Package blobstore provides the storage abstraction behind the format bridge.
//
// A BlobStore reads and writes whole point cloud files (blobs) by name.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with mmap reads and atomic writes
//   - MemoryStore: in-memory store for tests
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible object stores
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)             // Open for reading
//	    Create(ctx, name) (WritableBlob, error)   // Create for writing
//	    Put(ctx, name, data) error                // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Blobs whose data is addressable in memory should also implement Mappable so
// readers can decode without copying.
package blobstore
