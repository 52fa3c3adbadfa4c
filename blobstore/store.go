package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for reading and writing point cloud files.
// Implementations must be safe for concurrent use.
type BlobStore interface {
	// Open opens a blob for reading. Remote implementations bind ctx to the
	// returned blob, so it must outlive every read on it.
	Open(ctx context.Context, name string) (Blob, error)

	// Create creates a blob for streaming writes. The blob only becomes
	// visible under name once Close succeeds.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Implementations that can detect a missing blob
	// return ErrNotFound.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs with the given prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.ReaderAt
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
	// ReadRange returns a reader for length bytes starting at off. The range
	// is truncated at the end of the blob; an offset at or past the end
	// returns io.EOF.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
}

// WritableBlob is a handle for streaming writes.
type WritableBlob interface {
	io.Writer
	// Close commits the written data.
	io.Closer
	// Sync flushes buffered data to durable storage where supported.
	Sync() error
	// Abort discards the written data. Calling Close after Abort, or Abort
	// after Close, is a no-op.
	Abort() error
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	// This is a zero-copy operation if supported.
	Bytes() ([]byte, error)
}

// NewReader returns a sequential reader over the whole blob.
func NewReader(b Blob) *io.SectionReader {
	return io.NewSectionReader(b, 0, b.Size())
}

// ReadAll reads the whole blob. Mappable blobs are returned without copying.
func ReadAll(b Blob) ([]byte, error) {
	if m, ok := b.(Mappable); ok {
		return m.Bytes()
	}
	buf := make([]byte, b.Size())
	n, err := b.ReadAt(buf, 0)
	if err == io.EOF && int64(n) == b.Size() {
		err = nil
	}
	return buf[:n], err
}
