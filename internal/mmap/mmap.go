package mmap

import (
	"errors"
	"io"
	"os"
	"sync/atomic"
)

var (
	// ErrClosed is returned by reads after Close.
	ErrClosed = errors.New("mmap: file is closed")
	// ErrTooLarge is returned for files that do not fit the address space.
	ErrTooLarge = errors.New("mmap: file too large to map")
	// ErrOutOfRange is returned for reads outside the mapped bytes.
	ErrOutOfRange = errors.New("mmap: range outside file")
)

// Advice hints how the mapped bytes will be read.
type Advice int

const (
	// Normal applies no hint.
	Normal Advice = iota
	// Sequential suits decoders that scan columns front to back.
	Sequential
	// Random suits range reads of single columns.
	Random
)

// File is a read-only mapping of a whole file.
type File struct {
	data   []byte
	closed atomic.Bool
}

// Open maps path read-only. Empty files yield a File with no bytes.
func Open(path string) (*File, error) {
	f, err := os.Open(path) //nolint:gosec // path is built by the caller's store
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if int64(int(size)) != size {
		return nil, ErrTooLarge
	}
	if size == 0 {
		return &File{}, nil
	}

	data, err := mapFile(f, int(size))
	if err != nil {
		return nil, &os.PathError{Op: "mmap", Path: path, Err: err}
	}
	return &File{data: data}, nil
}

// Close unmaps the file. Calling it again is a no-op.
func (m *File) Close() error {
	if m.closed.Swap(true) || len(m.data) == 0 {
		return nil
	}
	return unmapFile(m.data)
}

// Bytes returns the mapped bytes, or nil after Close.
func (m *File) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Len returns the file size.
func (m *File) Len() int {
	return len(m.data)
}

// Slice returns the bytes [off, off+n) without copying.
func (m *File) Slice(off, n int64) ([]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if off < 0 || n < 0 || off > int64(len(m.data)) || n > int64(len(m.data))-off {
		return nil, ErrOutOfRange
	}
	return m.data[off : off+n], nil
}

// Advise forwards an access hint to the kernel where supported.
func (m *File) Advise(a Advice) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if len(m.data) == 0 {
		return nil
	}
	return advise(m.data, a)
}

// ReadAt implements io.ReaderAt.
func (m *File) ReadAt(p []byte, off int64) (int, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrOutOfRange
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
