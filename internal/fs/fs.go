package fs

import (
	"io"
	"os"
)

// File is the write side of a blob being created.
type File interface {
	io.WriteCloser
	Sync() error
}

// FileSystem is the subset of package os the local blob store needs.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	MkdirAll(path string, perm os.FileMode) error
	ReadDir(name string) ([]os.DirEntry, error)
	Rename(oldpath, newpath string) error
	Remove(name string) error
}

// LocalFS forwards to package os.
type LocalFS struct{}

var _ FileSystem = LocalFS{}

func (LocalFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	f, err := os.OpenFile(name, flag, perm) //nolint:gosec // names come from the store root
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (LocalFS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

func (LocalFS) ReadDir(name string) ([]os.DirEntry, error) { return os.ReadDir(name) }

func (LocalFS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

func (LocalFS) Remove(name string) error { return os.Remove(name) }

// Default is the operating system's file system.
var Default FileSystem = LocalFS{}
