// Package mmap maps point cloud files read-only so decoders can work on the
// page cache directly instead of a heap copy.
//
//	m, err := mmap.Open("scan.pcg")
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.Advise(mmap.Sequential)
//	header, err := m.Slice(0, 64)
//
// Unix builds use mmap(2) and madvise(2); Windows uses MapViewOfFile and
// ignores advice. A File is safe for concurrent reads. Slices returned by
// Bytes or Slice must not be used after Close.
package mmap
