// Package fs abstracts the filesystem operations used by the local blob store
// so tests can inject I/O faults.
//
//   - [LocalFS]: production implementation on top of package os
//   - [FaultyFS]: wrapper that fails writes, syncs or closes on demand
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp", fs.Fault{FailAfterBytes: 1024})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
package fs
