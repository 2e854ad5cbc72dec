// Package mmap provides read-only memory-mapped file access.
//
// LocalStore maps files so that ranged reads of local objects are zero-copy.
// Blobs are advised for random access on open and switched to sequential
// before a whole-blob copy.
//
//	m, err := mmap.Open("/data/index/chunk-0001.bin")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// Unix uses mmap(2) and madvise(2). Windows uses CreateFileMapping and
// MapViewOfFile; Advise is a no-op there.
//
// A Mapping is safe for concurrent reads. Close is idempotent, but callers must
// not touch slices returned by Bytes after Close returns.
package mmap
