// Package fs abstracts the mutating filesystem operations of
// blobstore.LocalStore so tests can inject I/O faults.
//
//   - [LocalFS]: production implementation over the os package
//   - [FaultyFS]: wrapper that fails writes, syncs, closes or renames
//     for files matching a pattern
//
// Reads are not routed through this package; they memory-map files directly.
package fs
