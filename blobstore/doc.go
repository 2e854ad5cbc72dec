// Package blobstore provides the storage abstraction handed out by the resolver.
//
// BlobStore is the capability set every backend implements. Implementations
// must be safe for concurrent use; one instance is shared by all callers.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem rooted at a directory or drive, mmap reads
//   - MemoryStore: in-memory store for tests
//   - CachingStore: block cache decorator for remote stores
//   - s3.Store: Amazon S3 (aws-sdk-go-v2) with range reads and multipart uploads
//   - minio.Store: S3-compatible storage through minio-go
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)             // Open for reading
//	    Get(ctx, name) ([]byte, error)            // Read whole blob
//	    Create(ctx, name) (WritableBlob, error)   // Create for writing
//	    Put(ctx, name, data) error                // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// For cloud backends, implement ReadRange for efficient partial reads:
//
//	type Blob interface {
//	    io.Closer
//	    ReadAt(ctx, p, off) (int, error)
//	    Size() int64
//	    ReadRange(ctx, off, len) (io.ReadCloser, error)
//	}
package blobstore
