package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

var (
	// ErrInvalidBucket is returned by remote factories when a bucket name is rejected.
	ErrInvalidBucket = errors.New("blobstore: invalid bucket name")

	// ErrCredentials is returned by remote factories when no usable credentials
	// could be resolved for a signed client.
	ErrCredentials = errors.New("blobstore: credential resolution failed")
)

// BlobStore is an abstraction for reading and writing byte objects.
//
// Names are forward-slash separated paths relative to the store root.
// Implementations must be safe for concurrent use.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Get reads a whole blob into memory.
	Get(ctx context.Context, name string) ([]byte, error)

	// Create creates a blob for streaming writes. The blob becomes visible on Close.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob.
	Delete(ctx context.Context, name string) error

	// List returns all blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer

	// ReadAt reads len(p) bytes at offset off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// Size returns the size of the blob in bytes.
	Size() int64

	// ReadRange returns a reader for length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
}

// WritableBlob is a handle for streaming writes.
type WritableBlob interface {
	io.WriteCloser

	// Sync flushes buffered data to stable storage where supported.
	Sync() error
}

// Versioned is an optional interface for Blobs that know which revision of the
// object they read, such as an ETag. Version returns "" when unknown.
type Versioned interface {
	Version() string
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	// This is a zero-copy operation if supported.
	Bytes() ([]byte, error)
}

// ReadAll reads the full content of an open blob.
func ReadAll(ctx context.Context, b Blob) ([]byte, error) {
	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}

	size := b.Size()
	if size == 0 {
		return []byte{}, nil
	}

	buf := make([]byte, size)
	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}
