package mmap

import (
	"io"
	"os"
	"sync/atomic"
	"time"
)

// Mapping is a read-only memory-mapped file.
// It owns the mapped byte slice and unmaps it on Close.
type Mapping struct {
	data   []byte
	closed atomic.Bool
	advice atomic.Int32
	mtime  time.Time
	unmap  func([]byte) error
}

// Open maps the file at path into memory.
// Empty files produce a Mapping with no data and nothing to unmap.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		return &Mapping{mtime: fi.ModTime()}, nil
	}
	if size < 0 || int64(int(size)) != size {
		return nil, ErrInvalidSize
	}

	data, unmap, err := osMap(f, int(size))
	if err != nil {
		return nil, err
	}

	return &Mapping{data: data, mtime: fi.ModTime(), unmap: unmap}, nil
}

// ModTime returns the modification time of the file when it was mapped.
func (m *Mapping) ModTime() time.Time {
	return m.mtime
}

// Close unmaps the memory. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	if m.unmap != nil && m.data != nil {
		return m.unmap(m.data)
	}
	return nil
}

// Bytes returns the mapped bytes, or nil once the mapping is closed.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the size of the mapping in bytes.
func (m *Mapping) Size() int {
	return len(m.data)
}

// Advise hints the kernel how the mapping will be read. Repeating the
// current pattern is a no-op.
func (m *Mapping) Advise(pattern AccessPattern) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if AccessPattern(m.advice.Swap(int32(pattern))) == pattern || m.data == nil {
		return nil
	}
	return osAdvise(m.data, pattern)
}

// Advice returns the last pattern passed to Advise.
func (m *Mapping) Advice() AccessPattern {
	return AccessPattern(m.advice.Load())
}

// ReadAt implements io.ReaderAt.
func (m *Mapping) ReadAt(p []byte, off int64) (n int, err error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n = copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
