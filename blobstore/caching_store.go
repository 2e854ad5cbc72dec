package blobstore

import (
	"context"
	"errors"
	"io"

	"github.com/hupe1980/storeresolve/internal/cache"
	"golang.org/x/sync/errgroup"
)

// DefaultBlockSize is the block size used by CachingStore when none is given.
const DefaultBlockSize = 64 * 1024

// CachingStore wraps a BlobStore and adds block-level read caching.
//
// namespace keeps keys of different stores apart when they share one cache.
type CachingStore struct {
	inner     BlobStore
	cache     cache.BlockCache
	namespace string
	blockSize int64
}

// NewCachingStore creates a new CachingStore.
// blockSize defaults to DefaultBlockSize if <= 0.
func NewCachingStore(inner BlobStore, c cache.BlockCache, namespace string, blockSize int64) *CachingStore {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &CachingStore{
		inner:     inner,
		cache:     c,
		namespace: namespace,
		blockSize: blockSize,
	}
}

// Unwrap returns the wrapped store.
func (s *CachingStore) Unwrap() BlobStore {
	return s.inner
}

func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	var version string
	if v, ok := b.(Versioned); ok {
		version = v.Version()
	}
	return &CachingBlob{
		inner:     b,
		cache:     s.cache,
		namespace: s.namespace,
		name:      name,
		version:   version,
		blockSize: s.blockSize,
	}, nil
}

// Get reads a whole blob through the block cache.
func (s *CachingStore) Get(ctx context.Context, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	return ReadAll(ctx, b)
}

// Create passes through; the blob is invalidated so readers never see stale blocks.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	s.invalidate(name)
	return s.inner.Create(ctx, name)
}

func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *CachingStore) invalidate(name string) {
	s.cache.Invalidate(func(key cache.CacheKey) bool {
		return key.Namespace == s.namespace && key.Path == name
	})
}

// CachingBlob wraps a Blob and uses the block cache for reads.
//
// Blocks are keyed by the revision reported at Open when the inner blob
// implements Versioned, so a replaced object never mixes in stale blocks.
type CachingBlob struct {
	inner     Blob
	cache     cache.BlockCache
	namespace string
	name      string
	version   string
	blockSize int64
}

func (b *CachingBlob) Close() error {
	return b.inner.Close()
}

func (b *CachingBlob) Size() int64 {
	return b.inner.Size()
}

// Version returns the revision the blob's blocks are keyed by.
func (b *CachingBlob) Version() string {
	return b.version
}

func (b *CachingBlob) key(blk int64) cache.CacheKey {
	return cache.CacheKey{
		Namespace: b.namespace,
		Path:      b.name,
		Version:   b.version,
		Block:     uint64(blk),
	}
}

func (b *CachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if off >= b.Size() {
		return 0, io.EOF
	}

	startBlock := off / b.blockSize
	endBlock := (off + int64(len(p)) - 1) / b.blockSize

	// Coalesce missing blocks into as few backend reads as possible.
	if err := b.fillCache(ctx, startBlock, endBlock); err != nil {
		return 0, err
	}

	totalRead := 0
	for blk := startBlock; blk <= endBlock; blk++ {
		blkStart := blk * b.blockSize

		// Intersection of [blkStart, blkStart+blockSize) and [off, off+len(p)).
		intersectStart := max(blkStart, off)
		intersectEnd := min(blkStart+b.blockSize, off+int64(len(p)))
		if intersectEnd <= intersectStart {
			continue
		}

		blockData, err := b.fetchBlock(ctx, blk)
		if err != nil {
			return totalRead, err
		}

		srcOffset := intersectStart - blkStart
		if srcOffset >= int64(len(blockData)) {
			break
		}
		dstOffset := intersectStart - off
		copySize := min(intersectEnd-intersectStart, int64(len(blockData))-srcOffset)

		totalRead += copy(p[dstOffset:dstOffset+copySize], blockData[srcOffset:])
	}

	if totalRead < len(p) {
		return totalRead, io.EOF
	}
	return totalRead, nil
}

// fillCache loads the blocks in [startBlock, endBlock] that are not cached yet,
// fetching contiguous runs of missing blocks with single backend reads.
func (b *CachingBlob) fillCache(ctx context.Context, startBlock, endBlock int64) error {
	type run struct{ start, count int64 }

	var missing []run
	runStart, runCount := int64(-1), int64(0)
	for blk := startBlock; blk <= endBlock; blk++ {
		if _, ok := b.cache.Get(ctx, b.key(blk)); !ok {
			if runStart == -1 {
				runStart, runCount = blk, 1
			} else {
				runCount++
			}
			continue
		}
		if runStart != -1 {
			missing = append(missing, run{runStart, runCount})
			runStart, runCount = -1, 0
		}
	}
	if runStart != -1 {
		missing = append(missing, run{runStart, runCount})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(16)

	for _, r := range missing {
		g.Go(func() error {
			byteStart := r.start * b.blockSize
			fileSize := b.Size()
			if byteStart >= fileSize {
				return nil
			}
			byteSize := min(r.count*b.blockSize, fileSize-byteStart)

			buf := make([]byte, byteSize)
			n, err := b.inner.ReadAt(gctx, buf, byteStart)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			valid := buf[:n]

			for i := int64(0); i < r.count; i++ {
				lo := i * b.blockSize
				if lo >= int64(len(valid)) {
					break
				}
				hi := min(lo+b.blockSize, int64(len(valid)))

				// Copy so one block does not pin the whole run buffer.
				block := make([]byte, hi-lo)
				copy(block, valid[lo:hi])
				b.cache.Set(gctx, b.key(r.start+i), block)
			}
			return nil
		})
	}
	return g.Wait()
}

func (b *CachingBlob) fetchBlock(ctx context.Context, blk int64) ([]byte, error) {
	key := b.key(blk)
	if data, ok := b.cache.Get(ctx, key); ok {
		return data, nil
	}

	// Evicted between fill and copy, or larger than the cache: read directly.
	buf := make([]byte, b.blockSize)
	n, err := b.inner.ReadAt(ctx, buf, blk*b.blockSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	data := buf[:n]
	if n > 0 {
		b.cache.Set(ctx, key, data)
	}
	return data, nil
}

func (b *CachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= b.Size() {
		return nil, io.EOF
	}
	return io.NopCloser(&contextSectionReader{blob: b, ctx: ctx, off: off, limit: min(off+length, b.Size())}), nil
}

// contextSectionReader adapts CachingBlob.ReadAt to io.Reader.
type contextSectionReader struct {
	blob  *CachingBlob
	ctx   context.Context
	off   int64
	limit int64
}

func (r *contextSectionReader) Read(p []byte) (n int, err error) {
	if r.off >= r.limit {
		return 0, io.EOF
	}
	if remaining := r.limit - r.off; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err = r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}
