package cache

import "context"

// CacheKey identifies one block of one blob.
type CacheKey struct {
	// Namespace separates stores sharing a cache (e.g. bucket and signing mode).
	Namespace string
	// Path is the blob name within the namespace.
	Path string
	// Version is the object revision the block was read from; empty if unknown.
	Version string
	// Block is the block index within the blob.
	Block uint64
}

// BlockCache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(ctx context.Context, key CacheKey) (b []byte, ok bool)
	// Set caches a block. Implementations may copy or retain; caller must treat b as immutable.
	Set(ctx context.Context, key CacheKey, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key CacheKey) bool)
	// Close releases any resources.
	Close() error
	// Stats returns cache statistics.
	Stats() (hits, misses int64)
}
