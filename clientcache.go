package storeresolve

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/storeresolve/blobstore"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// CacheKey identifies a remote client. Signed and anonymous clients for
// the same bucket are distinct entries.
type CacheKey struct {
	Bucket    string
	Anonymous bool
}

// flightKey encodes the key for singleflight without ambiguity.
func (k CacheKey) flightKey() string {
	if k.Anonymous {
		return "a:" + k.Bucket
	}
	return "s:" + k.Bucket
}

// ClientCache holds one store per CacheKey for its whole lifetime.
//
// Hits are lock-free. Concurrent misses on the same key share one build;
// misses on different keys never wait on each other. Failed builds are not
// stored, so the next call retries.
type ClientCache struct {
	entries sync.Map // CacheKey -> blobstore.BlobStore
	group   singleflight.Group
	builds  atomic.Int64
	limiter *rate.Limiter
}

// ClientCacheOption configures a ClientCache.
type ClientCacheOption func(*ClientCache)

// WithBuildRateLimit throttles construction attempts across all keys to
// perSecond, with the given burst. Hits are never throttled.
func WithBuildRateLimit(perSecond float64, burst int) ClientCacheOption {
	return func(c *ClientCache) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// NewClientCache creates an empty cache.
func NewClientCache(opts ...ClientCacheOption) *ClientCache {
	c := &ClientCache{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached store for key, if any.
func (c *ClientCache) Get(key CacheKey) (blobstore.BlobStore, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	return v.(blobstore.BlobStore), true
}

// GetOrCreate returns the store for key, calling build at most once per key
// among concurrent callers.
//
// build runs detached from the cancellation of the caller that started it,
// so one caller giving up does not fail the others. Each caller stops
// waiting when its own ctx ends.
func (c *ClientCache) GetOrCreate(ctx context.Context, key CacheKey, build func(ctx context.Context) (blobstore.BlobStore, error)) (blobstore.BlobStore, error) {
	if s, ok := c.Get(key); ok {
		return s, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key.flightKey(), func() (any, error) {
		// A flight that finished between our Load and DoChan has already stored.
		if s, ok := c.Get(key); ok {
			return s, nil
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(flightCtx); err != nil {
				return nil, err
			}
		}

		c.builds.Add(1)
		s, err := build(flightCtx)
		if err != nil {
			return nil, err
		}
		c.entries.Store(key, s)
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(blobstore.BlobStore), nil
	}
}

// Len returns the number of cached stores.
func (c *ClientCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Builds returns the number of construction attempts, failed ones included.
func (c *ClientCache) Builds() int64 {
	return c.builds.Load()
}
