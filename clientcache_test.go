package storeresolve

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/storeresolve/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(context.Context) (blobstore.BlobStore, error) {
	return blobstore.NewMemoryStore(), nil
}

func TestClientCache_SameKeySameStore(t *testing.T) {
	c := NewClientCache()
	ctx := context.Background()
	key := CacheKey{Bucket: "b"}

	s1, err := c.GetOrCreate(ctx, key, newStore)
	require.NoError(t, err)
	s2, err := c.GetOrCreate(ctx, key, func(context.Context) (blobstore.BlobStore, error) {
		t.Fatal("build called on hit")
		return nil, nil
	})
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, int64(1), c.Builds())
	assert.Equal(t, 1, c.Len())
}

func TestClientCache_AnonymousIsDistinct(t *testing.T) {
	c := NewClientCache()
	ctx := context.Background()

	signed, err := c.GetOrCreate(ctx, CacheKey{Bucket: "b"}, newStore)
	require.NoError(t, err)
	anon, err := c.GetOrCreate(ctx, CacheKey{Bucket: "b", Anonymous: true}, newStore)
	require.NoError(t, err)

	assert.NotSame(t, signed, anon)
	assert.Equal(t, 2, c.Len())
}

func TestClientCache_FlightKeysDoNotCollide(t *testing.T) {
	assert.NotEqual(t,
		CacheKey{Bucket: "a?anon=true"}.flightKey(),
		CacheKey{Bucket: "a", Anonymous: true}.flightKey(),
	)
}

func TestClientCache_ConcurrentFirstAccessBuildsOnce(t *testing.T) {
	c := NewClientCache()
	key := CacheKey{Bucket: "b"}

	var calls atomic.Int64
	build := func(context.Context) (blobstore.BlobStore, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return blobstore.NewMemoryStore(), nil
	}

	const n = 64
	stores := make([]blobstore.BlobStore, n)
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			s, err := c.GetOrCreate(context.Background(), key, build)
			assert.NoError(t, err)
			stores[i] = s
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for _, s := range stores {
		assert.Same(t, stores[0], s)
	}
}

func TestClientCache_DistinctKeysDoNotWait(t *testing.T) {
	c := NewClientCache()
	release := make(chan struct{})
	defer close(release)

	go func() {
		_, _ = c.GetOrCreate(context.Background(), CacheKey{Bucket: "slow"}, func(context.Context) (blobstore.BlobStore, error) {
			<-release
			return blobstore.NewMemoryStore(), nil
		})
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.GetOrCreate(context.Background(), CacheKey{Bucket: "fast"}, newStore)
		assert.NoError(t, err)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("build of an unrelated key blocked")
	}
}

func TestClientCache_FailureIsNotCached(t *testing.T) {
	c := NewClientCache()
	ctx := context.Background()
	key := CacheKey{Bucket: "b"}
	boom := errors.New("boom")

	_, err := c.GetOrCreate(ctx, key, func(context.Context) (blobstore.BlobStore, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	_, ok := c.Get(key)
	assert.False(t, ok)

	s, err := c.GetOrCreate(ctx, key, newStore)
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.Equal(t, int64(2), c.Builds())
}

func TestClientCache_WaiterHonorsContext(t *testing.T) {
	c := NewClientCache()
	key := CacheKey{Bucket: "b"}
	release := make(chan struct{})

	go func() {
		_, _ = c.GetOrCreate(context.Background(), key, func(context.Context) (blobstore.BlobStore, error) {
			<-release
			return blobstore.NewMemoryStore(), nil
		})
	}()

	// Give the first caller time to start its flight.
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.GetOrCreate(ctx, key, newStore)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, time.Millisecond)
}

func TestClientCache_CanceledLeaderStillPopulates(t *testing.T) {
	c := NewClientCache()
	key := CacheKey{Bucket: "b"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buildCtxErr error
	_, err := c.GetOrCreate(ctx, key, func(ctx context.Context) (blobstore.BlobStore, error) {
		buildCtxErr = ctx.Err()
		return blobstore.NewMemoryStore(), nil
	})
	// The caller may observe either its cancellation or the finished build.
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}

	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, time.Millisecond)
	assert.NoError(t, buildCtxErr)
}

func TestClientCache_BuildRateLimit(t *testing.T) {
	c := NewClientCache(WithBuildRateLimit(20, 1))
	ctx := context.Background()

	start := time.Now()
	for _, bucket := range []string{"a", "b", "c"} {
		_, err := c.GetOrCreate(ctx, CacheKey{Bucket: bucket}, newStore)
		require.NoError(t, err)
	}

	// Burst 1 at 20/s: the second and third builds wait ~50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)

	// Hits are not throttled.
	start = time.Now()
	for range 100 {
		_, err := c.GetOrCreate(ctx, CacheKey{Bucket: "a"}, newStore)
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}
