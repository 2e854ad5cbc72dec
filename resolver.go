package storeresolve

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/storeresolve/blobstore"
	"github.com/hupe1980/storeresolve/blobstore/s3"
	"github.com/hupe1980/storeresolve/internal/cache"
)

// RemoteFactory builds a store rooted at a bucket.
// s3.Factory and minio.Factory implement it.
type RemoteFactory interface {
	Build(ctx context.Context, bucket string, anonymous bool) (blobstore.BlobStore, error)
}

// Resolver maps path strings to a store and an object path within it.
// It is safe for concurrent use.
type Resolver struct {
	cache        *ClientCache
	factory      RemoteFactory
	locals       sync.Map // root -> *blobstore.LocalStore
	blockCache   cache.BlockCache
	blockSize    int64
	getwd        func() (string, error)
	driveLetters bool
	logger       *Logger
	metrics      MetricsCollector
}

// New creates a Resolver. Without WithRemoteFactory it builds S3 clients from
// the ambient AWS configuration.
func New(optFns ...Option) *Resolver {
	return newResolver(applyOptions(optFns))
}

func newResolver(o options) *Resolver {
	if o.clientCache == nil {
		o.clientCache = NewClientCache()
	}
	if o.remoteFactory == nil {
		logger := o.logger
		o.remoteFactory = s3.NewFactory(func(fo *s3.FactoryOptions) {
			fo.Logger = logger.SDKLogger()
		})
	}

	return &Resolver{
		cache:        o.clientCache,
		factory:      o.remoteFactory,
		blockCache:   o.blockCache,
		blockSize:    o.blockSize,
		getwd:        o.getwd,
		driveLetters: o.driveLetters,
		logger:       o.logger,
		metrics:      o.metricsCollector,
	}
}

// ClientCache returns the cache of remote stores.
func (r *Resolver) ClientCache() *ClientCache {
	return r.cache
}

// Resolve classifies path and returns the store holding it together with the
// forward-slash object path inside that store.
//
// Remote stores are shared per (bucket, anonymous) and built at most once;
// local stores are shared per filesystem root.
func (r *Resolver) Resolve(ctx context.Context, path string) (store blobstore.BlobStore, objectPath string, err error) {
	start := time.Now()
	var remote bool
	defer func() {
		r.metrics.RecordResolve(remote, time.Since(start), err)
		r.logger.LogResolve(ctx, path, remote, objectPath, err)
	}()

	loc, err := Classify(path, r.getwd)
	if err != nil {
		return nil, "", err
	}

	if loc.Remote {
		remote = true
		store, err = r.remote(ctx, path, loc.CacheKey())
		if err != nil {
			return nil, "", err
		}
		return store, loc.Key, nil
	}

	return r.local(loc.LocalPath)
}

func (r *Resolver) remote(ctx context.Context, path string, key CacheKey) (blobstore.BlobStore, error) {
	store, err := r.cache.GetOrCreate(ctx, key, func(ctx context.Context) (blobstore.BlobStore, error) {
		start := time.Now()
		s, err := r.factory.Build(ctx, key.Bucket, key.Anonymous)
		r.metrics.RecordClientBuild(time.Since(start), err)
		r.logger.LogClientBuild(ctx, key, time.Since(start), err)
		if err != nil {
			return nil, err
		}
		if r.blockCache != nil {
			s = blobstore.NewCachingStore(s, r.blockCache, key.flightKey(), r.blockSize)
		}
		return s, nil
	})
	if err != nil {
		return nil, translateBuildError(path, err)
	}
	return store, nil
}

func (r *Resolver) local(absPath string) (blobstore.BlobStore, string, error) {
	root, objectPath, err := splitLocal(absPath, r.driveLetters)
	if err != nil {
		return nil, "", err
	}

	if s, ok := r.locals.Load(root); ok {
		return s.(*blobstore.LocalStore), objectPath, nil
	}
	s, _ := r.locals.LoadOrStore(root, blobstore.NewLocalStore(root))
	return s.(*blobstore.LocalStore), objectPath, nil
}

// Get resolves path and reads the whole object.
func (r *Resolver) Get(ctx context.Context, path string) ([]byte, error) {
	store, objectPath, err := r.Resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, objectPath)
}

// Open resolves path and opens the object for ranged reads.
func (r *Resolver) Open(ctx context.Context, path string) (blobstore.Blob, error) {
	store, objectPath, err := r.Resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, objectPath)
}
