// Package storeresolve resolves local paths and s3:// references to a store
// and an object path inside it, so callers read objects without branching on
// storage kind.
//
// # Quick Start
//
//	r := storeresolve.New()
//
//	store, key, err := r.Resolve(ctx, "s3://my-bucket/data/part-0.parquet")
//	data, err := store.Get(ctx, key)
//
//	// Local paths, relative ones anchored at the working directory.
//	store, key, err = r.Resolve(ctx, "testdata/input.txt")
//
// # Path Forms
//
//	s3://bucket[/key][?anon=true|1]   remote; anon skips credential resolution
//	/abs/path, rel/path, C:\data\x    local
//
// Object paths always use forward slashes and never start with one.
//
// # Client Cache
//
// Remote stores are built once per (bucket, anonymous) pair and reused for
// the lifetime of the Resolver's ClientCache. Concurrent first accesses to
// the same pair share a single build. Failed builds are not cached; the next
// Resolve retries. Share a cache between resolvers with WithClientCache.
//
// # Backends
//
// The default factory uses the AWS SDK and its credential chain. Select the
// MinIO client with Config.Backend = "minio" or WithRemoteFactory:
//
//	cfg, err := storeresolve.LoadConfig("storeresolve.yaml")
//	r, err := storeresolve.NewFromConfig(cfg)
//
// # Errors
//
// Resolution errors are *Error values carrying an ErrKind:
//
//	if storeresolve.IsCredentialResolutionFailure(err) {
//	    // retry with ?anon=true
//	}
package storeresolve
