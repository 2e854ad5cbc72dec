package storeresolve

import (
	"log/slog"
	"os"
	"runtime"

	"github.com/hupe1980/storeresolve/blobstore"
	"github.com/hupe1980/storeresolve/internal/cache"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	clientCache      *ClientCache
	remoteFactory    RemoteFactory
	blockCache       cache.BlockCache
	blockSize        int64
	getwd            func() (string, error)
	driveLetters     bool
}

// Option configures a Resolver.
type Option func(*options)

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &storeresolve.BasicMetricsCollector{}
//	r := storeresolve.New(storeresolve.WithMetricsCollector(metrics))
//	// ... resolve paths ...
//	stats := metrics.GetStats()
//	fmt.Printf("Resolves: %d, Builds: %d\n", stats.ResolveCount, stats.BuildCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := storeresolve.NewJSONLogger(slog.LevelInfo)
//	r := storeresolve.New(storeresolve.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithClientCache shares a client cache between resolvers.
// Each Resolver otherwise owns a fresh cache.
func WithClientCache(c *ClientCache) Option {
	return func(o *options) {
		o.clientCache = c
	}
}

// WithRemoteFactory replaces the default S3 factory.
func WithRemoteFactory(f RemoteFactory) Option {
	return func(o *options) {
		o.remoteFactory = f
	}
}

// WithBlockCache wraps every remote store in a blobstore.CachingStore backed by
// one shared LRU of capacityBytes. blockSize <= 0 uses blobstore.DefaultBlockSize.
func WithBlockCache(capacityBytes, blockSize int64) Option {
	return func(o *options) {
		if capacityBytes <= 0 {
			o.blockCache = nil
			return
		}
		if blockSize <= 0 {
			blockSize = blobstore.DefaultBlockSize
		}
		o.blockCache = cache.NewLRUBlockCache(capacityBytes)
		o.blockSize = blockSize
	}
}

// WithGetwd replaces os.Getwd for anchoring relative paths.
func WithGetwd(getwd func() (string, error)) Option {
	return func(o *options) {
		o.getwd = getwd
	}
}

// WithDriveLetters selects drive-letter path splitting (`C:\data\x`) instead
// of POSIX splitting. The default follows the build platform.
func WithDriveLetters(enabled bool) Option {
	return func(o *options) {
		o.driveLetters = enabled
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		getwd:            os.Getwd,
		driveLetters:     runtime.GOOS == "windows",
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
