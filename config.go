package storeresolve

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/hupe1980/storeresolve/blobstore/minio"
	"github.com/hupe1980/storeresolve/blobstore/s3"
	"go.yaml.in/yaml/v3"
)

// Remote backends selectable by Config.Backend.
const (
	BackendAWS   = "aws"
	BackendMinIO = "minio"
)

// Config is the file/environment form of the resolver options.
type Config struct {
	// Backend selects the remote client implementation: "aws" or "minio".
	Backend string `yaml:"backend"`

	// Region of the remote service. Empty uses the backend's discovery.
	Region string `yaml:"region"`

	// Endpoint overrides the S3 endpoint, e.g. "http://localhost:9000".
	Endpoint string `yaml:"endpoint"`

	UsePathStyle bool `yaml:"use_path_style"`

	// DetectRegion looks up bucket regions (aws backend only).
	DetectRegion bool `yaml:"detect_region"`

	// LazyCredentials defers credential failures to the first request.
	LazyCredentials bool `yaml:"lazy_credentials"`

	// BlockCacheBytes enables a shared block cache for remote reads when > 0.
	BlockCacheBytes int64 `yaml:"block_cache_bytes"`
	BlockSize       int64 `yaml:"block_size"`

	// MaxClientBuildsPerSecond throttles remote client construction when > 0.
	MaxClientBuildsPerSecond float64 `yaml:"max_client_builds_per_second"`

	// LogLevel is one of debug, info, warn, error. Empty disables logging.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendAWS,
	}
}

// LoadConfig reads a YAML file over DefaultConfig and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from STORERESOLVE_BACKEND, AWS_REGION,
// AWS_ENDPOINT_URL_S3 and AWS_S3_FORCE_PATH_STYLE.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("STORERESOLVE_BACKEND"); v != "" {
		c.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Region = v
	}
	if v := os.Getenv("AWS_ENDPOINT_URL_S3"); v != "" {
		c.Endpoint = v
	}
	if strings.EqualFold(os.Getenv("AWS_S3_FORCE_PATH_STYLE"), "true") {
		c.UsePathStyle = true
	}
}

// Validate checks the config for consistency.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAWS, BackendMinIO:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.BlockCacheBytes < 0 || c.BlockSize < 0 {
		return fmt.Errorf("config: block cache sizes must not be negative")
	}
	if c.MaxClientBuildsPerSecond < 0 {
		return fmt.Errorf("config: max_client_builds_per_second must not be negative")
	}
	if c.LogLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
			return fmt.Errorf("config: log_level: %w", err)
		}
	}
	return nil
}

// options converts the config into resolver options.
func (c *Config) options() []Option {
	var opts []Option
	if c.LogLevel != "" {
		var level slog.Level
		_ = level.UnmarshalText([]byte(c.LogLevel))
		opts = append(opts, WithLogLevel(level))
	}
	if c.BlockCacheBytes > 0 {
		opts = append(opts, WithBlockCache(c.BlockCacheBytes, c.BlockSize))
	}
	return append(opts, WithClientCache(NewClientCache(
		WithBuildRateLimit(c.MaxClientBuildsPerSecond, 1),
	)))
}

// remoteFactory builds the backend factory, routing SDK output to logger.
func (c *Config) remoteFactory(logger *Logger) (RemoteFactory, error) {
	switch c.Backend {
	case BackendMinIO:
		endpoint, insecure, err := minioEndpoint(c.Endpoint)
		if err != nil {
			return nil, err
		}
		return minio.NewFactory(func(o *minio.FactoryOptions) {
			if endpoint != "" {
				o.Endpoint = endpoint
			}
			o.Insecure = insecure
			o.Region = c.Region
			o.LazyCredentials = c.LazyCredentials
		}), nil
	default:
		return s3.NewFactory(func(o *s3.FactoryOptions) {
			o.Region = c.Region
			o.Endpoint = c.Endpoint
			o.UsePathStyle = c.UsePathStyle
			o.DetectRegion = c.DetectRegion
			o.LazyCredentials = c.LazyCredentials
			o.Logger = logger.SDKLogger()
		}), nil
	}
}

// minioEndpoint turns an endpoint URL into the host[:port] form minio-go expects.
func minioEndpoint(endpoint string) (host string, insecure bool, err error) {
	if endpoint == "" || !strings.Contains(endpoint, "://") {
		return endpoint, false, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("config: endpoint: %w", err)
	}
	return u.Host, u.Scheme == "http", nil
}

// NewFromConfig creates a Resolver from cfg. opts are applied after the
// config and take precedence.
func NewFromConfig(cfg *Config, opts ...Option) (*Resolver, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := applyOptions(append(cfg.options(), opts...))
	if o.remoteFactory == nil {
		f, err := cfg.remoteFactory(o.logger)
		if err != nil {
			return nil, err
		}
		o.remoteFactory = f
	}
	return newResolver(o), nil
}
