package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go/logging"
	"github.com/hupe1980/storeresolve/blobstore"
	"github.com/minio/minio-go/v7/pkg/s3utils"
)

// DefaultRegion is used when neither configuration nor detection yields a region.
const DefaultRegion = "us-east-1"

// FactoryOptions configures how a Factory builds clients.
type FactoryOptions struct {
	// Region overrides the region from the environment and shared config.
	Region string

	// Endpoint overrides the S3 endpoint (e.g. "http://localhost:9000" for MinIO).
	Endpoint string

	// UsePathStyle forces path-style addressing, needed by most S3-compatible servers.
	UsePathStyle bool

	// DetectRegion looks up the bucket region with a HEAD request when no region is configured.
	DetectRegion bool

	// LazyCredentials skips eager credential retrieval; failures then surface on first request.
	LazyCredentials bool

	// Static credentials. When AccessKeyID is set they replace the default provider chain.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// Upload configures multipart uploads of the built stores.
	Upload UploadConfig

	// Logger receives SDK log output.
	Logger logging.Logger

	// LoadOptions are passed to config.LoadDefaultConfig after the options above.
	LoadOptions []func(*config.LoadOptions) error
}

// Factory builds S3 stores from ambient AWS configuration.
//
// Signed clients resolve credentials through the SDK default chain: environment,
// shared credentials and config files, SSO, web identity, container and EC2
// instance roles. Anonymous clients skip resolution entirely.
type Factory struct {
	opts FactoryOptions
}

// NewFactory creates a Factory.
func NewFactory(optFns ...func(o *FactoryOptions)) *Factory {
	opts := FactoryOptions{
		Upload: DefaultUploadConfig(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Factory{opts: opts}
}

// Build constructs a store rooted at bucket.
//
// Errors wrap blobstore.ErrInvalidBucket for rejected bucket names and
// blobstore.ErrCredentials when a signed client has no usable credentials.
func (f *Factory) Build(ctx context.Context, bucket string, anonymous bool) (blobstore.BlobStore, error) {
	if err := s3utils.CheckValidBucketNameStrict(bucket); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", blobstore.ErrInvalidBucket, bucket, err)
	}

	cfg, err := config.LoadDefaultConfig(ctx, f.loadOptions(anonymous)...)
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}

	if !anonymous && !f.opts.LazyCredentials {
		if cfg.Credentials == nil {
			return nil, fmt.Errorf("%w: no credential provider configured", blobstore.ErrCredentials)
		}
		if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", blobstore.ErrCredentials, err)
		}
	}

	region := cfg.Region
	if region == "" && f.opts.DetectRegion {
		region, err = manager.GetBucketRegion(ctx, s3.NewFromConfig(cfg, f.clientOptions(anonymous, DefaultRegion)), bucket)
		if err != nil {
			return nil, fmt.Errorf("s3: detect region of bucket %q: %w", bucket, err)
		}
	}
	if region == "" {
		region = DefaultRegion
	}

	client := s3.NewFromConfig(cfg, f.clientOptions(anonymous, region))

	opts := []StoreOption{WithUploadConfig(f.opts.Upload), WithAnonymous(anonymous)}
	if IsDirectoryBucket(bucket) {
		return NewExpressStore(client, bucket, "", opts...), nil
	}
	return NewStore(client, bucket, "", opts...), nil
}

func (f *Factory) loadOptions(anonymous bool) []func(*config.LoadOptions) error {
	var opts []func(*config.LoadOptions) error
	if f.opts.Region != "" {
		opts = append(opts, config.WithRegion(f.opts.Region))
	}
	switch {
	case anonymous:
		opts = append(opts, config.WithCredentialsProvider(aws.AnonymousCredentials{}))
	case f.opts.AccessKeyID != "":
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			f.opts.AccessKeyID, f.opts.SecretAccessKey, f.opts.SessionToken,
		)))
	}
	if f.opts.Logger != nil {
		opts = append(opts, config.WithLogger(f.opts.Logger))
	}
	return append(opts, f.opts.LoadOptions...)
}

func (f *Factory) clientOptions(anonymous bool, region string) func(*s3.Options) {
	return func(o *s3.Options) {
		o.Region = region
		if f.opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(f.opts.Endpoint)
		}
		if f.opts.UsePathStyle {
			o.UsePathStyle = true
		}
		if anonymous {
			o.Credentials = aws.AnonymousCredentials{}
		}
	}
}
