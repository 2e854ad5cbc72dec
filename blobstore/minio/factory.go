package minio

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hupe1980/storeresolve/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/s3utils"
)

// DefaultEndpoint is the AWS S3 endpoint, used when no endpoint is configured.
const DefaultEndpoint = "s3.amazonaws.com"

// FactoryOptions configures how a Factory builds clients.
type FactoryOptions struct {
	// Endpoint is host[:port] of the server. Default: DefaultEndpoint.
	Endpoint string

	// Insecure disables TLS.
	Insecure bool

	// Region skips bucket location lookups when set.
	Region string

	// Static credentials. When AccessKeyID is set they replace the provider chain.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// DisableIAM removes the EC2/ECS instance role provider from the chain.
	DisableIAM bool

	// LazyCredentials skips eager credential retrieval; failures then surface on first request.
	LazyCredentials bool

	// Transport overrides the HTTP transport of built clients.
	Transport http.RoundTripper
}

// Factory builds MinIO-client stores.
//
// Signed clients resolve credentials through a chain of AWS environment
// variables, MinIO environment variables, the shared AWS credentials file,
// the mc client config and, unless disabled, the instance role.
type Factory struct {
	opts FactoryOptions
}

// NewFactory creates a Factory.
func NewFactory(optFns ...func(o *FactoryOptions)) *Factory {
	opts := FactoryOptions{
		Endpoint: DefaultEndpoint,
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

	creds := f.credentials(anonymous)
	if !anonymous && !f.opts.LazyCredentials {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := creds.Get()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", blobstore.ErrCredentials, err)
		}
		// The chain falls back to anonymous when every provider comes up empty.
		if v.SignerType.IsAnonymous() || v.AccessKeyID == "" {
			return nil, fmt.Errorf("%w: no provider in the chain returned credentials", blobstore.ErrCredentials)
		}
	}

	client, err := minio.New(f.opts.Endpoint, &minio.Options{
		Creds:     creds,
		Secure:    !f.opts.Insecure,
		Region:    f.opts.Region,
		Transport: f.opts.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: new client for %q: %w", f.opts.Endpoint, err)
	}

	s := NewStore(client, bucket, "")
	s.anonymous = anonymous
	return s, nil
}

func (f *Factory) credentials(anonymous bool) *credentials.Credentials {
	switch {
	case anonymous:
		return credentials.NewStatic("", "", "", credentials.SignatureAnonymous)
	case f.opts.AccessKeyID != "":
		return credentials.NewStaticV4(f.opts.AccessKeyID, f.opts.SecretAccessKey, f.opts.SessionToken)
	}

	providers := []credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.EnvMinio{},
		&credentials.FileAWSCredentials{},
		&credentials.FileMinioClient{},
	}
	if !f.opts.DisableIAM {
		providers = append(providers, &credentials.IAM{
			Client: &http.Client{Transport: http.DefaultTransport},
		})
	}
	return credentials.NewChainCredentials(providers)
}
