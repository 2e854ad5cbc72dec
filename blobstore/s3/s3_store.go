package s3

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/storeresolve/blobstore"
)

// Store implements blobstore.BlobStore for S3.
type Store struct {
	client    Client
	bucket    string
	prefix    string
	anonymous bool
	upload    UploadConfig
	uploader  *manager.Uploader
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithUploadConfig overrides DefaultUploadConfig.
func WithUploadConfig(cfg UploadConfig) StoreOption {
	return func(s *Store) {
		s.upload = cfg
	}
}

// WithAnonymous marks the store as issuing unsigned requests.
func WithAnonymous(anonymous bool) StoreOption {
	return func(s *Store) {
		s.anonymous = anonymous
	}
}

// NewStore creates a new S3 blob store.
// rootPrefix is prepended to all keys (e.g. "my-index/").
func NewStore(client Client, bucket, rootPrefix string, opts ...StoreOption) *Store {
	s := &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
		upload: DefaultUploadConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.uploader = newUploader(client, s.upload)
	return s
}

// Bucket returns the bucket the store is rooted at.
func (s *Store) Bucket() string {
	return s.bucket
}

// Anonymous reports whether the store issues unsigned requests.
func (s *Store) Anonymous() bool {
	return s.anonymous
}

func (s *Store) key(name string) string {
	return joinKey(s.prefix, name)
}

// Open opens a blob for reading. A HEAD request verifies existence and size.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	return openBlob(ctx, s.client, s.bucket, s.key(name))
}

// Get downloads a whole object.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	return getObject(ctx, s.client, s.bucket, s.key(name))
}

// Put writes a blob atomically, with a CRC32C checksum when enabled.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	key := s.key(name)
	if s.upload.EnableChecksum {
		return putWithChecksum(ctx, s.client, s.bucket, key, data)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	return err
}

// Create starts a streaming multipart upload. The object appears on Close.
// The upload outlives ctx cancellation; call Close to finish it.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	return newStreamingWritableBlob(context.WithoutCancel(ctx), s.uploader, s.bucket, s.key(name), s.upload.EnableChecksum), nil
}

// Delete removes a blob. S3 deletes are idempotent.
func (s *Store) Delete(ctx context.Context, name string) error {
	key := s.key(name)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return mapError(err, s.bucket, key)
}

// List returns all blob names with the given prefix, relative to the root prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	return listObjects(ctx, s.client, s.bucket, s.key(prefix), s.prefix)
}
