package s3

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// ErrConflict is returned when a conditional write fails due to the object already existing.
var ErrConflict = errors.New("object already exists")

// directoryBucketSuffix marks S3 Express One Zone directory buckets
// (e.g. "my-index--usw2-az1--x-s3").
const directoryBucketSuffix = "--x-s3"

// IsDirectoryBucket reports whether bucket names an S3 Express One Zone directory bucket.
func IsDirectoryBucket(bucket string) bool {
	return strings.HasSuffix(bucket, directoryBucketSuffix)
}

// ExpressStore implements blobstore.BlobStore for S3 Express One Zone.
//
// Directory buckets use session-based auth (handled by the SDK) and support
// conditional writes, so Put skips the client-side checksum and
// PutIfNotExists is available for atomic creates.
type ExpressStore struct {
	*Store
}

// NewExpressStore creates a new S3 Express One Zone blob store.
// The bucket must be a directory bucket (ending with --x-s3).
func NewExpressStore(client Client, bucket, rootPrefix string, opts ...StoreOption) *ExpressStore {
	return &ExpressStore{Store: NewStore(client, bucket, rootPrefix, opts...)}
}

// Put writes a blob atomically.
func (s *ExpressStore) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   bytes.NewReader(data),
	})
	return err
}

// PutIfNotExists writes a blob only if it doesn't already exist.
// Returns ErrConflict if the key already exists.
func (s *ExpressStore) PutIfNotExists(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(data),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "PreconditionFailed", "ConditionalRequestConflict":
				return ErrConflict
			}
		}
		return err
	}
	return nil
}
