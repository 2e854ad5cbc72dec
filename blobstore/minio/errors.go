package minio

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hupe1980/storeresolve/blobstore"
	"github.com/minio/minio-go/v7"
)

// mapError translates not-found responses into blobstore.ErrNotFound and
// leaves every other error untouched.
func mapError(err error, bucket, key string) error {
	if err == nil {
		return nil
	}

	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		notFound := resp.StatusCode == http.StatusNotFound
		switch resp.Code {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			notFound = true
		}
		if notFound {
			return fmt.Errorf("s3://%s/%s: %w", bucket, key, blobstore.ErrNotFound)
		}
	}
	return err
}
