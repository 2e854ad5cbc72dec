package minio

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hupe1980/storeresolve/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateCredentialEnv hides every ambient credential source from the chain.
func isolateCredentialEnv(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("MINIO_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "config.json"))

	for _, key := range []string{
		"AWS_ACCESS_KEY_ID",
		"AWS_ACCESS_KEY",
		"AWS_SECRET_ACCESS_KEY",
		"AWS_SECRET_KEY",
		"AWS_SESSION_TOKEN",
		"MINIO_ROOT_USER",
		"MINIO_ROOT_PASSWORD",
		"MINIO_ACCESS_KEY",
		"MINIO_SECRET_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestFactory_BuildAnonymous(t *testing.T) {
	isolateCredentialEnv(t)

	store, err := NewFactory().Build(context.Background(), "public-data", true)
	require.NoError(t, err)

	s, ok := store.(*Store)
	require.True(t, ok)
	assert.Equal(t, "public-data", s.Bucket())
	assert.True(t, s.Anonymous())
	assert.Equal(t, DefaultEndpoint, s.Client().EndpointURL().Host)
}

func TestFactory_InvalidBucket(t *testing.T) {
	f := NewFactory()

	for _, bucket := range []string{"", "ab", "Bad_Bucket", "a..b"} {
		_, err := f.Build(context.Background(), bucket, true)
		assert.ErrorIs(t, err, blobstore.ErrInvalidBucket, bucket)
	}
}

func TestFactory_EnvironmentCredentials(t *testing.T) {
	isolateCredentialEnv(t)
	t.Setenv("MINIO_ROOT_USER", "minioadmin")
	t.Setenv("MINIO_ROOT_PASSWORD", "minioadmin")

	store, err := NewFactory(func(o *FactoryOptions) {
		o.Endpoint = "localhost:9000"
		o.Insecure = true
		o.DisableIAM = true
	}).Build(context.Background(), "signed-data", false)
	require.NoError(t, err)
	assert.False(t, store.(*Store).Anonymous())
}

func TestFactory_MissingCredentials(t *testing.T) {
	isolateCredentialEnv(t)

	f := NewFactory(func(o *FactoryOptions) {
		o.DisableIAM = true
	})
	_, err := f.Build(context.Background(), "signed-data", false)
	assert.ErrorIs(t, err, blobstore.ErrCredentials)
}

func TestFactory_InvalidEndpoint(t *testing.T) {
	_, err := NewFactory(func(o *FactoryOptions) {
		o.Endpoint = "http://localhost:9000"
	}).Build(context.Background(), "public-data", true)
	require.Error(t, err)
	assert.False(t, errors.Is(err, blobstore.ErrInvalidBucket))
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil, "b", "k"))

	for _, resp := range []minio.ErrorResponse{
		{Code: "NoSuchKey"},
		{Code: "NoSuchBucket"},
		{StatusCode: 404},
	} {
		err := mapError(resp, "b", "k")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
		assert.Contains(t, err.Error(), "s3://b/k")
	}

	denied := minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}
	assert.Equal(t, error(denied), mapError(denied, "b", "k"))
}

func TestStore_Key(t *testing.T) {
	assert.Equal(t, "a//b/../c", NewStore(nil, "b", "").key("a//b/../c"))
	assert.Equal(t, "root/x", NewStore(nil, "b", "root/").key("x"))
	assert.Equal(t, "root/x", NewStore(nil, "b", "root").key("x"))
}
