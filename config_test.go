package storeresolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/storeresolve/blobstore/minio"
	"github.com/hupe1980/storeresolve/blobstore/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"STORERESOLVE_BACKEND", "AWS_REGION", "AWS_ENDPOINT_URL_S3", "AWS_S3_FORCE_PATH_STYLE"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storeresolve.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	clearConfigEnv(t)

	path := writeConfig(t, `
backend: minio
region: eu-central-1
endpoint: http://localhost:9000
use_path_style: true
block_cache_bytes: 1048576
block_size: 4096
max_client_builds_per_second: 5
log_level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Backend:                  BackendMinIO,
		Region:                   "eu-central-1",
		Endpoint:                 "http://localhost:9000",
		UsePathStyle:             true,
		BlockCacheBytes:          1 << 20,
		BlockSize:                4096,
		MaxClientBuildsPerSecond: 5,
		LogLevel:                 "debug",
	}, cfg)
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig(writeConfig(t, "region: us-west-2\n"))
	require.NoError(t, err)
	assert.Equal(t, BackendAWS, cfg.Backend)
	assert.Equal(t, "us-west-2", cfg.Region)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("STORERESOLVE_BACKEND", "MINIO")
	t.Setenv("AWS_REGION", "ap-south-1")
	t.Setenv("AWS_ENDPOINT_URL_S3", "https://objects.example.com")
	t.Setenv("AWS_S3_FORCE_PATH_STYLE", "true")

	cfg, err := LoadConfig(writeConfig(t, "backend: aws\nregion: us-east-1\n"))
	require.NoError(t, err)
	assert.Equal(t, BackendMinIO, cfg.Backend)
	assert.Equal(t, "ap-south-1", cfg.Region)
	assert.Equal(t, "https://objects.example.com", cfg.Endpoint)
	assert.True(t, cfg.UsePathStyle)
}

func TestLoadConfig_Errors(t *testing.T) {
	clearConfigEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadConfig(writeConfig(t, "backend: [unterminated\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "backend: gcs\n"))
	assert.ErrorContains(t, err, "unknown backend")

	_, err = LoadConfig(writeConfig(t, "log_level: loud\n"))
	assert.ErrorContains(t, err, "log_level")

	_, err = LoadConfig(writeConfig(t, "block_cache_bytes: -1\n"))
	assert.Error(t, err)
}

func TestNewFromConfig_Backends(t *testing.T) {
	r, err := NewFromConfig(nil)
	require.NoError(t, err)
	_, ok := r.factory.(*s3.Factory)
	assert.True(t, ok)

	cfg := DefaultConfig()
	cfg.Backend = BackendMinIO
	cfg.Endpoint = "http://localhost:9000"
	r, err = NewFromConfig(cfg)
	require.NoError(t, err)
	_, ok = r.factory.(*minio.Factory)
	assert.True(t, ok)

	cfg.Backend = "gcs"
	_, err = NewFromConfig(cfg)
	assert.Error(t, err)
}

func TestNewFromConfig_OptionsTakePrecedence(t *testing.T) {
	f := newFakeFactory()
	cfg := DefaultConfig()
	cfg.BlockCacheBytes = 1 << 20
	cfg.MaxClientBuildsPerSecond = 100

	r, err := NewFromConfig(cfg, WithRemoteFactory(f))
	require.NoError(t, err)
	assert.Same(t, f, r.factory)
	assert.NotNil(t, r.blockCache)
	assert.NotNil(t, r.cache.limiter)
}

func TestMinioEndpoint(t *testing.T) {
	tests := []struct {
		in           string
		wantHost     string
		wantInsecure bool
	}{
		{"", "", false},
		{"localhost:9000", "localhost:9000", false},
		{"http://localhost:9000", "localhost:9000", true},
		{"https://objects.example.com", "objects.example.com", false},
	}

	for _, tt := range tests {
		host, insecure, err := minioEndpoint(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.wantHost, host, tt.in)
		assert.Equal(t, tt.wantInsecure, insecure, tt.in)
	}
}
