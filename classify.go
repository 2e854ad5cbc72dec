package storeresolve

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// RemoteScheme prefixes remote references.
const RemoteScheme = "s3://"

// Location is a classified path.
type Location struct {
	// Remote is true for s3:// references.
	Remote bool

	// Bucket, Key and Anonymous are set for remote references.
	// Key has no leading slash and may be empty.
	Bucket    string
	Key       string
	Anonymous bool

	// LocalPath is the absolute filesystem path for local references.
	LocalPath string
}

// CacheKey returns the client cache key of a remote location.
func (l Location) CacheKey() CacheKey {
	return CacheKey{Bucket: l.Bucket, Anonymous: l.Anonymous}
}

// Classify turns a path string into a Location.
//
// Strings starting with s3:// are remote and never fall back to local. The
// bucket runs up to the first '/', and the first '?' starts the query. The key
// in between is kept verbatim: '#' and '%' are ordinary key characters and
// nothing is percent-decoded. Keys containing '?' cannot be addressed.
//
// Everything else is local. Absolute paths are lexically cleaned, which only
// removes '.', '..' and doubled separators. Relative paths are joined with
// getwd(), which is consulted at call time. A nil getwd uses os.Getwd.
func Classify(path string, getwd func() (string, error)) (Location, error) {
	if strings.HasPrefix(path, RemoteScheme) {
		return classifyRemote(path)
	}

	if isAbs(path) {
		return Location{LocalPath: filepath.Clean(path)}, nil
	}

	if getwd == nil {
		getwd = osGetwd
	}
	wd, err := getwd()
	if err != nil {
		return Location{}, newError(KindWorkingDirectoryUnavailable, path, err)
	}
	return Location{LocalPath: filepath.Join(wd, path)}, nil
}

func classifyRemote(path string) (Location, error) {
	ref, rawQuery, _ := strings.Cut(strings.TrimPrefix(path, RemoteScheme), "?")
	bucket, key, _ := strings.Cut(ref, "/")
	if bucket == "" {
		return Location{}, newError(KindInvalidRemoteReference, path, errMissingBucket)
	}

	// Only the authority goes through url.Parse; it must come back as a bare host.
	u, err := url.Parse(RemoteScheme + bucket + "/")
	if err != nil {
		return Location{}, newError(KindInvalidRemoteReference, path, err)
	}
	if u.Host != bucket {
		return Location{}, newError(KindInvalidRemoteReference, path, fmt.Errorf("%w: %q", errBadBucket, bucket))
	}

	// Malformed pairs are dropped; only anon matters here.
	query, _ := url.ParseQuery(rawQuery)
	anon := query.Get("anon")

	return Location{
		Remote:    true,
		Bucket:    bucket,
		Key:       key,
		Anonymous: anon == "true" || anon == "1",
	}, nil
}

// isAbs accepts native absolute paths as well as POSIX and drive-letter
// forms, so classification does not depend on the build platform.
func isAbs(path string) bool {
	return filepath.IsAbs(path) || strings.HasPrefix(path, "/") || hasDriveRoot(path)
}

// hasDriveRoot reports whether path starts with a drive letter and separator, e.g. `C:\`.
func hasDriveRoot(path string) bool {
	if len(path) < 3 || path[1] != ':' || (path[2] != '\\' && path[2] != '/') {
		return false
	}
	c := path[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
