package storeresolve

import (
	"errors"
	"fmt"

	"github.com/hupe1980/storeresolve/blobstore"
)

// ErrKind categorises a resolution failure.
type ErrKind int

const (
	KindUnknown ErrKind = iota
	// KindInvalidRemoteReference: an s3:// string that does not parse or has no bucket.
	KindInvalidRemoteReference
	// KindInvalidLocalPath: an absolute local path without a recognizable root.
	KindInvalidLocalPath
	// KindCredentialResolutionFailure: no usable credentials for a signed client.
	KindCredentialResolutionFailure
	// KindConstructionFailure: the remote client could not be built.
	KindConstructionFailure
	// KindWorkingDirectoryUnavailable: a relative path could not be anchored.
	KindWorkingDirectoryUnavailable
)

func (k ErrKind) String() string {
	switch k {
	case KindInvalidRemoteReference:
		return "invalid_remote_reference"
	case KindInvalidLocalPath:
		return "invalid_local_path"
	case KindCredentialResolutionFailure:
		return "credential_resolution_failure"
	case KindConstructionFailure:
		return "construction_failure"
	case KindWorkingDirectoryUnavailable:
		return "working_directory_unavailable"
	default:
		return "unknown"
	}
}

// Error is returned by Resolve and Classify.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type Error struct {
	Kind ErrKind
	// Path is the input that failed to resolve.
	Path  string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %q: %v", e.Kind, e.Path, e.cause)
	}
	return fmt.Sprintf("[%s] %q", e.Kind, e.Path)
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind ErrKind, path string, cause error) *Error {
	return &Error{Kind: kind, Path: path, cause: cause}
}

// IsInvalidRemoteReference reports whether err is a malformed s3:// reference.
func IsInvalidRemoteReference(err error) bool {
	return KindOf(err) == KindInvalidRemoteReference
}

// IsInvalidLocalPath reports whether err is a local path without a recognizable root.
func IsInvalidLocalPath(err error) bool {
	return KindOf(err) == KindInvalidLocalPath
}

// IsCredentialResolutionFailure reports whether credential discovery failed.
func IsCredentialResolutionFailure(err error) bool {
	return KindOf(err) == KindCredentialResolutionFailure
}

// IsConstructionFailure reports whether building a remote client failed.
func IsConstructionFailure(err error) bool {
	return KindOf(err) == KindConstructionFailure
}

// IsWorkingDirectoryUnavailable reports whether the working directory could not be read.
func IsWorkingDirectoryUnavailable(err error) bool {
	return KindOf(err) == KindWorkingDirectoryUnavailable
}

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// translateBuildError maps backend factory errors onto kinds.
func translateBuildError(path string, err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	switch {
	case errors.Is(err, blobstore.ErrCredentials):
		return newError(KindCredentialResolutionFailure, path, err)
	case errors.Is(err, blobstore.ErrInvalidBucket):
		// The reference parsed; the backend refused to build a client for it.
		return newError(KindConstructionFailure, path, err)
	default:
		return newError(KindConstructionFailure, path, err)
	}
}

var (
	errMissingBucket = errors.New("missing bucket")
	errBadBucket     = errors.New("bucket is not a plain host")
)
