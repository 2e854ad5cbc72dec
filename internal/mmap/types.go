package mmap

import "errors"

// AccessPattern is a paging hint for a mapping.
type AccessPattern int

const (
	// AccessDefault lets the kernel choose.
	AccessDefault AccessPattern = iota
	// AccessSequential favors read-ahead, used before whole-blob copies.
	AccessSequential
	// AccessRandom disables read-ahead, used for ranged reads.
	AccessRandom
)

func (p AccessPattern) String() string {
	switch p {
	case AccessSequential:
		return "sequential"
	case AccessRandom:
		return "random"
	default:
		return "default"
	}
}

var (
	// ErrClosed is returned by operations on a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for files too large to map on this platform.
	ErrInvalidSize = errors.New("mmap: invalid file size")
	// ErrInvalidOffset is returned by ReadAt for negative offsets.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
