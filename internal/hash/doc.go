// Package hash provides the CRC32-Castagnoli checksums used to validate
// uploads to object stores.
//
// Go's crc32 package uses hardware instructions (SSE4.2, ARM CRC) when
// available, so checksumming whole small blobs before a PUT is cheap.
//
//	checksum := hash.CRC32C(data)
//	header := hash.CRC32CBase64(data) // x-amz-checksum-crc32c
package hash
