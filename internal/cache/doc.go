// Package cache provides an in-memory LRU cache for immutable blob blocks.
//
// Remote stores are wrapped by blobstore.CachingStore, which reads fixed-size
// blocks through a BlockCache so repeated ranged reads of the same object do
// not go back to the network. Keys carry a namespace so one cache can be
// shared by every store a Resolver hands out.
package cache
