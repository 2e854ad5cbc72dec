// Package s3 provides an S3 implementation of the blobstore.BlobStore interface
// and a Factory that builds stores from ambient AWS configuration.
//
// # Usage
//
//	f := s3.NewFactory(func(o *s3.FactoryOptions) {
//	    o.Region = "eu-central-1"
//	})
//	store, err := f.Build(ctx, "my-bucket", false)
//
// Anonymous (unsigned) stores work without any configured credentials:
//
//	public, err := f.Build(ctx, "open-data-bucket", true)
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads with CRC32C checksums
//   - Automatic pagination for listing
//   - S3 Express One Zone directory buckets (ExpressStore)
//   - Custom endpoints and path-style addressing for S3-compatible servers
package s3
