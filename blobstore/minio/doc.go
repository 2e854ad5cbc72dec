// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works against AWS S3 and any S3-compatible server (MinIO, Ceph,
// SeaweedFS, Garage) without pulling in the AWS SDK.
//
// # Basic Usage
//
//	f := minio.NewFactory(func(o *minio.FactoryOptions) {
//	    o.Endpoint = "localhost:9000"
//	    o.Insecure = true
//	})
//	store, err := f.Build(ctx, "my-bucket", false)
//
// Or wrap an existing client:
//
//	client, err := miniogo.New("localhost:9000", &miniogo.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	store := minio.NewStore(client, "my-bucket", "datasets/")
package minio
