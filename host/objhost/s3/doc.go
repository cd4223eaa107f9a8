// Package s3 provides an Amazon S3 implementation of objhost.ObjectStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("home/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	rt := cstdio.New(objhost.New(store))
//
// # Features
//
//   - Whole-object downloads and uploads through the S3 transfer manager
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
