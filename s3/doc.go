// Package s3 provides an S3 implementation of the stampede.Cache interface.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cache := stampede.NewBlockingCache[string, []byte](
//	    s3.NewCache(awss3.NewFromConfig(cfg), "my-bucket", "cache/"),
//	)
//
// # Features
//
//   - Multipart uploads for large values
//   - Optional CRC32C integrity validation on writes
//   - Automatic pagination for Size and Clear
//   - Configurable prefix for multi-tenant isolation
//
// S3 reads are strongly consistent after writes, so a value stored with
// Put is visible to the Get calls that follow it.
package s3
