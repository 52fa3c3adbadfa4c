// Package s3 stores point cloud files in an Amazon S3 bucket.
//
//	store, err := s3.New(ctx, "lidar", "scans/")
//	if err != nil {
//	    return err
//	}
//	pc, err := format.Read(ctx, store, "site-a.parquet")
//
// Reads are ranged GETs. Create streams through the SDK upload manager, so
// large native or Parquet files go out as multipart uploads with CRC32-C
// checksums. ParseURL splits s3://bucket/key locations for the CLI.
package s3
