// Package minio stores point cloud files in a MinIO bucket, or any other
// S3-compatible server the minio-go client can reach, without the AWS SDK.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4(accessKey, secretKey, ""),
//	})
//	if err != nil {
//	    return err
//	}
//	store := pcminio.NewStore(client, "lidar", "tiles/")
//	pc, err := format.Read(ctx, store, "site-a.pcg")
//
// Create streams into a PutObject of unknown size. Blobs bind the
// context passed to Open for their ReadAt calls.
package minio
