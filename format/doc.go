// Package format reads and writes point clouds in external file formats.
//
// Supported encodings:
//
//   - CSV: delimited text. Headerless x,y,z rows by default; WithHeader adds a
//     header row plus intensity, colour and named attribute columns.
//   - Parquet: one float32 column per axis and per attribute (Apache Arrow).
//   - LAS 1.2: LiDAR point formats 0 and 2 on write, 0 to 3 on read. LAZ is
//     recognised but rejected with pcgo.ErrUnsupportedFormat.
//   - Native (.pcg): lossless columnar container with per-column block
//     compression and CRC32-C checksums.
//
// Every format goes through a blobstore.BlobStore, so the same calls work on
// local disk, in memory and on S3-compatible object storage:
//
//	store := blobstore.NewLocalStore("/data")
//	if err := format.Write(ctx, store, "scan.pcg", pc); err != nil {
//		return err
//	}
//	back, err := format.Read(ctx, store, "scan.pcg")
//
// The format is picked from the file extension unless WithFormat is given.
// Writes are atomic for stores that support it: a failed encode aborts the
// blob and leaves no partial file behind.
package format
