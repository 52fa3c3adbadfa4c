package format

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/hupe1980/pcgo"
	"github.com/hupe1980/pcgo/blobstore"
	"github.com/hupe1980/pcgo/resource"
)

const writeBufferSize = 1 << 20

// Write encodes pc into the blob name of store. The blob is aborted when
// encoding fails.
func Write(ctx context.Context, store blobstore.BlobStore, name string, pc *pcgo.PointCloud, optFns ...Option) (err error) {
	if pc == nil {
		return &pcgo.ErrInvalidArgument{Name: "pc", Value: nil, Reason: "nil point cloud"}
	}
	o := applyOptions(optFns)
	f, err := resolve(o.format, name)
	start := time.Now()
	defer func() {
		o.metrics.RecordWrite(f.String(), pc.Len(), time.Since(start), err)
		o.logger.LogWrite(ctx, f.String(), name, pc.Len(), err)
	}()
	if err != nil {
		return err
	}

	blob, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}

	bw := bufio.NewWriterSize(resource.NewRateLimitedWriter(ctx, blob, o.controller), writeBufferSize)
	if err = encode(ctx, f, bw, pc, o); err == nil {
		err = bw.Flush()
	}
	if err == nil {
		err = blob.Sync()
	}
	if err != nil {
		if abortErr := blob.Abort(); abortErr != nil {
			return errors.Join(err, abortErr)
		}
		return err
	}
	if err = blob.Close(); err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}
	return nil
}

func encode(ctx context.Context, f Format, w io.Writer, pc *pcgo.PointCloud, o *options) error {
	switch f {
	case CSV:
		return writeCSV(ctx, w, pc, o)
	case Parquet:
		return writeParquet(ctx, w, pc, o)
	case LAS:
		return writeLAS(ctx, w, pc, o)
	case Native:
		return writeNative(ctx, w, pc, o)
	default:
		return fmt.Errorf("%w: %v", pcgo.ErrUnsupportedFormat, f)
	}
}

// Read decodes the blob name of store. A missing blob yields an error
// matching pcgo.ErrNotFound.
func Read(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (pc *pcgo.PointCloud, err error) {
	o := applyOptions(optFns)
	f, err := resolve(o.format, name)
	start := time.Now()
	defer func() {
		points := 0
		if pc != nil {
			points = pc.Len()
		}
		o.metrics.RecordRead(f.String(), points, time.Since(start), err)
		o.logger.LogRead(ctx, f.String(), name, points, err)
	}()
	if err != nil {
		return nil, err
	}

	blob, err := store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s: %w", pcgo.ErrNotFound, name, err)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer blob.Close()

	switch f {
	case CSV:
		r := bufio.NewReaderSize(resource.NewRateLimitedReader(ctx, blobstore.NewReader(blob), o.controller), writeBufferSize)
		return readCSV(ctx, r, o)
	case Parquet:
		return readParquet(ctx, blob, o)
	case LAS:
		return readLAS(ctx, blob, o)
	case Native:
		data, err := readBlob(ctx, blob, o)
		if err != nil {
			return nil, err
		}
		return readNative(ctx, data, o)
	default:
		return nil, fmt.Errorf("%w: %v", pcgo.ErrUnsupportedFormat, f)
	}
}

// readBlob returns the whole blob, without copying when it is memory mapped.
// Decoders must copy out of the result; it is invalid once b is closed.
func readBlob(ctx context.Context, b blobstore.Blob, o *options) ([]byte, error) {
	if m, ok := b.(blobstore.Mappable); ok {
		if err := o.controller.AcquireIO(ctx, int(b.Size())); err != nil {
			return nil, err
		}
		return m.Bytes()
	}
	return io.ReadAll(resource.NewRateLimitedReader(ctx, blobstore.NewReader(b), o.controller))
}

func reserve(ctx context.Context, o *options, bytes int64) (func(), error) {
	if err := o.controller.AcquireMemory(ctx, bytes); err != nil {
		return nil, fmt.Errorf("%w: reserve %d bytes: %w", pcgo.ErrMemoryLimit, bytes, err)
	}
	return func() { o.controller.ReleaseMemory(bytes) }, nil
}

// WriteFile writes pc to a local path. Parent directories are created.
func WriteFile(ctx context.Context, path string, pc *pcgo.PointCloud, optFns ...Option) error {
	dir, name := filepath.Split(path)
	return Write(ctx, blobstore.NewLocalStore(dir), name, pc, optFns...)
}

// ReadFile reads a point cloud from a local path.
func ReadFile(ctx context.Context, path string, optFns ...Option) (*pcgo.PointCloud, error) {
	dir, name := filepath.Split(path)
	return Read(ctx, blobstore.NewLocalStore(dir), name, optFns...)
}

// DeleteFile removes a local file. A missing file yields an error matching
// pcgo.ErrNotFound.
func DeleteFile(path string) error {
	dir, name := filepath.Split(path)
	err := blobstore.NewLocalStore(dir).Delete(context.Background(), name)
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", pcgo.ErrNotFound, err)
	}
	return err
}
