package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/pcgo/blobstore"
)

var errAborted = errors.New("minio: upload aborted")

// Store keeps point cloud files under a key prefix in one bucket.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ blobstore.BlobStore = (*Store)(nil)

// NewStore returns a Store for bucket. rootPrefix, if set, is joined in front
// of every name.
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: strings.TrimSuffix(rootPrefix, "/")}
}

func (s *Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

func (s *Store) stat(ctx context.Context, name string) (minio.ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucket, s.key(name), minio.StatObjectOptions{})
	if err != nil && isNotFound(err) {
		return info, fmt.Errorf("%w: %s", blobstore.ErrNotFound, name)
	}
	return info, err
}

// Open stats the object. ctx is kept for every ReadAt on the blob.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	info, err := s.stat(ctx, name)
	if err != nil {
		return nil, err
	}
	return &object{ctx: ctx, client: s.client, bucket: s.bucket, key: s.key(name), size: info.Size}, nil
}

func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

// Create streams the written bytes into a PutObject of unknown size.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	pr, pw := io.Pipe()
	w := &upload{pw: pw, done: make(chan error, 1)}
	key := s.key(name)

	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, key, pr, -1, minio.PutObjectOptions{})
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

// Delete reports ErrNotFound for missing objects, unlike RemoveObject.
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.stat(ctx, name); err != nil {
		return err
	}
	return s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	full := s.key(prefix)
	if prefix == "" {
		full = s.prefix
	}

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: full, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if name := strings.TrimPrefix(strings.TrimPrefix(obj.Key, s.prefix), "/"); name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

type object struct {
	ctx    context.Context
	client *minio.Client
	bucket string
	key    string
	size   int64
}

func (o *object) Size() int64  { return o.size }
func (o *object) Close() error { return nil }

func (o *object) open(ctx context.Context, off, length int64) (*minio.Object, int64, error) {
	if off < 0 {
		return nil, 0, fmt.Errorf("minio: negative offset %d", off)
	}
	if off >= o.size {
		return nil, 0, io.EOF
	}
	last := min(off+length, o.size) - 1
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, last); err != nil {
		return nil, 0, err
	}
	obj, err := o.client.GetObject(ctx, o.bucket, o.key, opts)
	return obj, last - off + 1, err
}

func (o *object) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	obj, want, err := o.open(o.ctx, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer obj.Close()

	n, err := io.ReadFull(obj, p[:want])
	if err == nil && int(want) < len(p) {
		err = io.EOF
	}
	return n, err
}

func (o *object) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	obj, _, err := o.open(ctx, off, length)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// upload is the write side of Create.
type upload struct {
	pw   *io.PipeWriter
	done chan error

	mu       sync.Mutex
	finished bool
	err      error
}

func (u *upload) Write(p []byte) (int, error) { return u.pw.Write(p) }
func (u *upload) Sync() error                 { return nil }

func (u *upload) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.finished {
		return u.err
	}
	u.finished = true
	if u.err = u.pw.Close(); u.err != nil {
		return u.err
	}
	u.err = <-u.done
	return u.err
}

// Abort fails the pending PutObject so no object is created.
func (u *upload) Abort() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.finished {
		return nil
	}
	u.finished = true
	_ = u.pw.CloseWithError(errAborted)
	<-u.done
	return nil
}
