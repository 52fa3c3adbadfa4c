package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/pcgo/blobstore"
	pcminio "github.com/hupe1980/pcgo/blobstore/minio"
	s3store "github.com/hupe1980/pcgo/blobstore/s3"
)

const minioScheme = "minio"

// location is a parsed input or output argument.
type location struct {
	scheme string // "", "s3" or "minio"
	bucket string
	dir    string // directory of a local path
	name   string // blob name within the store
}

func parseLocation(raw string) (location, error) {
	switch {
	case s3store.IsURL(raw):
		bucket, key, err := s3store.ParseURL(raw)
		if err != nil {
			return location{}, err
		}
		return location{scheme: s3store.Scheme, bucket: bucket, name: key}, nil
	case strings.HasPrefix(raw, minioScheme+"://"):
		u, err := url.Parse(raw)
		if err != nil {
			return location{}, fmt.Errorf("minio: parse url: %w", err)
		}
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return location{}, fmt.Errorf("minio: url %q needs a bucket and a key", raw)
		}
		return location{scheme: minioScheme, bucket: u.Host, name: key}, nil
	case strings.Contains(raw, "://"):
		return location{}, fmt.Errorf("unsupported location %q", raw)
	}

	if raw == "" {
		return location{}, fmt.Errorf("empty location")
	}
	dir, name := filepath.Split(raw)
	if name == "" {
		return location{}, fmt.Errorf("location %q names a directory", raw)
	}
	if dir == "" {
		dir = "."
	}
	return location{dir: dir, name: name}, nil
}

// openStore resolves raw into a store and the blob name inside it.
func (a *app) openStore(ctx context.Context, raw string) (blobstore.BlobStore, string, error) {
	loc, err := parseLocation(raw)
	if err != nil {
		return nil, "", err
	}

	switch loc.scheme {
	case s3store.Scheme:
		st, err := s3store.New(ctx, loc.bucket, "")
		if err != nil {
			return nil, "", err
		}
		return st, loc.name, nil
	case minioScheme:
		client, err := minio.New(a.v.GetString("minio-endpoint"), &minio.Options{
			Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
			Secure: a.v.GetBool("minio-secure"),
		})
		if err != nil {
			return nil, "", fmt.Errorf("minio: %w", err)
		}
		return pcminio.NewStore(client, loc.bucket, ""), loc.name, nil
	default:
		return blobstore.NewLocalStore(loc.dir), loc.name, nil
	}
}
