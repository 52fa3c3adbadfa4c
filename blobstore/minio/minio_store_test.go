package minio

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pcgo"
	"github.com/hupe1980/pcgo/blobstore"
	"github.com/hupe1980/pcgo/format"
)

// newTestStore connects to MINIO_ENDPOINT with the default minioadmin
// credentials, creating the bucket if needed.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
	})
	require.NoError(t, err)

	ctx := context.Background()
	const bucket = "test-pcgo"
	ok, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !ok {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}
	return NewStore(client, bucket, t.Name()+"/")
}

func TestStoreBlobs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "raw.bin", []byte("hello minio world")))

	blob, err := store.Open(ctx, "raw.bin")
	require.NoError(t, err)
	defer blob.Close()
	assert.Equal(t, int64(17), blob.Size())

	rc, err := blob.ReadRange(ctx, 6, 5)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "minio", string(part))

	w, err := store.Create(ctx, "aborted.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("junk"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())
	_, err = store.Open(ctx, "aborted.bin")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "raw.bin"))
	require.ErrorIs(t, store.Delete(ctx, "raw.bin"), blobstore.ErrNotFound)
}

func TestStoreCloudRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	pc := pcgo.FromPoints([][3]float32{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})
	require.NoError(t, pc.SetIntensity([]float32{0.1, 0.2, 0.3}))

	for _, name := range []string{"tile.pcg", "tile.parquet", "tile.las"} {
		require.NoError(t, format.Write(ctx, store, name, pc))

		back, err := format.Read(ctx, store, name)
		require.NoError(t, err, name)
		assert.Equal(t, pc.Len(), back.Len(), name)
		assert.InDeltaSlice(t, pc.XYZ(), back.XYZ(), 1e-3, name)
	}

	names, err := store.List(ctx, "tile.")
	require.NoError(t, err)
	assert.Equal(t, []string{"tile.las", "tile.parquet", "tile.pcg"}, names)

	for _, name := range names {
		require.NoError(t, store.Delete(ctx, name))
	}
}

func TestStoreKey(t *testing.T) {
	assert.Equal(t, "a/b.las", NewStore(nil, "bucket", "a/").key("b.las"))
	assert.Equal(t, "b.las", NewStore(nil, "bucket", "").key("b.las"))
}
