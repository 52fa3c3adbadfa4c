package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("0123456789")
	require.NoError(t, store.Put(ctx, "a/1", data))
	data[0] = 'x'

	w, err := store.Create(ctx, "a/2")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	w, err = store.Create(ctx, "b/aborted")
	require.NoError(t, err)
	_, err = w.Write([]byte("junk"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1", "a/2"}, names)

	blob, err := store.Open(ctx, "a/1")
	require.NoError(t, err)
	buf := make([]byte, 4)
	n, err := blob.ReadAt(buf, 8)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "89", string(buf[:n]))

	rc, err := blob.ReadRange(ctx, 0, 3)
	require.NoError(t, err)
	got, _ := io.ReadAll(rc)
	assert.Equal(t, "012", string(got))

	require.NoError(t, store.Delete(ctx, "a/1"))
	require.ErrorIs(t, store.Delete(ctx, "a/1"), ErrNotFound)
	_, err = store.Open(ctx, "a/1")
	require.ErrorIs(t, err, ErrNotFound)
}
