package format

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pcgo"
	"github.com/hupe1980/pcgo/blobstore"
	"github.com/hupe1980/pcgo/internal/fs"
	"github.com/hupe1980/pcgo/resource"
)

func TestReadNotFound(t *testing.T) {
	_, err := Read(context.Background(), blobstore.NewMemoryStore(), "missing.pcg")
	require.ErrorIs(t, err, pcgo.ErrNotFound)
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestWriteUnsupported(t *testing.T) {
	store := blobstore.NewMemoryStore()
	pc := pcgo.FromPoints([][3]float32{{1, 2, 3}})

	require.ErrorIs(t, Write(context.Background(), store, "a.ply", pc), pcgo.ErrUnsupportedFormat)
	require.ErrorIs(t, Write(context.Background(), store, "a.laz", pc), pcgo.ErrUnsupportedFormat)
	require.ErrorIs(t, Write(context.Background(), store, "a", pc, WithFormat(Format(42))), pcgo.ErrUnsupportedFormat)

	// WithFormat makes extensionless names usable.
	require.NoError(t, Write(context.Background(), store, "a", pc, WithFormat(Native)))
	back, err := Read(context.Background(), store, "a", WithFormat(Native))
	require.NoError(t, err)
	assert.Equal(t, 1, back.Len())
}

func TestWriteNilCloud(t *testing.T) {
	store := blobstore.NewMemoryStore()
	collector := &pcgo.BasicMetricsCollector{}

	err := Write(context.Background(), store, "a.pcg", nil, WithMetricsCollector(collector))
	var inv *pcgo.ErrInvalidArgument
	require.ErrorAs(t, err, &inv)

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestWriteAbortsOnStorageFault(t *testing.T) {
	dir := t.TempDir()
	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule("scan.pcg", fs.Fault{FailAfterBytes: 100})
	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(faulty))

	err := Write(context.Background(), store, "scan.pcg", sampleCloud(t, 5_000), WithCompression(CompressionNone))
	require.ErrorIs(t, err, fs.ErrInjected)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "aborted write left files behind")
}

func TestWriteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := blobstore.NewMemoryStore()

	for _, name := range []string{"a.csv", "a.las", "a.pcg", "a.parquet"} {
		err := Write(ctx, store, name, sampleCloud(t, 10))
		require.ErrorIs(t, err, context.Canceled, name)
	}
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRateLimitedRoundTrip(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 64 << 20})
	path := filepath.Join(t.TempDir(), "scan.csv")
	pc := sampleCloud(t, 200)

	require.NoError(t, WriteFile(ctx, path, pc, WithController(rc), WithHeader(true)))
	back, err := ReadFile(ctx, path, WithController(rc), WithHeader(true))
	require.NoError(t, err)
	assert.Equal(t, pc.Columns(), back.Columns())
}

func TestBridgeMetricsAndLogging(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	metrics := &pcgo.BasicMetricsCollector{}
	var logs bytes.Buffer
	logger := pcgo.NewLogger(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	opts := []Option{WithMetricsCollector(metrics), WithLogger(logger)}

	pc := sampleCloud(t, 42)
	require.NoError(t, Write(ctx, store, "a.pcg", pc, opts...))
	_, err := Read(ctx, store, "a.pcg", opts...)
	require.NoError(t, err)
	_, err = Read(ctx, store, "missing.pcg", opts...)
	require.Error(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.WriteCount)
	assert.Equal(t, int64(42), stats.WritePoints)
	assert.Equal(t, int64(2), stats.ReadCount)
	assert.Equal(t, int64(1), stats.ReadErrors)
	assert.Equal(t, int64(42), stats.ReadPoints)

	out := logs.String()
	assert.Contains(t, out, `"msg":"cloud written"`)
	assert.Contains(t, out, `"msg":"read failed"`)
	assert.Equal(t, 3, strings.Count(out, `"format":"pcg"`))
}
