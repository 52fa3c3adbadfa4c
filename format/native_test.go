package format

import (
	"bytes"
	"context"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pcgo"
	"github.com/hupe1980/pcgo/blobstore"
	"github.com/hupe1980/pcgo/internal/hash"
	"github.com/hupe1980/pcgo/resource"
)

func nativeBytes(t *testing.T, pc *pcgo.PointCloud, opts ...Option) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, writeNative(context.Background(), &buf, pc, applyOptions(opts)))
	return buf.Bytes()
}

func TestNativeRoundTrip(t *testing.T) {
	pc := sampleCloud(t, 3_000)
	// The intensity slot and an attribute called "intensity" are distinct.
	require.NoError(t, pc.AddAttribute("intensity", make([]float32, pc.Len())))

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			data := nativeBytes(t, pc, WithCompression(c))
			back, err := readNative(context.Background(), data, applyOptions(nil))
			require.NoError(t, err)

			assert.Equal(t, pc.XYZ(), back.XYZ())
			assert.Equal(t, pc.AttributeNames(), back.AttributeNames())
			if diff := cmp.Diff(pc.Columns(), back.Columns()); diff != "" {
				t.Fatalf("native round trip (-want +got):\n%s", diff)
			}
			in, _ := back.Intensity()
			orig, _ := pc.Intensity()
			assert.Equal(t, orig, in)
		})
	}
}

func TestNativeCompressionShrinks(t *testing.T) {
	pc, err := pcgo.FromXYZ(make([]float32, 3*50_000))
	require.NoError(t, err)

	raw := nativeBytes(t, pc, WithCompression(CompressionNone))
	lz4 := nativeBytes(t, pc, WithCompression(CompressionLZ4))
	zstd := nativeBytes(t, pc, WithCompression(CompressionZstd))
	assert.Less(t, len(lz4), len(raw)/10)
	assert.Less(t, len(zstd), len(raw)/10)
}

func TestNativeHeader(t *testing.T) {
	pc := sampleCloud(t, 10)
	data := nativeBytes(t, pc)

	h, err := parseNativeHeader(data)
	require.NoError(t, err)
	assert.Equal(t, "PCG0", string(data[:4]))
	assert.Equal(t, uint64(10), h.Points)
	assert.Equal(t, uint32(9), h.Columns)
	assert.Equal(t, flagIntensity|flagRGB, h.Flags)
	assert.Equal(t, uint64(len(data)), h.DirOffset+h.DirLength)
}

func TestNativeEmpty(t *testing.T) {
	pc := pcgo.New()
	require.NoError(t, pc.SetIntensity(nil))

	back, err := readNative(context.Background(), nativeBytes(t, pc), applyOptions(nil))
	require.NoError(t, err)
	assert.Equal(t, 0, back.Len())
	assert.True(t, back.HasIntensity())
}

func TestNativeCorruption(t *testing.T) {
	pc := sampleCloud(t, 100)
	good := nativeBytes(t, pc, WithCompression(CompressionNone))
	h, err := parseNativeHeader(good)
	require.NoError(t, err)
	o := applyOptions(nil)

	for name, mutate := range map[string]func([]byte) []byte{
		"magic":     func(b []byte) []byte { b[0] = 'X'; return b },
		"header":    func(b []byte) []byte { b[13] ^= 0xff; return b },
		"column":    func(b []byte) []byte { b[nativeHeaderSize+7] ^= 0x01; return b },
		"directory": func(b []byte) []byte { b[h.DirOffset+2] ^= 0x01; return b },
		"truncated": func(b []byte) []byte { return b[:len(b)-10] },
		"short":     func(b []byte) []byte { return b[:20] },
	} {
		t.Run(name, func(t *testing.T) {
			_, err := readNative(context.Background(), mutate(bytes.Clone(good)), o)
			require.ErrorIs(t, err, ErrCorrupt)
		})
	}

	t.Run("version", func(t *testing.T) {
		b := bytes.Clone(good)
		binary.LittleEndian.PutUint16(b[4:], 9)
		binary.LittleEndian.PutUint32(b[60:], hash.CRC32C(b[:60]))
		_, err := readNative(context.Background(), b, o)
		require.ErrorIs(t, err, pcgo.ErrUnsupportedFormat)
	})
}

func TestNativeLocalStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "scan.pcg")
	pc := sampleCloud(t, 1_000)

	require.NoError(t, WriteFile(ctx, path, pc, WithCompression(CompressionZstd)))
	back, err := ReadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, pc.Columns(), back.Columns())

	require.NoError(t, DeleteFile(path))
	_, err = ReadFile(ctx, path)
	require.ErrorIs(t, err, pcgo.ErrNotFound)
	require.ErrorIs(t, DeleteFile(path), pcgo.ErrNotFound)
}

func TestNativeMemoryLimit(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	pc := sampleCloud(t, 1_000)
	require.NoError(t, Write(ctx, store, "p.pcg", pc))

	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1024})
	_, err := Read(ctx, store, "p.pcg", WithController(rc))
	require.ErrorIs(t, err, pcgo.ErrMemoryLimit)
	assert.Zero(t, rc.MemoryUsage())

	err = Write(ctx, store, "q.pcg", pc, WithController(rc))
	require.ErrorIs(t, err, pcgo.ErrMemoryLimit)
}
