package format

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pcgo"
	"github.com/hupe1980/pcgo/blobstore"
)

func lasBytes(t *testing.T, pc *pcgo.PointCloud, opts ...Option) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, writeLAS(context.Background(), &buf, pc, applyOptions(opts)))
	return buf.Bytes()
}

func TestLASHeader(t *testing.T) {
	pc := pcgo.FromPoints([][3]float32{{10, 20, 30}, {11, 25, 31}})
	data := lasBytes(t, pc)

	var h lasHeader
	require.NoError(t, binary.Read(bytes.NewReader(data), binary.LittleEndian, &h))
	assert.Equal(t, lasHeaderSize, binary.Size(h))
	assert.Equal(t, "LASF", string(h.Signature[:]))
	assert.Equal(t, uint8(2), h.VersionMinor)
	assert.Equal(t, uint8(0), h.PointFormat)
	assert.Equal(t, uint16(20), h.PointRecordLen)
	assert.Equal(t, uint32(2), h.PointCount)
	assert.Equal(t, 10.0, h.MinX)
	assert.Equal(t, 25.0, h.MaxY)
	assert.Len(t, data, lasHeaderSize+2*20)

	require.NoError(t, pc.SetRGB([]float32{1, 2}, []float32{3, 4}, []float32{5, 6}))
	data = lasBytes(t, pc)
	assert.Equal(t, uint8(2), data[104])
	assert.Len(t, data, lasHeaderSize+2*26)
}

func TestLASRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	pc := sampleCloud(t, 1_000)

	require.NoError(t, Write(ctx, store, "p.las", pc, WithLASScale(0.0001)))
	back, err := Read(ctx, store, "p.las")
	require.NoError(t, err)
	require.Equal(t, pc.Len(), back.Len())

	for i, v := range pc.XYZ() {
		require.InDelta(t, v, back.XYZ()[i], 1e-4)
	}

	in, _ := pc.Intensity()
	backIn, err := back.Intensity()
	require.NoError(t, err)
	for i := range in {
		require.Equal(t, lasIntensity(in[i]), lasIntensity(backIn[i]), "point %d", i)
	}

	r, g, b, _ := pc.RGB()
	br, bg, bb, err := back.RGB()
	require.NoError(t, err)
	assert.Equal(t, r, br)
	assert.Equal(t, g, bg)
	assert.Equal(t, b, bb)

	// LAS has no slot for named attributes.
	assert.Empty(t, back.AttributeNames())
}

func TestLASWithoutColour(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	pc := pcgo.FromPoints([][3]float32{{1, 2, 3}})

	require.NoError(t, Write(ctx, store, "p.las", pc))
	back, err := Read(ctx, store, "p.las")
	require.NoError(t, err)
	assert.False(t, back.HasRGB())
	in, err := back.Intensity()
	require.NoError(t, err)
	assert.Equal(t, []float32{0}, in)
}

func TestLASIntensityClamp(t *testing.T) {
	assert.Equal(t, uint16(0), lasIntensity(-1))
	assert.Equal(t, uint16(0), lasIntensity(float32(math.NaN())))
	assert.Equal(t, uint16(65535), lasIntensity(1))
	assert.Equal(t, uint16(65535), lasIntensity(7))
	assert.Equal(t, uint16(32768), lasIntensity(0.5))
	assert.Equal(t, uint16(1), lasIntensity(0.6/65535))
}

func TestLASIntensityRawRoundTrip(t *testing.T) {
	// Every raw value read as raw/65535 must encode back to itself.
	for k := range 65536 {
		v := float32(k) / 65535
		require.Equal(t, uint16(k), lasIntensity(v), "raw %d", k)
	}
}

func TestLASToLASKeepsRawIntensity(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	const n = 65536
	xyz := make([]float32, 3*n)
	in := make([]float32, n)
	for k := range n {
		xyz[3*k] = float32(k % 256)
		xyz[3*k+1] = float32(k / 256)
		in[k] = float32(k) / 65535
	}
	pc, err := pcgo.FromXYZ(xyz)
	require.NoError(t, err)
	require.NoError(t, pc.SetIntensity(in))

	require.NoError(t, Write(ctx, store, "a.las", pc))
	first, err := Read(ctx, store, "a.las")
	require.NoError(t, err)
	require.NoError(t, Write(ctx, store, "b.las", first))
	second, err := Read(ctx, store, "b.las")
	require.NoError(t, err)

	got, err := second.Intensity()
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestLASWriteErrors(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	err := Write(ctx, store, "e.las", pcgo.New())
	require.ErrorIs(t, err, pcgo.ErrEmptyCloud)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names, "failed write must not leave a blob")

	var inv *pcgo.ErrInvalidArgument
	err = Write(ctx, store, "s.las", pcgo.FromPoints([][3]float32{{1, 2, 3}}), WithLASScale(0))
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "las_scale", inv.Name)

	err = Write(ctx, store, "big.las", pcgo.FromPoints([][3]float32{{0, 0, 0}, {1e7, 0, 0}}), WithLASScale(1e-6))
	require.ErrorAs(t, err, &inv)

	err = Write(ctx, store, "nan.las", pcgo.FromPoints([][3]float32{{float32(math.Inf(1)), 0, 0}}))
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "xyz", inv.Name)
}

func TestLASReadErrors(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	good := lasBytes(t, pcgo.FromPoints([][3]float32{{1, 2, 3}, {4, 5, 6}}))

	put := func(name string, data []byte) error {
		require.NoError(t, store.Put(ctx, name, data))
		_, err := Read(ctx, store, name)
		return err
	}

	compressed := bytes.Clone(good)
	compressed[104] |= 0x80
	require.ErrorIs(t, put("c.las", compressed), pcgo.ErrUnsupportedFormat)

	format6 := bytes.Clone(good)
	format6[104] = 6
	require.ErrorIs(t, put("f6.las", format6), pcgo.ErrUnsupportedFormat)

	badSig := bytes.Clone(good)
	copy(badSig, "XXXX")
	require.ErrorIs(t, put("sig.las", badSig), ErrCorrupt)

	require.ErrorIs(t, put("short.las", good[:100]), ErrCorrupt)
	require.ErrorIs(t, put("trunc.las", good[:len(good)-5]), ErrCorrupt)

	require.ErrorIs(t, put("x.laz", good), pcgo.ErrUnsupportedFormat)
}
