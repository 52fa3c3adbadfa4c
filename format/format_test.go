package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pcgo"
	"github.com/hupe1980/pcgo/blobstore"
	"github.com/hupe1980/pcgo/testutil"
)

// sampleCloud returns n points carrying intensity, colour and two attributes.
func sampleCloud(t *testing.T, n int) *pcgo.PointCloud {
	t.Helper()
	rng := testutil.NewRNG(int64(n) + 1)
	pc, err := pcgo.FromXYZ(rng.UniformXYZ(n, -50, 50))
	require.NoError(t, err)
	require.NoError(t, pc.SetIntensity(rng.Scalars(n, 0, 1)))
	r, g, b := rng.RGB(n)
	require.NoError(t, pc.SetRGB(r, g, b))
	require.NoError(t, pc.AddAttribute("curvature", rng.Scalars(n, -1, 1)))
	require.NoError(t, pc.AddAttribute("return_number", rng.Scalars(n, 1, 5)))
	return pc
}

func TestFromExtension(t *testing.T) {
	for name, want := range map[string]Format{
		"scan.csv":          CSV,
		"scan.TXT":          CSV,
		"dir/scan.parquet":  Parquet,
		"scan.pq":           Parquet,
		`C:\data\scan.las`:  LAS,
		"scan.laz":          LAZ,
		"s3://b/k/scan.pcg": Native,
	} {
		got, err := FromExtension(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := FromExtension("scan.ply")
	require.ErrorIs(t, err, pcgo.ErrUnsupportedFormat)
	_, err = FromExtension("scan")
	require.ErrorIs(t, err, pcgo.ErrUnsupportedFormat)
}

func TestParseFormat(t *testing.T) {
	for _, f := range []Format{CSV, Parquet, LAS, LAZ, Native} {
		got, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	got, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, Auto, got)
}

func TestResolve(t *testing.T) {
	f, err := resolve(Auto, "a.csv")
	require.NoError(t, err)
	assert.Equal(t, CSV, f)

	// An explicit format wins over the extension.
	f, err = resolve(Native, "a.csv")
	require.NoError(t, err)
	assert.Equal(t, Native, f)

	_, err = resolve(Auto, "a.laz")
	require.ErrorIs(t, err, pcgo.ErrUnsupportedFormat)
	_, err = resolve(LAZ, "a.las")
	require.ErrorIs(t, err, pcgo.ErrUnsupportedFormat)
}

func TestRoundTripAllFormats(t *testing.T) {
	ctx := context.Background()
	pc := sampleCloud(t, 500)
	store := blobstore.NewMemoryStore()

	for _, name := range []string{"a.csv", "a.parquet", "a.las", "a.pcg"} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, Write(ctx, store, name, pc))
			back, err := Read(ctx, store, name)
			require.NoError(t, err)

			require.Equal(t, pc.Len(), back.Len())
			tol := 1e-6
			if name == "a.las" {
				tol = DefaultLASScale
			}
			for i, v := range pc.XYZ() {
				require.InDelta(t, v, back.XYZ()[i], tol, "coordinate %d", i)
			}
		})
	}

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "a.las", "a.parquet", "a.pcg"}, names)
}
