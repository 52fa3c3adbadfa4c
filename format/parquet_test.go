package format

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pcgo"
	"github.com/hupe1980/pcgo/blobstore"
)

func TestParquetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	pc := sampleCloud(t, 2_000)

	for _, name := range []string{"snappy", "zstd", "none"} {
		t.Run(name, func(t *testing.T) {
			c, err := ParseParquetCompression(name)
			require.NoError(t, err)
			require.NoError(t, Write(ctx, store, "p.parquet", pc, WithParquetCompression(c)))

			back, err := Read(ctx, store, "p.parquet")
			require.NoError(t, err)
			if diff := cmp.Diff(pc.Columns(), back.Columns()); diff != "" {
				t.Fatalf("parquet round trip (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParquetEmpty(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	pc := pcgo.New()
	require.NoError(t, pc.AddAttribute("a", nil))

	require.NoError(t, Write(ctx, store, "e.parquet", pc))
	back, err := Read(ctx, store, "e.parquet")
	require.NoError(t, err)
	assert.Equal(t, 0, back.Len())
	assert.Equal(t, []string{"a"}, back.AttributeNames())
}

func TestParquetReservedAttributeName(t *testing.T) {
	pc := pcgo.FromPoints([][3]float32{{1, 2, 3}})
	require.NoError(t, pc.AddAttribute("r", []float32{1}))

	err := Write(context.Background(), blobstore.NewMemoryStore(), "p.parquet", pc)
	var dup *pcgo.ErrDuplicateAttribute
	require.ErrorAs(t, err, &dup)

	// Renaming the colour columns frees the name.
	names := map[string]string{"r": "red", "g": "green", "b": "blue"}
	require.NoError(t, Write(context.Background(), blobstore.NewMemoryStore(), "p.parquet", pc, WithColumnNames(names)))
}

// foreignParquet writes a file the way other tools do: float64 coordinates,
// an integer column, a nullable column and a string column.
func foreignParquet(t *testing.T, withZ bool) []byte {
	t.Helper()
	pool := memory.NewGoAllocator()

	fields := []arrow.Field{
		{Name: "x", Type: arrow.PrimitiveTypes.Float64},
		{Name: "y", Type: arrow.PrimitiveTypes.Float64},
	}
	if withZ {
		fields = append(fields, arrow.Field{Name: "z", Type: arrow.PrimitiveTypes.Float64})
	}
	fields = append(fields,
		arrow.Field{Name: "classification", Type: arrow.PrimitiveTypes.Int32},
		arrow.Field{Name: "gps_time", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		arrow.Field{Name: "label", Type: arrow.BinaryTypes.String},
	)
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(pool, schema)
	defer b.Release()
	col := 0
	b.Field(col).(*array.Float64Builder).AppendValues([]float64{1, 4}, nil)
	col++
	b.Field(col).(*array.Float64Builder).AppendValues([]float64{2, 5}, nil)
	col++
	if withZ {
		b.Field(col).(*array.Float64Builder).AppendValues([]float64{3, 6}, nil)
		col++
	}
	b.Field(col).(*array.Int32Builder).AppendValues([]int32{2, 6}, nil)
	col++
	b.Field(col).(*array.Float64Builder).AppendValues([]float64{10.5, 0}, []bool{true, false})
	col++
	b.Field(col).(*array.StringBuilder).AppendValues([]string{"ground", "building"}, nil)

	rec := b.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	fw, err := pqarrow.NewFileWriter(schema, &buf, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	require.NoError(t, err)
	require.NoError(t, fw.Write(rec))
	require.NoError(t, fw.Close())
	return buf.Bytes()
}

func TestParquetForeignTypes(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "f.parquet", foreignParquet(t, true)))

	pc, err := Read(ctx, store, "f.parquet")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, pc.XYZ())
	assert.Equal(t, []string{"classification", "gps_time"}, pc.AttributeNames())

	class, _ := pc.Attribute("classification")
	assert.Equal(t, []float32{2, 6}, class)
	gps, _ := pc.Attribute("gps_time")
	assert.Equal(t, float32(10.5), gps[0])
	assert.True(t, math.IsNaN(float64(gps[1])))

	require.NoError(t, store.Put(ctx, "noz.parquet", foreignParquet(t, false)))
	_, err = Read(ctx, store, "noz.parquet")
	var inv *pcgo.ErrInvalidArgument
	require.ErrorAs(t, err, &inv)
}
