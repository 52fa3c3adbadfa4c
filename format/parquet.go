package format

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/hupe1980/pcgo"
	"github.com/hupe1980/pcgo/blobstore"
)

// parquetRowGroup is the number of points per Parquet row group.
const parquetRowGroup = 1 << 20

func writeParquet(ctx context.Context, w io.Writer, pc *pcgo.PointCloud, o *options) error {
	cols, err := toTable(pc, o)
	if err != nil {
		return err
	}

	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{Name: c.name, Type: arrow.PrimitiveTypes.Float32}
	}
	schema := arrow.NewSchema(fields, nil)

	pool := memory.NewGoAllocator()
	arrays := make([]arrow.Array, len(cols))
	for i, c := range cols {
		b := array.NewFloat32Builder(pool)
		b.AppendValues(c.values, nil)
		arrays[i] = b.NewArray()
		b.Release()
	}
	rec := array.NewRecord(schema, arrays, int64(pc.Len()))
	for _, a := range arrays {
		a.Release()
	}
	defer rec.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(o.parquetCompression),
		parquet.WithMaxRowGroupLength(parquetRowGroup),
	)
	fw, err := pqarrow.NewFileWriter(schema, w, props, pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(pool)))
	if err != nil {
		return fmt.Errorf("parquet writer: %w", err)
	}

	for off := int64(0); off < rec.NumRows(); off += parquetRowGroup {
		if err := ctx.Err(); err != nil {
			_ = fw.Close()
			return err
		}
		slice := rec.NewSlice(off, min(off+parquetRowGroup, rec.NumRows()))
		err := fw.Write(slice)
		slice.Release()
		if err != nil {
			_ = fw.Close()
			return fmt.Errorf("parquet row group at %d: %w", off, err)
		}
	}
	return fw.Close()
}

func readParquet(ctx context.Context, b blobstore.Blob, o *options) (*pcgo.PointCloud, error) {
	if err := o.controller.AcquireIO(ctx, int(b.Size())); err != nil {
		return nil, err
	}

	pf, err := file.NewParquetReader(blobstore.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("parquet: %w", err)
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{Parallel: true, BatchSize: 64 << 10}, memory.NewGoAllocator())
	if err != nil {
		return nil, fmt.Errorf("parquet: %w", err)
	}
	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("parquet: %w", err)
	}
	defer tbl.Release()

	reserved := make(map[string]bool, len(reservedOrder))
	for _, c := range reservedOrder {
		reserved[o.columnName(c)] = true
	}

	cols := make([]tableColumn, 0, tbl.NumCols())
	for i := 0; i < int(tbl.NumCols()); i++ {
		field := tbl.Schema().Field(i)
		values, ok := chunkedFloat32(tbl.Column(i).Data(), int(tbl.NumRows()))
		if !ok {
			if reserved[field.Name] {
				return nil, &pcgo.ErrInvalidArgument{Name: "columns", Value: field.Name, Reason: "column type " + field.Type.String() + " is not numeric"}
			}
			o.logger.DebugContext(ctx, "skipping non-numeric parquet column", "column", field.Name, "type", field.Type.String())
			continue
		}
		cols = append(cols, tableColumn{name: field.Name, values: values})
	}
	return fromTable(cols, o)
}

// chunkedFloat32 converts a numeric column to float32. Nulls become NaN.
func chunkedFloat32(c *arrow.Chunked, n int) ([]float32, bool) {
	out := make([]float32, 0, n)
	for _, chunk := range c.Chunks() {
		switch a := chunk.(type) {
		case *array.Float32:
			out = appendNumeric[float32](out, a)
		case *array.Float64:
			out = appendNumeric[float64](out, a)
		case *array.Int8:
			out = appendNumeric[int8](out, a)
		case *array.Int16:
			out = appendNumeric[int16](out, a)
		case *array.Int32:
			out = appendNumeric[int32](out, a)
		case *array.Int64:
			out = appendNumeric[int64](out, a)
		case *array.Uint8:
			out = appendNumeric[uint8](out, a)
		case *array.Uint16:
			out = appendNumeric[uint16](out, a)
		case *array.Uint32:
			out = appendNumeric[uint32](out, a)
		case *array.Uint64:
			out = appendNumeric[uint64](out, a)
		default:
			return nil, false
		}
	}
	return out, true
}

type number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

type numericArray[T number] interface {
	Len() int
	IsNull(i int) bool
	Value(i int) T
}

func appendNumeric[T number](dst []float32, a numericArray[T]) []float32 {
	nan := float32(math.NaN())
	for i := 0; i < a.Len(); i++ {
		if a.IsNull(i) {
			dst = append(dst, nan)
			continue
		}
		dst = append(dst, float32(a.Value(i)))
	}
	return dst
}
