package format

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/pcgo"
	"github.com/hupe1980/pcgo/codec"
	"github.com/hupe1980/pcgo/internal/compress"
	"github.com/hupe1980/pcgo/internal/conv"
	"github.com/hupe1980/pcgo/internal/hash"
)

// Native file layout:
//
//	[header 64 bytes][column block]...[directory]
//
// The header is little endian:
//
//	0  magic "PCG0"      4  version uint16     6  flags uint16
//	8  codec id uint8    12 points uint64      20 columns uint32
//	24 dir offset uint64 32 dir length uint64  40 dir crc uint32
//	60 crc32c of bytes 0..59
//
// The directory is encoded with the codec named in the header and lists
// every column block with its own CRC32-C.
const (
	nativeMagic      = "PCG0"
	nativeVersion    = 1
	nativeHeaderSize = 64

	flagIntensity uint16 = 1 << 0
	flagRGB       uint16 = 1 << 1
)

// Column kinds in the directory.
const (
	kindCoordinate = "coordinate"
	kindIntensity  = "intensity"
	kindColor      = "color"
	kindAttribute  = "attribute"
)

// nativeChunk is the number of values converted per compressor write.
const nativeChunk = 64 << 10

type nativeHeader struct {
	Version   uint16
	Flags     uint16
	Codec     uint8
	Points    uint64
	Columns   uint32
	DirOffset uint64
	DirLength uint64
	DirCRC    uint32
}

func (h *nativeHeader) marshal() []byte {
	buf := make([]byte, nativeHeaderSize)
	copy(buf[0:4], nativeMagic)
	binary.LittleEndian.PutUint16(buf[4:], h.Version)
	binary.LittleEndian.PutUint16(buf[6:], h.Flags)
	buf[8] = h.Codec
	binary.LittleEndian.PutUint64(buf[12:], h.Points)
	binary.LittleEndian.PutUint32(buf[20:], h.Columns)
	binary.LittleEndian.PutUint64(buf[24:], h.DirOffset)
	binary.LittleEndian.PutUint64(buf[32:], h.DirLength)
	binary.LittleEndian.PutUint32(buf[40:], h.DirCRC)
	binary.LittleEndian.PutUint32(buf[60:], hash.CRC32C(buf[:60]))
	return buf
}

func parseNativeHeader(data []byte) (nativeHeader, error) {
	if len(data) < nativeHeaderSize {
		return nativeHeader{}, fmt.Errorf("%w: %d bytes is too short for a header", ErrCorrupt, len(data))
	}
	if string(data[0:4]) != nativeMagic {
		return nativeHeader{}, fmt.Errorf("%w: bad magic %q", ErrCorrupt, data[0:4])
	}
	if got, want := hash.CRC32C(data[:60]), binary.LittleEndian.Uint32(data[60:]); got != want {
		return nativeHeader{}, fmt.Errorf("%w: header checksum %08x, want %08x", ErrCorrupt, got, want)
	}
	h := nativeHeader{
		Version:   binary.LittleEndian.Uint16(data[4:]),
		Flags:     binary.LittleEndian.Uint16(data[6:]),
		Codec:     data[8],
		Points:    binary.LittleEndian.Uint64(data[12:]),
		Columns:   binary.LittleEndian.Uint32(data[20:]),
		DirOffset: binary.LittleEndian.Uint64(data[24:]),
		DirLength: binary.LittleEndian.Uint64(data[32:]),
		DirCRC:    binary.LittleEndian.Uint32(data[40:]),
	}
	if h.Version != nativeVersion {
		return nativeHeader{}, fmt.Errorf("%w: native version %d", pcgo.ErrUnsupportedFormat, h.Version)
	}
	return h, nil
}

type nativeDirectory struct {
	Points  int64          `json:"points"`
	Columns []nativeColumn `json:"columns"`
}

type nativeColumn struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Compression string `json:"compression"`
	Offset      int64  `json:"offset"`
	Stored      int64  `json:"stored"`
	Raw         int64  `json:"raw"`
	CRC         uint32 `json:"crc"`
}

type kindedColumn struct {
	name   string
	kind   string
	values []float32
}

func nativeColumns(pc *pcgo.PointCloud) []kindedColumn {
	all := pc.Columns()
	cols := []kindedColumn{
		{pcgo.ColumnX, kindCoordinate, all[pcgo.ColumnX]},
		{pcgo.ColumnY, kindCoordinate, all[pcgo.ColumnY]},
		{pcgo.ColumnZ, kindCoordinate, all[pcgo.ColumnZ]},
	}
	if v, err := pc.Intensity(); err == nil {
		cols = append(cols, kindedColumn{pcgo.ColumnIntensity, kindIntensity, v})
	}
	if r, g, b, err := pc.RGB(); err == nil {
		cols = append(cols,
			kindedColumn{pcgo.ColumnR, kindColor, r},
			kindedColumn{pcgo.ColumnG, kindColor, g},
			kindedColumn{pcgo.ColumnB, kindColor, b},
		)
	}
	for _, name := range pc.AttributeNames() {
		v, _ := pc.Attribute(name)
		cols = append(cols, kindedColumn{name, kindAttribute, v})
	}
	return cols
}

func writeNative(ctx context.Context, w io.Writer, pc *pcgo.PointCloud, o *options) error {
	if _, err := compress.ParseType(o.compression.String()); err != nil {
		return &pcgo.ErrInvalidArgument{Name: "compression", Value: o.compression}
	}
	release, err := reserve(ctx, o, pc.MemoryUsage())
	if err != nil {
		return err
	}
	defer release()

	cols := nativeColumns(pc)
	blocks := make([][]byte, len(cols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range cols {
		g.Go(func() error {
			var err error
			blocks[i], err = encodeColumn(gctx, c.values, o.compression)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	dir := nativeDirectory{Points: int64(pc.Len()), Columns: make([]nativeColumn, len(cols))}
	offset := int64(nativeHeaderSize)
	for i, c := range cols {
		dir.Columns[i] = nativeColumn{
			Name:        c.name,
			Kind:        c.kind,
			Compression: o.compression.String(),
			Offset:      offset,
			Stored:      int64(len(blocks[i])),
			Raw:         int64(4 * len(c.values)),
			CRC:         hash.CRC32C(blocks[i]),
		}
		offset += int64(len(blocks[i]))
	}

	id, err := codec.IDOf(codec.Default)
	if err != nil {
		return err
	}
	dirBytes, err := codec.Default.Marshal(dir)
	if err != nil {
		return fmt.Errorf("native directory: %w", err)
	}

	h := nativeHeader{
		Version:   nativeVersion,
		Codec:     id,
		Points:    uint64(pc.Len()),
		Columns:   uint32(len(cols)),
		DirOffset: uint64(offset),
		DirLength: uint64(len(dirBytes)),
		DirCRC:    hash.CRC32C(dirBytes),
	}
	if pc.HasIntensity() {
		h.Flags |= flagIntensity
	}
	if pc.HasRGB() {
		h.Flags |= flagRGB
	}

	if _, err := w.Write(h.marshal()); err != nil {
		return err
	}
	for _, block := range blocks {
		if _, err := w.Write(block); err != nil {
			return err
		}
	}
	_, err = w.Write(dirBytes)
	return err
}

func encodeColumn(ctx context.Context, values []float32, t compress.Type) ([]byte, error) {
	var buf bytes.Buffer
	cw := compress.NewWriter(&buf, t, 0)
	scratch := make([]byte, 4*min(len(values), nativeChunk))
	for start := 0; start < len(values); start += nativeChunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunk := values[start:min(start+nativeChunk, len(values))]
		raw := scratch[:4*len(chunk)]
		for i, v := range chunk {
			binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
		}
		if _, err := cw.Write(raw); err != nil {
			return nil, err
		}
	}
	if err := cw.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readNative(ctx context.Context, data []byte, o *options) (*pcgo.PointCloud, error) {
	h, err := parseNativeHeader(data)
	if err != nil {
		return nil, err
	}

	size := uint64(len(data))
	if h.DirOffset < nativeHeaderSize || h.DirOffset > size || h.DirLength > size-h.DirOffset {
		return nil, fmt.Errorf("%w: directory at %d+%d outside %d bytes", ErrCorrupt, h.DirOffset, h.DirLength, size)
	}
	dirBytes := data[h.DirOffset : h.DirOffset+h.DirLength]
	if got := hash.CRC32C(dirBytes); got != h.DirCRC {
		return nil, fmt.Errorf("%w: directory checksum %08x, want %08x", ErrCorrupt, got, h.DirCRC)
	}
	c, ok := codec.ByID(h.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: directory codec id %d", pcgo.ErrUnsupportedFormat, h.Codec)
	}
	var dir nativeDirectory
	if err := c.Unmarshal(dirBytes, &dir); err != nil {
		return nil, fmt.Errorf("%w: directory: %w", ErrCorrupt, err)
	}
	if uint64(dir.Points) != h.Points || len(dir.Columns) != int(h.Columns) {
		return nil, fmt.Errorf("%w: directory disagrees with header", ErrCorrupt)
	}
	if h.Points > math.MaxInt32*4 {
		return nil, &pcgo.ErrInvalidArgument{Name: "points", Value: h.Points, Reason: "too many points"}
	}
	n, err := conv.Uint64ToInt(h.Points)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	release, err := reserve(ctx, o, int64(n)*4*int64(len(dir.Columns)))
	if err != nil {
		return nil, err
	}
	defer release()

	values := make([][]float32, len(dir.Columns))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, col := range dir.Columns {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var err error
			values[i], err = decodeColumn(data, col, n)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return assembleNative(dir.Columns, values, n)
}

func decodeColumn(data []byte, col nativeColumn, n int) ([]float32, error) {
	if col.Offset < nativeHeaderSize || col.Stored < 0 || col.Offset > int64(len(data))-col.Stored {
		return nil, fmt.Errorf("%w: column %q at %d+%d outside file", ErrCorrupt, col.Name, col.Offset, col.Stored)
	}
	if col.Raw != int64(4*n) {
		return nil, fmt.Errorf("%w: column %q holds %d bytes, want %d", ErrCorrupt, col.Name, col.Raw, 4*n)
	}
	block := data[col.Offset : col.Offset+col.Stored]
	if got := hash.CRC32C(block); got != col.CRC {
		return nil, fmt.Errorf("%w: column %q checksum %08x, want %08x", ErrCorrupt, col.Name, got, col.CRC)
	}
	t, err := compress.ParseType(col.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: column %q: %w", pcgo.ErrUnsupportedFormat, col.Name, err)
	}

	raw := make([]byte, col.Raw)
	if err := compress.Decode(raw, block, t); err != nil {
		return nil, fmt.Errorf("%w: column %q: %w", ErrCorrupt, col.Name, err)
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return out, nil
}

func assembleNative(cols []nativeColumn, values [][]float32, n int) (*pcgo.PointCloud, error) {
	slots := map[string][]float32{}
	var attrs []int
	for i, col := range cols {
		switch col.Kind {
		case kindCoordinate, kindIntensity, kindColor:
			if !pcgo.IsReservedColumn(col.Name) {
				return nil, fmt.Errorf("%w: %s column named %q", ErrCorrupt, col.Kind, col.Name)
			}
			slots[col.Name] = values[i]
		case kindAttribute:
			attrs = append(attrs, i)
		default:
			return nil, fmt.Errorf("%w: column %q has unknown kind %q", ErrCorrupt, col.Name, col.Kind)
		}
	}

	xs, ys, zs := slots[pcgo.ColumnX], slots[pcgo.ColumnY], slots[pcgo.ColumnZ]
	if xs == nil || ys == nil || zs == nil {
		return nil, fmt.Errorf("%w: missing coordinate column", ErrCorrupt)
	}
	xyz := make([]float32, 3*n)
	for i := range n {
		xyz[3*i], xyz[3*i+1], xyz[3*i+2] = xs[i], ys[i], zs[i]
	}
	pc, err := pcgo.FromXYZ(xyz)
	if err != nil {
		return nil, err
	}
	if v, ok := slots[pcgo.ColumnIntensity]; ok {
		if err := pc.SetIntensity(v); err != nil {
			return nil, err
		}
	}
	if r, ok := slots[pcgo.ColumnR]; ok {
		if err := pc.SetRGB(r, slots[pcgo.ColumnG], slots[pcgo.ColumnB]); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
	}
	for _, i := range attrs {
		if err := pc.AddAttribute(cols[i].Name, values[i]); err != nil {
			return nil, err
		}
	}
	return pc, nil
}
