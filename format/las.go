package format

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/hupe1980/pcgo"
	"github.com/hupe1980/pcgo/blobstore"
	"github.com/hupe1980/pcgo/internal/conv"
	"github.com/hupe1980/pcgo/resource"
)

const (
	lasSignature  = "LASF"
	lasHeaderSize = 227
	// lasReturnFlags marks every point as return 1 of 1.
	lasReturnFlags = 0x09
	lasCheckEvery  = 1 << 16
)

// lasHeader is the LAS 1.2 public header block. Later versions append fields
// after it and point to the point data through PointDataOffset.
type lasHeader struct {
	Signature       [4]byte
	FileSourceID    uint16
	GlobalEncoding  uint16
	GUID            [16]byte
	VersionMajor    uint8
	VersionMinor    uint8
	SystemID        [32]byte
	Software        [32]byte
	CreationDay     uint16
	CreationYear    uint16
	HeaderSize      uint16
	PointDataOffset uint32
	NumVLRs         uint32
	PointFormat     uint8
	PointRecordLen  uint16
	PointCount      uint32
	PointsByReturn  [5]uint32
	Scale           [3]float64
	Offset          [3]float64
	MaxX, MinX      float64
	MaxY, MinY      float64
	MaxZ, MinZ      float64
}

// Minimum record length per point data format.
var lasRecordLen = map[uint8]int{0: 20, 1: 28, 2: 26, 3: 34}

// lasRGBOffset is where colour starts in formats 2 and 3.
var lasRGBOffset = map[uint8]int{2: 20, 3: 28}

func writeLAS(ctx context.Context, w io.Writer, pc *pcgo.PointCloud, o *options) error {
	n := pc.Len()
	if n == 0 {
		return fmt.Errorf("las: %w", pcgo.ErrEmptyCloud)
	}
	count, err := conv.IntToUint32(n)
	if err != nil {
		return &pcgo.ErrInvalidArgument{Name: "points", Value: n, Reason: "LAS 1.2 holds at most 2^32-1 points"}
	}
	scale := o.lasScale
	if !(scale > 0) || math.IsInf(scale, 0) {
		return &pcgo.ErrInvalidArgument{Name: "las_scale", Value: scale, Reason: "must be positive and finite"}
	}

	xyz := pc.XYZ()
	for i, v := range xyz {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return &pcgo.ErrInvalidArgument{Name: "xyz", Value: i / 3, Reason: "LAS cannot store non-finite coordinates"}
		}
	}
	lo, hi, _ := pc.Bounds()
	min3 := [3]float64{lo.X, lo.Y, lo.Z}
	max3 := [3]float64{hi.X, hi.Y, hi.Z}

	h := lasHeader{
		VersionMajor:    1,
		VersionMinor:    2,
		HeaderSize:      lasHeaderSize,
		PointDataOffset: lasHeaderSize,
		PointFormat:     0,
		PointRecordLen:  uint16(lasRecordLen[0]),
		PointCount:      count,
		Scale:           [3]float64{scale, scale, scale},
		MaxX:            hi.X,
		MinX:            lo.X,
		MaxY:            hi.Y,
		MinY:            lo.Y,
		MaxZ:            hi.Z,
		MinZ:            lo.Z,
	}
	copy(h.Signature[:], lasSignature)
	copy(h.SystemID[:], "pcgo")
	copy(h.Software[:], "pcgo format")
	now := time.Now().UTC()
	h.CreationDay, h.CreationYear = uint16(now.YearDay()), uint16(now.Year())
	h.PointsByReturn[0] = count
	for axis := range 3 {
		h.Offset[axis] = math.Floor(min3[axis]/scale) * scale
		if (max3[axis]-h.Offset[axis])/scale > math.MaxInt32 {
			return &pcgo.ErrInvalidArgument{Name: "las_scale", Value: scale, Reason: "extent does not fit 32-bit coordinates at this scale"}
		}
	}

	rgb, rgbErr := pc.RGB8()
	if rgbErr == nil {
		h.PointFormat = 2
		h.PointRecordLen = uint16(lasRecordLen[2])
	}
	intensity, _ := pc.Intensity()

	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return err
	}

	rec := make([]byte, h.PointRecordLen)
	for i := range n {
		if i%lasCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for axis := range 3 {
			q, err := conv.Quantize(float64(xyz[3*i+axis]), h.Offset[axis], scale)
			if err != nil {
				return &pcgo.ErrInvalidArgument{Name: "las_scale", Value: scale, Reason: err.Error()}
			}
			binary.LittleEndian.PutUint32(rec[4*axis:], uint32(q))
		}
		var raw uint16
		if intensity != nil {
			raw = lasIntensity(intensity[i])
		}
		binary.LittleEndian.PutUint16(rec[12:], raw)
		rec[14] = lasReturnFlags
		if rgb != nil {
			binary.LittleEndian.PutUint16(rec[20:], uint16(rgb[i][0])<<8)
			binary.LittleEndian.PutUint16(rec[22:], uint16(rgb[i][1])<<8)
			binary.LittleEndian.PutUint16(rec[24:], uint16(rgb[i][2])<<8)
		}
		if _, err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// lasIntensity maps [0, 1] onto the full 16-bit range. Rounding makes it the
// exact inverse of the read scaling raw/65535.
func lasIntensity(v float32) uint16 {
	f := math.Round(float64(v) * 65535)
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= 65535:
		return 65535
	default:
		return uint16(f)
	}
}

func readLAS(ctx context.Context, b blobstore.Blob, o *options) (*pcgo.PointCloud, error) {
	var h lasHeader
	if err := binary.Read(io.NewSectionReader(b, 0, b.Size()), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: las header: %w", ErrCorrupt, err)
	}
	if string(h.Signature[:]) != lasSignature {
		return nil, fmt.Errorf("%w: missing LASF signature", ErrCorrupt)
	}
	if h.PointFormat&0xC0 != 0 {
		return nil, fmt.Errorf("%w: LAZ compressed point data", pcgo.ErrUnsupportedFormat)
	}
	minLen, ok := lasRecordLen[h.PointFormat]
	if !ok {
		return nil, fmt.Errorf("%w: LAS point format %d", pcgo.ErrUnsupportedFormat, h.PointFormat)
	}
	recLen := int64(h.PointRecordLen)
	if recLen < int64(minLen) || h.PointDataOffset < lasHeaderSize {
		return nil, fmt.Errorf("%w: las record length %d, data offset %d", ErrCorrupt, recLen, h.PointDataOffset)
	}

	count, err := lasPointCount(b, &h)
	if err != nil {
		return nil, err
	}
	if int64(h.PointDataOffset)+int64(count)*recLen > b.Size() {
		return nil, fmt.Errorf("%w: %d points do not fit in %d bytes", ErrCorrupt, count, b.Size())
	}
	n, err := conv.Uint64ToInt(count)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	rgbOff, hasRGB := lasRGBOffset[h.PointFormat]
	perPoint := int64(16)
	if hasRGB {
		perPoint += 12
	}
	release, err := reserve(ctx, o, int64(n)*perPoint)
	if err != nil {
		return nil, err
	}
	defer release()

	section := io.NewSectionReader(b, int64(h.PointDataOffset), int64(count)*recLen)
	r := bufio.NewReaderSize(resource.NewRateLimitedReader(ctx, section, o.controller), 1<<20)

	xyz := make([]float32, 3*n)
	intensity := make([]float32, n)
	var red, green, blue []float32
	if hasRGB {
		red, green, blue = make([]float32, n), make([]float32, n), make([]float32, n)
	}

	rec := make([]byte, recLen)
	for i := range n {
		if i%lasCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if _, err := io.ReadFull(r, rec); err != nil {
			return nil, fmt.Errorf("%w: las point %d: %w", ErrCorrupt, i, err)
		}
		for axis := range 3 {
			q := int32(binary.LittleEndian.Uint32(rec[4*axis:]))
			xyz[3*i+axis] = float32(float64(q)*h.Scale[axis] + h.Offset[axis])
		}
		intensity[i] = float32(binary.LittleEndian.Uint16(rec[12:])) / 65535
		if hasRGB {
			red[i] = float32(binary.LittleEndian.Uint16(rec[rgbOff:]) >> 8)
			green[i] = float32(binary.LittleEndian.Uint16(rec[rgbOff+2:]) >> 8)
			blue[i] = float32(binary.LittleEndian.Uint16(rec[rgbOff+4:]) >> 8)
		}
	}

	if hasRGB {
		return pcgo.FromXYZIntensityRGB(xyz, intensity, red, green, blue)
	}
	return pcgo.FromXYZIntensity(xyz, intensity)
}

// lasPointCount returns the legacy point count, or the 64-bit count LAS 1.4
// files store after the 1.3 extension when the legacy field is zero.
func lasPointCount(b blobstore.Blob, h *lasHeader) (uint64, error) {
	const extendedCountAt = 247
	if h.PointCount != 0 || h.VersionMinor < 4 || h.HeaderSize < extendedCountAt+8 {
		return uint64(h.PointCount), nil
	}
	var buf [8]byte
	if _, err := b.ReadAt(buf[:], extendedCountAt); err != nil {
		return 0, fmt.Errorf("%w: las 1.4 point count: %w", ErrCorrupt, err)
	}
	count := binary.LittleEndian.Uint64(buf[:])
	if count > math.MaxInt32*4 {
		return 0, &pcgo.ErrInvalidArgument{Name: "points", Value: count, Reason: "too many points"}
	}
	return count, nil
}
