// Package compress implements the block compression used for point cloud
// columns: LZ4 for fast round trips and zstd for archival ratios.
package compress

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type identifies a block compression algorithm.
type Type uint8

const (
	// None stores blocks verbatim.
	None Type = 0
	// LZ4 favours speed.
	LZ4 Type = 1
	// Zstd favours ratio.
	Zstd Type = 2
)

// DefaultBlockSize is the uncompressed size of a full block (16 MiB).
const DefaultBlockSize = 16 << 20

// HeaderSize is the size of the per-block header.
// Format: [RawSize uint32][StoredSize uint32][Data...]; StoredSize 0 means raw.
const HeaderSize = 8

var (
	// ErrCorrupt is returned when a block header or payload is inconsistent.
	ErrCorrupt = errors.New("compress: corrupt block")
	// ErrUnknownType is returned for unsupported compression identifiers.
	ErrUnknownType = errors.New("compress: unknown compression type")
)

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// ParseType maps a name ("none", "lz4", "zstd") to a Type.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd", "zstandard":
		return Zstd, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// EncodeBlock appends one framed block holding data to dst.
// Blocks that do not shrink below 90% of their raw size are stored verbatim.
func EncodeBlock(dst, data []byte, t Type) ([]byte, error) {
	if uint64(len(data)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("compress: block of %d bytes exceeds 4 GiB", len(data))
	}

	var packed []byte
	switch t {
	case None:
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		packed = buf[:n]
	case Zstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, err
		}
		packed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, ErrUnknownType
	}

	var hdr [HeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(data)))

	if len(packed) == 0 || float64(len(packed)) > float64(len(data))*0.9 {
		dst = append(dst, hdr[:]...)
		return append(dst, data...), nil
	}

	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(packed)))
	dst = append(dst, hdr[:]...)
	return append(dst, packed...), nil
}

// DecodeBlock decodes the block at the start of src into dst, which must be
// exactly the block's raw size. It returns the number of bytes of src consumed.
func DecodeBlock(dst, src []byte, t Type) (int, error) {
	raw, stored, err := blockHeader(src)
	if err != nil {
		return 0, err
	}
	if raw != len(dst) {
		return 0, fmt.Errorf("%w: raw size %d, want %d", ErrCorrupt, raw, len(dst))
	}

	if stored == 0 {
		if len(src) < HeaderSize+raw {
			return 0, ErrCorrupt
		}
		copy(dst, src[HeaderSize:HeaderSize+raw])
		return HeaderSize + raw, nil
	}

	if len(src) < HeaderSize+stored {
		return 0, ErrCorrupt
	}
	payload := src[HeaderSize : HeaderSize+stored]

	switch t {
	case LZ4:
		n, err := lz4.UncompressBlock(payload, dst)
		if err != nil {
			return 0, err
		}
		if n != raw {
			return 0, ErrCorrupt
		}
	case Zstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return 0, err
		}
		out, err := dec.DecodeAll(payload, dst[:0:raw])
		zstdDecoderPool.Put(dec)
		if err != nil {
			return 0, err
		}
		if len(out) != raw {
			return 0, ErrCorrupt
		}
		if raw > 0 && &out[0] != &dst[0] {
			copy(dst, out)
		}
	default:
		return 0, ErrUnknownType
	}

	return HeaderSize + stored, nil
}

// Decode fills dst from the sequence of blocks in src.
func Decode(dst, src []byte, t Type) error {
	for len(dst) > 0 {
		raw, _, err := blockHeader(src)
		if err != nil {
			return err
		}
		if raw > len(dst) || raw == 0 {
			return ErrCorrupt
		}
		n, err := DecodeBlock(dst[:raw], src, t)
		if err != nil {
			return err
		}
		dst = dst[raw:]
		src = src[n:]
	}
	return nil
}

func blockHeader(src []byte) (raw, stored int, err error) {
	if len(src) < HeaderSize {
		return 0, 0, fmt.Errorf("%w: block too small for header", ErrCorrupt)
	}
	return int(binary.LittleEndian.Uint32(src[0:])), int(binary.LittleEndian.Uint32(src[4:])), nil
}

// Writer frames everything written to it into compressed blocks.
type Writer struct {
	w         io.Writer
	t         Type
	blockSize int
	buffer    *bytes.Buffer
	scratch   []byte
	written   int64
}

// NewWriter creates a block writer. blockSize <= 0 selects DefaultBlockSize.
func NewWriter(w io.Writer, t Type, blockSize int) *Writer {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Writer{
		w:         w,
		t:         t,
		blockSize: blockSize,
		buffer:    bytes.NewBuffer(make([]byte, 0, min(blockSize, 1<<20))),
	}
}

// Write buffers p and flushes a block each time blockSize bytes are pending.
func (c *Writer) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		space := c.blockSize - c.buffer.Len()
		if space <= 0 {
			if err := c.Flush(); err != nil {
				return total, err
			}
			space = c.blockSize
		}

		n, _ := c.buffer.Write(p[:min(len(p), space)])
		total += n
		p = p[n:]
	}
	return total, nil
}

// Flush compresses and writes the pending block, if any.
func (c *Writer) Flush() error {
	if c.buffer.Len() == 0 {
		return nil
	}

	var err error
	c.scratch, err = EncodeBlock(c.scratch[:0], c.buffer.Bytes(), c.t)
	if err != nil {
		return err
	}

	n, err := c.w.Write(c.scratch)
	c.written += int64(n)
	if err != nil {
		return err
	}
	c.buffer.Reset()
	return nil
}

// Written returns the number of framed bytes emitted so far.
func (c *Writer) Written() int64 {
	return c.written
}
