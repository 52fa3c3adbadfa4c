package format

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/hupe1980/pcgo"
)

// Format identifies a file encoding.
type Format int

const (
	// Auto selects the format from the file extension.
	Auto Format = iota
	// CSV is delimited text.
	CSV
	// Parquet is Apache Parquet.
	Parquet
	// LAS is ASPRS LAS 1.2.
	LAS
	// LAZ is compressed LAS. It is detected but not supported.
	LAZ
	// Native is the pcgo columnar container (.pcg).
	Native
)

func (f Format) String() string {
	switch f {
	case Auto:
		return "auto"
	case CSV:
		return "csv"
	case Parquet:
		return "parquet"
	case LAS:
		return "las"
	case LAZ:
		return "laz"
	case Native:
		return "pcg"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat maps a format name or file extension (with or without the dot)
// to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".") {
	case "", "auto":
		return Auto, nil
	case "csv", "txt", "xyz":
		return CSV, nil
	case "parquet", "pq":
		return Parquet, nil
	case "las":
		return LAS, nil
	case "laz":
		return LAZ, nil
	case "pcg", "native":
		return Native, nil
	default:
		return Auto, fmt.Errorf("%w: %q", pcgo.ErrUnsupportedFormat, name)
	}
}

// FromExtension returns the format implied by the extension of name.
func FromExtension(name string) (Format, error) {
	ext := path.Ext(strings.ReplaceAll(name, "\\", "/"))
	if ext == "" {
		return Auto, fmt.Errorf("%w: %q has no extension", pcgo.ErrUnsupportedFormat, name)
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return Auto, err
	}
	return f, nil
}

func resolve(f Format, name string) (Format, error) {
	if f == Auto {
		var err error
		if f, err = FromExtension(name); err != nil {
			return Auto, err
		}
	}
	switch f {
	case CSV, Parquet, LAS, Native:
		return f, nil
	case LAZ:
		return f, fmt.Errorf("%w: LAZ compression is not supported, decompress to LAS first", pcgo.ErrUnsupportedFormat)
	default:
		return f, fmt.Errorf("%w: %v", pcgo.ErrUnsupportedFormat, f)
	}
}

// ErrCorrupt is returned when a file is truncated or fails its integrity checks.
var ErrCorrupt = errors.New("format: corrupt file")
