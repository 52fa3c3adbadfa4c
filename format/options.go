package format

import (
	"fmt"
	"strings"

	pqcompress "github.com/apache/arrow-go/v18/parquet/compress"

	"github.com/hupe1980/pcgo"
	"github.com/hupe1980/pcgo/internal/compress"
	"github.com/hupe1980/pcgo/resource"
)

// Compression selects the block compression of native files.
type Compression = compress.Type

// Native column compressions.
const (
	CompressionNone = compress.None
	CompressionLZ4  = compress.LZ4
	CompressionZstd = compress.Zstd
)

// ParseCompression maps "none", "lz4" or "zstd" to a Compression.
func ParseCompression(name string) (Compression, error) {
	return compress.ParseType(name)
}

// ParseParquetCompression maps a codec name to a Parquet compression.
func ParseParquetCompression(name string) (pqcompress.Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "snappy":
		return pqcompress.Codecs.Snappy, nil
	case "none", "uncompressed":
		return pqcompress.Codecs.Uncompressed, nil
	case "gzip":
		return pqcompress.Codecs.Gzip, nil
	case "zstd":
		return pqcompress.Codecs.Zstd, nil
	case "brotli":
		return pqcompress.Codecs.Brotli, nil
	case "lz4":
		return pqcompress.Codecs.Lz4Raw, nil
	default:
		return pqcompress.Codecs.Uncompressed, fmt.Errorf("unknown parquet compression %q", name)
	}
}

// DefaultLASScale is the coordinate resolution of written LAS files (1 mm).
const DefaultLASScale = 0.001

type options struct {
	format             Format
	delimiter          rune
	header             bool
	names              map[string]string
	compression        Compression
	parquetCompression pqcompress.Compression
	lasScale           float64
	controller         *resource.Controller
	logger             *pcgo.Logger
	metrics            pcgo.MetricsCollector
}

// Option configures a Read or Write call.
type Option func(*options)

// WithFormat overrides the extension-based format detection.
func WithFormat(f Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithDelimiter sets the CSV field delimiter. Defaults to ','.
func WithDelimiter(r rune) Option {
	return func(o *options) {
		if r != 0 {
			o.delimiter = r
		}
	}
}

// WithHeader makes CSV files carry a header row. Headerless files hold
// coordinates only.
func WithHeader(header bool) Option {
	return func(o *options) {
		o.header = header
	}
}

// WithColumnNames renames the reserved columns (x, y, z, intensity, r, g, b)
// in CSV headers and Parquet schemas, e.g. {"x": "X", "intensity": "Intensity"}.
func WithColumnNames(names map[string]string) Option {
	return func(o *options) {
		o.names = names
	}
}

// WithCompression sets the column compression of native files.
// Defaults to LZ4.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithParquetCompression sets the Parquet page compression. Defaults to Snappy.
func WithParquetCompression(c pqcompress.Compression) Option {
	return func(o *options) {
		o.parquetCompression = c
	}
}

// WithLASScale sets the coordinate resolution of written LAS files.
func WithLASScale(scale float64) Option {
	return func(o *options) {
		o.lasScale = scale
	}
}

// WithController applies the memory and IO limits of rc.
func WithController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithLogger configures structured logging. Pass nil to disable logging.
func WithLogger(logger *pcgo.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = pcgo.NoopLogger()
		}
		o.logger = logger
	}
}

// WithMetricsCollector records read and write metrics.
func WithMetricsCollector(mc pcgo.MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = pcgo.NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

func applyOptions(optFns []Option) *options {
	o := &options{
		delimiter:          ',',
		compression:        CompressionLZ4,
		parquetCompression: pqcompress.Codecs.Snappy,
		lasScale:           DefaultLASScale,
		logger:             pcgo.NoopLogger(),
		metrics:            pcgo.NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(o)
		}
	}
	return o
}

// columnName returns the file column name of a reserved column.
func (o *options) columnName(canonical string) string {
	if name, ok := o.names[canonical]; ok && name != "" {
		return name
	}
	return canonical
}

func (o *options) validateNames() error {
	seen := make(map[string]string, len(o.names))
	for canonical, name := range o.names {
		if !pcgo.IsReservedColumn(canonical) {
			return &pcgo.ErrInvalidArgument{Name: "column_names", Value: canonical, Reason: "only x, y, z, intensity, r, g and b can be renamed"}
		}
		if name == "" {
			continue
		}
		if other, dup := seen[name]; dup {
			return &pcgo.ErrInvalidArgument{Name: "column_names", Value: name, Reason: fmt.Sprintf("used for both %s and %s", other, canonical)}
		}
		seen[name] = canonical
	}
	return nil
}
