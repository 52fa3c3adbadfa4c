package main

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"

	"github.com/hupe1980/pcgo"
	"github.com/hupe1980/pcgo/format"
	"github.com/hupe1980/pcgo/observability"
	"github.com/hupe1980/pcgo/resource"
)

// app holds the state shared by every subcommand of one invocation.
type app struct {
	v      *viper.Viper
	runID  string
	zl     *zap.Logger
	logger *pcgo.Logger

	metrics  pcgo.MetricsCollector
	basic    *pcgo.BasicMetricsCollector
	registry *prometheus.Registry

	rc *resource.Controller
}

func (a *app) setup(cmd *cobra.Command) error {
	v, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a.v = v

	zl, err := newZapLogger(v.GetString("log-level"), v.GetString("log-format"))
	if err != nil {
		return err
	}
	a.runID = uuid.NewString()
	a.zl = zl.With(zap.String("run_id", a.runID))
	a.logger = pcgo.NewLogger(zapslog.NewHandler(a.zl.Core()))

	if v.GetString("metrics-textfile") != "" {
		a.registry = prometheus.NewRegistry()
		collector, err := observability.NewPrometheusCollector(a.registry, "")
		if err != nil {
			return err
		}
		a.metrics = collector
	} else {
		a.basic = &pcgo.BasicMetricsCollector{}
		a.metrics = a.basic
	}

	mem, ioLimit := v.GetInt64("memory-limit"), v.GetInt64("io-limit")
	if mem < 0 || ioLimit < 0 {
		return fmt.Errorf("memory-limit and io-limit must not be negative")
	}
	a.rc = resource.NewController(resource.Config{
		MemoryLimitBytes:   mem,
		IOLimitBytesPerSec: ioLimit,
	})

	return nil
}

func (a *app) close() error {
	if a.zl == nil {
		return nil
	}
	defer func() { _ = a.zl.Sync() }()

	if a.registry != nil {
		path := a.v.GetString("metrics-textfile")
		if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		a.zl.Debug("metrics written", zap.String("path", path))
		return nil
	}

	s := a.basic.GetStats()
	a.zl.Debug("run finished",
		zap.Int64("reads", s.ReadCount),
		zap.Int64("writes", s.WriteCount),
		zap.Int64("transforms", s.TransformCount),
		zap.Int64("downsamples", s.DownsampleCount),
	)
	return nil
}

// engine returns an Engine configured from the global flags plus extra.
func (a *app) engine(extra ...pcgo.Option) *pcgo.Engine {
	opts := []pcgo.Option{
		pcgo.WithWorkers(a.v.GetInt("workers")),
		pcgo.WithResourceController(a.rc),
		pcgo.WithLogger(a.logger),
		pcgo.WithMetricsCollector(a.metrics),
	}
	return pcgo.NewEngine(append(opts, extra...)...)
}

func (a *app) baseFormatOptions() ([]format.Option, error) {
	delim := a.v.GetString("delimiter")
	if utf8.RuneCountInString(delim) != 1 {
		return nil, fmt.Errorf("delimiter must be a single character, got %q", delim)
	}
	r, _ := utf8.DecodeRuneInString(delim)

	return []format.Option{
		format.WithDelimiter(r),
		format.WithHeader(a.v.GetBool("header")),
		format.WithController(a.rc),
		format.WithLogger(a.logger),
		format.WithMetricsCollector(a.metrics),
	}, nil
}

func (a *app) readOptions() ([]format.Option, error) {
	opts, err := a.baseFormatOptions()
	if err != nil {
		return nil, err
	}
	f, err := format.ParseFormat(a.v.GetString("input-format"))
	if err != nil {
		return nil, err
	}
	return append(opts, format.WithFormat(f)), nil
}

func (a *app) writeOptions() ([]format.Option, error) {
	opts, err := a.baseFormatOptions()
	if err != nil {
		return nil, err
	}
	f, err := format.ParseFormat(a.v.GetString("format"))
	if err != nil {
		return nil, err
	}
	c, err := format.ParseCompression(a.v.GetString("compression"))
	if err != nil {
		return nil, err
	}
	pq, err := format.ParseParquetCompression(a.v.GetString("parquet-compression"))
	if err != nil {
		return nil, err
	}
	return append(opts,
		format.WithFormat(f),
		format.WithCompression(c),
		format.WithParquetCompression(pq),
		format.WithLASScale(a.v.GetFloat64("las-scale")),
	), nil
}

func (a *app) read(ctx context.Context, location string) (*pcgo.PointCloud, error) {
	opts, err := a.readOptions()
	if err != nil {
		return nil, err
	}
	store, name, err := a.openStore(ctx, location)
	if err != nil {
		return nil, err
	}
	pc, err := format.Read(ctx, store, name, opts...)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	a.zl.Info("read point cloud", zap.String("location", location), zap.Int("points", pc.Len()))
	return pc, nil
}

func (a *app) write(ctx context.Context, location string, pc *pcgo.PointCloud) error {
	opts, err := a.writeOptions()
	if err != nil {
		return err
	}
	store, name, err := a.openStore(ctx, location)
	if err != nil {
		return err
	}
	if err := format.Write(ctx, store, name, pc, opts...); err != nil {
		return fmt.Errorf("write %s: %w", location, err)
	}
	a.zl.Info("wrote point cloud", zap.String("location", location), zap.Int("points", pc.Len()))
	return nil
}

func newZapLogger(level, encoding string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.MessageKey = "message"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.StringDurationEncoder

	encoding = strings.ToLower(encoding)
	switch encoding {
	case "console":
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json":
	default:
		return nil, fmt.Errorf("invalid log format %q", encoding)
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         encoding,
		EncoderConfig:    enc,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return cfg.Build()
}
