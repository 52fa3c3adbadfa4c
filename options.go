package pcgo

import (
	"log/slog"
	"math/rand/v2"
	"runtime"

	"github.com/hupe1980/pcgo/resource"
)

// defaultMinChunk is the smallest per-worker point range; below it the
// scheduling overhead outweighs the parallel speedup.
const defaultMinChunk = 64 * 1024

type options struct {
	workers          int
	minChunk         int
	rand             rand.Source
	controller       *resource.Controller
	reduction        Reduction
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures an Engine.
type Option func(*options)

// WithWorkers sets the number of parallel chunk workers per operation.
// Values <= 0 select runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithMinChunkSize sets the minimum number of points handed to one worker.
// Small clouds therefore run on a single goroutine.
func WithMinChunkSize(points int) Option {
	return func(o *options) {
		if points > 0 {
			o.minChunk = points
		}
	}
}

// WithSeed makes random voxel selection reproducible.
//
// Example:
//
//	eng := pcgo.NewEngine(pcgo.WithSeed(42))
//	a, _ := eng.VoxelDownsample(ctx, pc, 0.1, pcgo.StrategyRandom)
//	b, _ := pcgo.NewEngine(pcgo.WithSeed(42)).VoxelDownsample(ctx, pc, 0.1, pcgo.StrategyRandom)
//	// a and b hold the same points.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.rand = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	}
}

// WithRandSource injects the source of randomness used by StrategyRandom.
// The engine serializes access to src.
func WithRandSource(src rand.Source) Option {
	return func(o *options) {
		if src != nil {
			o.rand = src
		}
	}
}

// WithResourceController shares memory and worker limits with other engines.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithReduction selects how StrategyCentroid reduces intensity, colour and
// named attributes. Coordinates are always averaged. Defaults to ReduceMean.
func WithReduction(r Reduction) Option {
	return func(o *options) {
		o.reduction = r
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &pcgo.BasicMetricsCollector{}
//	eng := pcgo.NewEngine(pcgo.WithMetricsCollector(metrics))
//	// ... use eng ...
//	stats := metrics.GetStats()
//	fmt.Printf("Downsamples: %d, ratio: %.2f\n", stats.DownsampleCount, stats.DownsampleRatio)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := pcgo.NewJSONLogger(slog.LevelDebug)
//	eng := pcgo.NewEngine(pcgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		minChunk:         defaultMinChunk,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.workers <= 0 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	if o.rand == nil {
		o.rand = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return o
}
