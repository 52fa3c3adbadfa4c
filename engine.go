package pcgo

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Engine runs the parallel batch operations (transforms and voxel
// downsampling) on point clouds. An Engine holds no per-cloud state and is
// safe for concurrent use.
type Engine struct {
	opts options

	randMu sync.Mutex
}

// DefaultEngine backs the convenience methods on *PointCloud.
var DefaultEngine = NewEngine()

// NewEngine creates an engine configured by opts.
func NewEngine(optFns ...Option) *Engine {
	return &Engine{opts: applyOptions(optFns)}
}

// Workers returns the configured worker count.
func (e *Engine) Workers() int {
	return e.opts.workers
}

// seed draws one value from the injected random source.
func (e *Engine) seed() uint64 {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	return e.opts.rand.Uint64()
}

// span is a half-open point range [start, end).
type span struct {
	start, end int
}

// split partitions n points into at most e.opts.workers ranges of at least
// minChunk points each. It always returns at least one range.
func (e *Engine) split(n int) []span {
	chunks := (n + e.opts.minChunk - 1) / e.opts.minChunk
	chunks = max(1, min(chunks, e.opts.workers))

	spans := make([]span, chunks)
	size := n / chunks
	rem := n % chunks
	start := 0
	for i := range spans {
		end := start + size
		if i < rem {
			end++
		}
		spans[i] = span{start: start, end: end}
		start = end
	}
	return spans
}

// parallel runs fn once per range on its own goroutine. fn receives the index
// of its range so it can write to a per-range slot without locking.
func (e *Engine) parallel(ctx context.Context, spans []span, fn func(ctx context.Context, i int, s span) error) error {
	if len(spans) == 1 {
		if err := e.opts.controller.AcquireWorker(ctx); err != nil {
			return err
		}
		defer e.opts.controller.ReleaseWorker()
		return fn(ctx, 0, spans[0])
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.workers)
	for i, s := range spans {
		g.Go(func() error {
			if err := e.opts.controller.AcquireWorker(gctx); err != nil {
				return err
			}
			defer e.opts.controller.ReleaseWorker()
			return fn(gctx, i, s)
		})
	}
	return g.Wait()
}

// reserve admits bytes of working memory against the resource controller.
// The returned release func must be called once the operation finishes.
func (e *Engine) reserve(ctx context.Context, bytes int64) (func(), error) {
	if err := e.opts.controller.AcquireMemory(ctx, bytes); err != nil {
		return nil, fmt.Errorf("%w: reserve %d bytes: %w", ErrMemoryLimit, bytes, err)
	}
	return func() { e.opts.controller.ReleaseMemory(bytes) }, nil
}
