package pcgo

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/pcgo/internal/mem"
)

// Strategy selects how a voxel's members are reduced to one output point.
type Strategy int

const (
	// StrategyRandom keeps one member of each voxel with all its attributes.
	// The choice is a pseudo-random function of the engine seed and the point
	// index, so a seeded engine always keeps the same points.
	StrategyRandom Strategy = iota

	// StrategyCentroid emits the mean of each voxel's members. Attributes are
	// reduced according to the engine's Reduction.
	StrategyCentroid
)

func (s Strategy) String() string {
	switch s {
	case StrategyRandom:
		return "random"
	case StrategyCentroid:
		return "centroid"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses "random" or "centroid" (case-insensitive).
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "random":
		return StrategyRandom, nil
	case "centroid":
		return StrategyCentroid, nil
	default:
		return 0, &ErrInvalidArgument{Name: "strategy", Value: s, Reason: "expected random or centroid"}
	}
}

// Reduction selects how StrategyCentroid reduces non-coordinate columns.
type Reduction int

const (
	// ReduceMean averages every column across the voxel's members.
	ReduceMean Reduction = iota
	// ReduceFirst keeps the value of the voxel's lowest-index member.
	ReduceFirst
)

func (r Reduction) String() string {
	switch r {
	case ReduceMean:
		return "mean"
	case ReduceFirst:
		return "first"
	default:
		return fmt.Sprintf("Reduction(%d)", int(r))
	}
}

// ParseReduction parses "mean" or "first" (case-insensitive).
func ParseReduction(s string) (Reduction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mean":
		return ReduceMean, nil
	case "first":
		return ReduceFirst, nil
	default:
		return 0, &ErrInvalidArgument{Name: "reduction", Value: s, Reason: "expected mean or first"}
	}
}

// maxVoxelCoord bounds voxel grid coordinates so they convert to int64 exactly.
const maxVoxelCoord = 1 << 62

// cancelCheckInterval is how many points a worker processes between
// context checks.
const cancelCheckInterval = 1 << 16

type voxelKey struct {
	x, y, z int64
}

func voxelKeyOf(p []float32, i int, size float64) (voxelKey, error) {
	var k [3]int64
	for a := 0; a < 3; a++ {
		v := float64(p[a])
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return voxelKey{}, &ErrInvalidArgument{Name: "xyz", Value: i, Reason: "non-finite coordinate"}
		}
		f := math.Floor(v / size)
		if f > maxVoxelCoord || f < -maxVoxelCoord {
			return voxelKey{}, &ErrInvalidArgument{Name: "voxel_size", Value: size, Reason: "voxel grid exceeds int64 range"}
		}
		k[a] = int64(f)
	}
	return voxelKey{k[0], k[1], k[2]}, nil
}

// VoxelDownsample partitions the cloud into cubic voxels of edge voxelSize
// and emits one point per non-empty voxel according to strategy.
//
// The output never aliases the input and holds the same attribute set. An
// empty cloud yields an empty clone. voxelSize must be positive and finite,
// and every coordinate must be finite.
func (e *Engine) VoxelDownsample(ctx context.Context, pc *PointCloud, voxelSize float32, strategy Strategy) (*PointCloud, error) {
	start := time.Now()

	out, err := e.voxelDownsample(ctx, pc, voxelSize, strategy)

	outLen := 0
	if out != nil {
		outLen = out.Len()
	}
	elapsed := time.Since(start)
	e.opts.metricsCollector.RecordDownsample(strategy, pc.Len(), outLen, elapsed, err)
	e.opts.logger.LogDownsample(ctx, strategy, voxelSize, pc.Len(), outLen, elapsed, err)
	return out, err
}

func (e *Engine) voxelDownsample(ctx context.Context, pc *PointCloud, voxelSize float32, strategy Strategy) (*PointCloud, error) {
	size := float64(voxelSize)
	if !(size > 0) || math.IsInf(size, 0) {
		return nil, &ErrInvalidArgument{Name: "voxel_size", Value: voxelSize, Reason: "must be positive and finite"}
	}
	if strategy != StrategyRandom && strategy != StrategyCentroid {
		return nil, &ErrInvalidArgument{Name: "strategy", Value: strategy}
	}
	if pc.IsEmpty() {
		return pc.Clone(), nil
	}

	switch strategy {
	case StrategyRandom:
		return e.downsampleRandom(ctx, pc, size)
	default:
		return e.downsampleCentroid(ctx, pc, size)
	}
}

// randomPick is the current representative of a voxel.
type randomPick struct {
	priority uint64
	index    int
}

func (a randomPick) less(b randomPick) bool {
	return a.priority < b.priority || (a.priority == b.priority && a.index < b.index)
}

func (e *Engine) downsampleRandom(ctx context.Context, pc *PointCloud, size float64) (*PointCloud, error) {
	n := pc.Len()
	if int64(n) > math.MaxUint32 {
		return nil, &ErrInvalidArgument{Name: "xyz", Value: n, Reason: "random selection supports at most 2^32 points"}
	}

	// Map entries plus the output cloud.
	release, err := e.reserve(ctx, int64(n)*48+pc.MemoryUsage())
	if err != nil {
		return nil, err
	}
	defer release()

	seed := e.seed()
	spans := e.split(n)
	partials := make([]map[voxelKey]randomPick, len(spans))

	err = e.parallel(ctx, spans, func(ctx context.Context, w int, s span) error {
		picks := make(map[voxelKey]randomPick)
		for i := s.start; i < s.end; i++ {
			if (i-s.start)%cancelCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			key, err := voxelKeyOf(pc.xyz[3*i:3*i+3], i, size)
			if err != nil {
				return err
			}
			cand := randomPick{priority: mix64(seed, uint64(i)), index: i}
			if cur, ok := picks[key]; !ok || cand.less(cur) {
				picks[key] = cand
			}
		}
		partials[w] = picks
		return nil
	})
	if err != nil {
		return nil, err
	}

	merged := partials[0]
	for _, p := range partials[1:] {
		for key, cand := range p {
			if cur, ok := merged[key]; !ok || cand.less(cur) {
				merged[key] = cand
			}
		}
	}

	selected := roaring.New()
	for _, pick := range merged {
		selected.Add(uint32(pick.index))
	}
	return pc.Subset(selected)
}

// voxelSums accumulates one worker's (or the merged) per-voxel state in
// struct-of-arrays form. sums holds stride values per voxel: x, y, z, then one
// per reduced column.
type voxelSums struct {
	slots  map[voxelKey]int
	first  []int
	count  []int64
	sums   []float64
	stride int
}

func newVoxelSums(stride, hint int) *voxelSums {
	return &voxelSums{
		slots:  make(map[voxelKey]int, hint),
		stride: stride,
	}
}

func (v *voxelSums) slot(key voxelKey, first int) int {
	s, ok := v.slots[key]
	if !ok {
		s = len(v.first)
		v.slots[key] = s
		v.first = append(v.first, first)
		v.count = append(v.count, 0)
		v.sums = append(v.sums, make([]float64, v.stride)...)
	}
	return s
}

// merge folds o into v. Sums and counts are added and the first member is the
// minimum index, so the result does not depend on merge order.
func (v *voxelSums) merge(o *voxelSums) {
	for key, os := range o.slots {
		s := v.slot(key, o.first[os])
		v.first[s] = min(v.first[s], o.first[os])
		v.count[s] += o.count[os]
		dst := v.sums[s*v.stride : (s+1)*v.stride]
		for a, x := range o.sums[os*o.stride : (os+1)*o.stride] {
			dst[a] += x
		}
	}
}

func (e *Engine) downsampleCentroid(ctx context.Context, pc *PointCloud, size float64) (*PointCloud, error) {
	n := pc.Len()
	cols := pc.scalarColumns()
	mean := e.opts.reduction != ReduceFirst
	var reduced []column
	if mean {
		reduced = cols
	}
	stride := 3 + len(reduced)

	// Accumulators may hold one slot per point in the worst case.
	release, err := e.reserve(ctx, int64(n)*int64(stride*8+40)+pc.MemoryUsage())
	if err != nil {
		return nil, err
	}
	defer release()

	spans := e.split(n)
	partials := make([]*voxelSums, len(spans))

	err = e.parallel(ctx, spans, func(ctx context.Context, w int, s span) error {
		acc := newVoxelSums(stride, 0)
		for i := s.start; i < s.end; i++ {
			if (i-s.start)%cancelCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			p := pc.xyz[3*i : 3*i+3]
			key, err := voxelKeyOf(p, i, size)
			if err != nil {
				return err
			}
			slot := acc.slot(key, i)
			acc.count[slot]++
			sums := acc.sums[slot*stride : (slot+1)*stride]
			sums[0] += float64(p[0])
			sums[1] += float64(p[1])
			sums[2] += float64(p[2])
			for c, col := range reduced {
				sums[3+c] += float64(col.values[i])
			}
		}
		partials[w] = acc
		return nil
	})
	if err != nil {
		return nil, err
	}

	merged := partials[0]
	for _, p := range partials[1:] {
		merged.merge(p)
	}

	// Emit voxels in the order of their first member.
	m := len(merged.first)
	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		return merged.first[a] - merged.first[b]
	})

	xyz := mem.AllocAlignedFloat32(3 * m)
	outCols := make([][]float32, len(cols))
	for c := range outCols {
		outCols[c] = make([]float32, m)
	}
	for j, s := range order {
		cnt := float64(merged.count[s])
		sums := merged.sums[s*stride : (s+1)*stride]
		xyz[3*j] = float32(sums[0] / cnt)
		xyz[3*j+1] = float32(sums[1] / cnt)
		xyz[3*j+2] = float32(sums[2] / cnt)
		if !mean {
			first := merged.first[s]
			for c, col := range cols {
				outCols[c][j] = col.values[first]
			}
			continue
		}
		for c := range cols {
			outCols[c][j] = float32(sums[3+c] / cnt)
		}
	}

	out := newPointCloud(m, xyz)
	for c, col := range cols {
		if err := out.setColumn(col, outCols[c]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// mix64 hashes (seed, i) with the SplitMix64 finalizer.
func mix64(seed, i uint64) uint64 {
	z := seed + (i+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// VoxelDownsample reduces the cloud using DefaultEngine.
func (pc *PointCloud) VoxelDownsample(voxelSize float32, strategy Strategy) (*PointCloud, error) {
	return DefaultEngine.VoxelDownsample(context.Background(), pc, voxelSize, strategy)
}
