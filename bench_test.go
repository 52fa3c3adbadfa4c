package pcgo

import (
	"context"
	"fmt"
	"testing"

	"github.com/hupe1980/pcgo/testutil"
)

func benchCloud(b *testing.B, n int) *PointCloud {
	b.Helper()
	rng := testutil.NewRNG(1)
	pc, err := FromXYZ(rng.ClusteredXYZ(n, 64, 500, 5))
	if err != nil {
		b.Fatal(err)
	}
	if err := pc.SetIntensity(rng.Scalars(n, 0, 1)); err != nil {
		b.Fatal(err)
	}
	if err := pc.AddAttribute("curvature", rng.Scalars(n, 0, 1)); err != nil {
		b.Fatal(err)
	}
	return pc
}

func BenchmarkRigidTransform(b *testing.B) {
	pc := benchCloud(b, 1_000_000)
	rot := [][]float32{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}}
	t := []float32{10, 20, 30}
	ctx := context.Background()

	for _, workers := range []int{1, 4, 8} {
		e := NewEngine(WithWorkers(workers))
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(pc.XYZ()) * 4))
			for b.Loop() {
				if _, err := e.RigidTransform(ctx, pc, rot, t); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkVoxelDownsample(b *testing.B) {
	pc := benchCloud(b, 1_000_000)
	e := NewEngine(WithSeed(1))
	ctx := context.Background()

	for _, s := range []Strategy{StrategyRandom, StrategyCentroid} {
		for _, size := range []float32{0.5, 5} {
			b.Run(fmt.Sprintf("%s/voxel=%g", s, size), func(b *testing.B) {
				b.ReportAllocs()
				for b.Loop() {
					if _, err := e.VoxelDownsample(ctx, pc, size, s); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
