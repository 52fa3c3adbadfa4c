// Package pcgo provides in-memory point clouds with per-point attributes,
// linear and rigid transforms, and voxel grid downsampling.
//
// A PointCloud holds N points as one contiguous N×3 float32 buffer plus
// optional intensity, planar RGB channels and any number of named float32
// attribute columns, each of length N.
//
// # Quick Start
//
//	pc, _ := pcgo.FromXYZ([]float32{0, 0, 0, 1, 2, 3})
//	_ = pc.SetIntensity([]float32{0.1, 0.9})
//	_ = pc.AddAttribute("curvature", []float32{0.02, 0.3})
//
//	moved, _ := pc.RigidTransform(rotation, []float32{10, 0, 0})
//	thin, _ := moved.VoxelDownsample(0.05, pcgo.StrategyCentroid)
//
// # Engine
//
// The package-level methods run with defaults. An Engine carries the options
// that tune parallelism, randomness, resource limits, logging and metrics:
//
//	eng := pcgo.NewEngine(
//	    pcgo.WithWorkers(8),
//	    pcgo.WithSeed(42),
//	    pcgo.WithResourceController(resource.NewController(resource.Config{
//	        MemoryLimitBytes: 2 << 30,
//	    })),
//	)
//	thin, err := eng.VoxelDownsample(ctx, pc, 0.05, pcgo.StrategyRandom)
//
// Every operation returns a new cloud and never modifies or aliases its
// input. Attribute mutations happen in place and are all-or-nothing.
//
// # Downsampling
//
// StrategyRandom keeps one existing point per occupied voxel together with
// its own attributes. With WithSeed the selection is reproducible and does
// not depend on the worker count. StrategyCentroid emits the mean position
// of each voxel and reduces the other columns with the configured Reduction.
//
// # Persistence
//
// The format subpackage reads and writes CSV, Parquet, LAS 1.2 and the native
// columnar .pcg format through any blobstore.BlobStore (local disk, memory,
// S3, MinIO).
package pcgo
