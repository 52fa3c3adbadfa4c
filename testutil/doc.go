// Package testutil provides testing utilities for pcgo.
//
// This package is intended for use in tests and benchmarks only. It returns
// raw buffers rather than point clouds so any package, including the root
// package's own tests, can use it without an import cycle.
//
// # Random Clouds
//
//	rng := testutil.NewRNG(seed)
//	xyz := rng.UniformXYZ(1_000_000, -50, 50) // flat N×3 buffer
//	pc, _ := pcgo.FromXYZ(xyz)
//	_ = pc.SetIntensity(rng.Scalars(pc.Len(), 0, 1))
//
// # Deterministic Grids
//
//	xyz := testutil.GridXYZ(10, 10, 10, 1.0) // one point per unit voxel
package testutil
