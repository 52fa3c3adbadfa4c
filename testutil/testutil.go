package testutil

import (
	"math"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniformRange fills dst with random values in range [minVal, maxVal).
func (r *RNG) FillUniformRange(dst []float32, minVal, maxVal float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := maxVal - minVal
	for i := range dst {
		dst[i] = minVal + r.rand.Float32()*span
	}
}

// UniformXYZ returns n points uniformly distributed in the cube [lo, hi)³ as
// a flat N×3 buffer.
func (r *RNG) UniformXYZ(n int, lo, hi float32) []float32 {
	xyz := make([]float32, 3*n)
	r.FillUniformRange(xyz, lo, hi)
	return xyz
}

// GaussianXYZ returns n points drawn from an isotropic normal distribution
// around the origin with standard deviation sigma.
func (r *RNG) GaussianXYZ(n int, sigma float32) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	xyz := make([]float32, 3*n)
	for i := range xyz {
		xyz[i] = float32(r.rand.NormFloat64()) * sigma
	}
	return xyz
}

// ClusteredXYZ returns n points grouped around clusters random centres inside
// [-extent, extent)³ with Gaussian spread. This resembles scanned surfaces
// better than uniform noise and yields dense voxels.
func (r *RNG) ClusteredXYZ(n, clusters int, extent, spread float32) []float32 {
	centres := r.UniformXYZ(clusters, -extent, extent)

	r.mu.Lock()
	defer r.mu.Unlock()

	xyz := make([]float32, 3*n)
	for i := range n {
		c := centres[3*(i%clusters) : 3*(i%clusters)+3]
		for a := range 3 {
			xyz[3*i+a] = c[a] + float32(r.rand.NormFloat64())*spread
		}
	}
	return xyz
}

// Scalars returns n values in [lo, hi), e.g. for intensity or a named attribute.
func (r *RNG) Scalars(n int, lo, hi float32) []float32 {
	values := make([]float32, n)
	r.FillUniformRange(values, lo, hi)
	return values
}

// RGB returns three colour channels with integral values in [0, 255].
func (r *RNG) RGB(n int) (red, green, blue []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	red, green, blue = make([]float32, n), make([]float32, n), make([]float32, n)
	for i := range n {
		red[i] = float32(r.rand.Intn(256))
		green[i] = float32(r.rand.Intn(256))
		blue[i] = float32(r.rand.Intn(256))
	}
	return red, green, blue
}

// WithNonFinite returns a copy of xyz with the coordinate at index i replaced
// by NaN.
func WithNonFinite(xyz []float32, i int) []float32 {
	out := make([]float32, len(xyz))
	copy(out, xyz)
	out[3*i] = float32(math.NaN())
	return out
}

// GridXYZ returns nx*ny*nz points placed at the centres of a regular grid of
// cells with edge step, starting at the origin. Downsampling the result with
// voxel size step yields exactly one point per input point.
func GridXYZ(nx, ny, nz int, step float32) []float32 {
	xyz := make([]float32, 0, 3*nx*ny*nz)
	for x := range nx {
		for y := range ny {
			for z := range nz {
				xyz = append(xyz,
					(float32(x)+0.5)*step,
					(float32(y)+0.5)*step,
					(float32(z)+0.5)*step,
				)
			}
		}
	}
	return xyz
}
