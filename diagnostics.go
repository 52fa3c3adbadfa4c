package pcgo

import (
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r3"
)

// MemoryUsage returns the payload size in bytes: 12 bytes of coordinates per
// point plus 4 bytes per point for every scalar column (intensity, each colour
// channel and each named attribute). It is recomputed on every call.
func (pc *PointCloud) MemoryUsage() int64 {
	n := int64(pc.n)
	cols := int64(pc.attrs.Count())
	if pc.HasIntensity() {
		cols++
	}
	if pc.HasRGB() {
		cols += 3
	}
	return n*12 + n*4*cols
}

// String returns a one-line summary such as
// "PointCloud(points=3, intensity=yes, rgb=no, attributes=[a b])".
func (pc *PointCloud) String() string {
	return fmt.Sprintf("PointCloud(points=%d, intensity=%s, rgb=%s, attributes=[%s])",
		pc.n, yesNo(pc.HasIntensity()), yesNo(pc.HasRGB()), strings.Join(pc.AttributeNames(), " "))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Bounds returns the axis-aligned bounding box of all points. ok is false for
// an empty cloud. Non-finite coordinates are skipped.
func (pc *PointCloud) Bounds() (lo, hi r3.Vector, ok bool) {
	lo = r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi = r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for i := 0; i < pc.n; i++ {
		p, finite := pc.vector(i)
		if !finite {
			continue
		}
		ok = true
		lo = r3.Vector{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vector{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	if !ok {
		return r3.Vector{}, r3.Vector{}, false
	}
	return lo, hi, true
}

// Centroid returns the mean of all finite points.
func (pc *PointCloud) Centroid() (r3.Vector, bool) {
	var sum r3.Vector
	count := 0
	for i := 0; i < pc.n; i++ {
		p, finite := pc.vector(i)
		if !finite {
			continue
		}
		sum = sum.Add(p)
		count++
	}
	if count == 0 {
		return r3.Vector{}, false
	}
	return sum.Mul(1 / float64(count)), true
}

func (pc *PointCloud) vector(i int) (r3.Vector, bool) {
	v := r3.Vector{X: float64(pc.xyz[3*i]), Y: float64(pc.xyz[3*i+1]), Z: float64(pc.xyz[3*i+2])}
	finite := !math.IsNaN(v.X+v.Y+v.Z) && !math.IsInf(v.X+v.Y+v.Z, 0)
	return v, finite
}

// Summary describes a cloud for reporting.
type Summary struct {
	Points       int       `json:"points"`
	HasIntensity bool      `json:"has_intensity"`
	HasRGB       bool      `json:"has_rgb"`
	Attributes   []string  `json:"attributes"`
	MemoryBytes  int64     `json:"memory_bytes"`
	Min          r3.Vector `json:"min"`
	Max          r3.Vector `json:"max"`
	Extent       r3.Vector `json:"extent"`
	Centroid     r3.Vector `json:"centroid"`
}

// Summary collects the diagnostics of the cloud.
func (pc *PointCloud) Summary() Summary {
	s := Summary{
		Points:       pc.n,
		HasIntensity: pc.HasIntensity(),
		HasRGB:       pc.HasRGB(),
		Attributes:   pc.AttributeNames(),
		MemoryBytes:  pc.MemoryUsage(),
	}
	if lo, hi, ok := pc.Bounds(); ok {
		s.Min, s.Max = lo, hi
		s.Extent = hi.Sub(lo)
	}
	s.Centroid, _ = pc.Centroid()
	return s
}
