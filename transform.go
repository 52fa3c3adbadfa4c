package pcgo

import (
	"context"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/pcgo/internal/mem"
)

// DefaultRotationTolerance is the tolerance ValidateRotation uses when tol <= 0.
const DefaultRotationTolerance = 1e-4

// Transform applies the linear map p' = M·p to every point and returns a new
// cloud. matrix must be 3×3 in row-major order; attributes are copied
// unchanged.
func (e *Engine) Transform(ctx context.Context, pc *PointCloud, matrix [][]float32) (*PointCloud, error) {
	start := time.Now()

	out, err := func() (*PointCloud, error) {
		if err := checkSquare(matrix, 3); err != nil {
			return nil, err
		}
		m := mat3(matrix)
		return e.mapPoints(ctx, pc, func(dst, src []float32) {
			for i := 0; i < len(src); i += 3 {
				p := m.Mul3x1(mgl32.Vec3{src[i], src[i+1], src[i+2]})
				dst[i], dst[i+1], dst[i+2] = p[0], p[1], p[2]
			}
		})
	}()

	e.observeTransform(ctx, "linear", pc.Len(), time.Since(start), err)
	return out, err
}

// RigidTransform applies p' = R·p + t to every point and returns a new cloud.
// rotation must be 3×3 and translation must hold 3 values. Orthogonality of
// rotation is not checked; see ValidateRotation.
func (e *Engine) RigidTransform(ctx context.Context, pc *PointCloud, rotation [][]float32, translation []float32) (*PointCloud, error) {
	start := time.Now()

	out, err := func() (*PointCloud, error) {
		if err := checkSquare(rotation, 3); err != nil {
			return nil, err
		}
		if len(translation) != 3 {
			return nil, &ErrDimensionMismatch{Name: "translation", Expected: 3, Actual: len(translation)}
		}
		r := mat3(rotation)
		t := mgl32.Vec3{translation[0], translation[1], translation[2]}
		return e.mapPoints(ctx, pc, func(dst, src []float32) {
			for i := 0; i < len(src); i += 3 {
				p := r.Mul3x1(mgl32.Vec3{src[i], src[i+1], src[i+2]}).Add(t)
				dst[i], dst[i+1], dst[i+2] = p[0], p[1], p[2]
			}
		})
	}()

	e.observeTransform(ctx, "rigid", pc.Len(), time.Since(start), err)
	return out, err
}

// HomogeneousTransform applies a 4×4 matrix to every point in homogeneous
// coordinates (x, y, z, 1). The result is divided by w unless w is 0 or 1.
func (e *Engine) HomogeneousTransform(ctx context.Context, pc *PointCloud, matrix [][]float32) (*PointCloud, error) {
	start := time.Now()

	out, err := func() (*PointCloud, error) {
		if err := checkSquare(matrix, 4); err != nil {
			return nil, err
		}
		m := mgl32.Mat4FromRows(
			mgl32.Vec4{matrix[0][0], matrix[0][1], matrix[0][2], matrix[0][3]},
			mgl32.Vec4{matrix[1][0], matrix[1][1], matrix[1][2], matrix[1][3]},
			mgl32.Vec4{matrix[2][0], matrix[2][1], matrix[2][2], matrix[2][3]},
			mgl32.Vec4{matrix[3][0], matrix[3][1], matrix[3][2], matrix[3][3]},
		)
		return e.mapPoints(ctx, pc, func(dst, src []float32) {
			for i := 0; i < len(src); i += 3 {
				p := m.Mul4x1(mgl32.Vec4{src[i], src[i+1], src[i+2], 1})
				if w := p[3]; w != 0 && w != 1 {
					p = p.Mul(1 / w)
				}
				dst[i], dst[i+1], dst[i+2] = p[0], p[1], p[2]
			}
		})
	}()

	e.observeTransform(ctx, "homogeneous", pc.Len(), time.Since(start), err)
	return out, err
}

// mapPoints runs kernel over the coordinates in parallel point ranges and
// returns a new cloud with the mapped coordinates and copied attributes.
func (e *Engine) mapPoints(ctx context.Context, pc *PointCloud, kernel func(dst, src []float32)) (*PointCloud, error) {
	release, err := e.reserve(ctx, pc.MemoryUsage())
	if err != nil {
		return nil, err
	}
	defer release()

	n := pc.Len()
	xyz := mem.AllocAlignedFloat32(3 * n)
	if n > 0 {
		src := pc.xyz
		err = e.parallel(ctx, e.split(n), func(ctx context.Context, _ int, s span) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			kernel(xyz[3*s.start:3*s.end], src[3*s.start:3*s.end])
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return pc.withCoordinates(xyz), nil
}

func (e *Engine) observeTransform(ctx context.Context, kind string, points int, elapsed time.Duration, err error) {
	e.opts.metricsCollector.RecordTransform(points, elapsed, err)
	e.opts.logger.LogTransform(ctx, kind, points, elapsed, err)
}

// checkSquare verifies that m is a want×want matrix.
func checkSquare(m [][]float32, want int) error {
	if len(m) != want {
		cols := 0
		if len(m) > 0 {
			cols = len(m[0])
		}
		return &ErrInvalidDimension{Rows: len(m), Cols: cols, Want: want}
	}
	for _, row := range m {
		if len(row) != want {
			return &ErrInvalidDimension{Rows: len(m), Cols: len(row), Want: want}
		}
	}
	return nil
}

func mat3(m [][]float32) mgl32.Mat3 {
	return mgl32.Mat3FromRows(
		mgl32.Vec3{m[0][0], m[0][1], m[0][2]},
		mgl32.Vec3{m[1][0], m[1][1], m[1][2]},
		mgl32.Vec3{m[2][0], m[2][1], m[2][2]},
	)
}

// ValidateRotation reports whether rotation is a proper rotation matrix:
// RᵀR equals the identity and det(R) equals 1, both within tol. It fails with
// *ErrInvalidDimension for a non-3×3 input and *ErrInvalidArgument otherwise.
func ValidateRotation(rotation [][]float32, tol float64) error {
	if err := checkSquare(rotation, 3); err != nil {
		return err
	}
	if tol <= 0 {
		tol = DefaultRotationTolerance
	}

	data := make([]float64, 0, 9)
	for _, row := range rotation {
		for _, v := range row {
			data = append(data, float64(v))
		}
	}
	r := mat.NewDense(3, 3, data)

	if det := mat.Det(r); math.Abs(det-1) > tol {
		return &ErrInvalidArgument{Name: "rotation", Value: det, Reason: "determinant must be 1"}
	}

	var rtr mat.Dense
	rtr.Mul(r.T(), r)
	if !mat.EqualApprox(&rtr, mat.NewDiagDense(3, []float64{1, 1, 1}), tol) {
		return &ErrInvalidArgument{Name: "rotation", Value: mat.Formatted(r, mat.Squeeze()), Reason: "matrix is not orthonormal"}
	}
	return nil
}

// Transform applies a 3×3 linear map using DefaultEngine.
func (pc *PointCloud) Transform(matrix [][]float32) (*PointCloud, error) {
	return DefaultEngine.Transform(context.Background(), pc, matrix)
}

// RigidTransform applies a rotation followed by a translation using DefaultEngine.
func (pc *PointCloud) RigidTransform(rotation [][]float32, translation []float32) (*PointCloud, error) {
	return DefaultEngine.RigidTransform(context.Background(), pc, rotation, translation)
}
