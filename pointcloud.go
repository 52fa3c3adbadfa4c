package pcgo

import (
	"math"
	"slices"

	"github.com/hupe1980/pcgo/attribute"
	"github.com/hupe1980/pcgo/internal/mem"
)

// Reserved column names used by FromColumns, Columns and the format bridge.
const (
	ColumnX         = "x"
	ColumnY         = "y"
	ColumnZ         = "z"
	ColumnIntensity = "intensity"
	ColumnR         = "r"
	ColumnG         = "g"
	ColumnB         = "b"
)

// PointCloud is an in-memory columnar point cloud: interleaved XYZ
// coordinates plus optional intensity, RGB and named float32 attributes, all
// holding exactly one value per point.
//
// A PointCloud owns its buffers. Slices returned by accessors are read-only
// views that stay valid until the corresponding column is replaced or removed.
// Operations that produce a new cloud (Clone, Subset, transforms,
// downsampling) never share storage with their input.
//
// A PointCloud is safe for concurrent reads. Mutating methods must not run
// concurrently with any other method on the same cloud.
type PointCloud struct {
	n         int
	xyz       []float32
	intensity []float32
	rgb       [3][]float32
	attrs     *attribute.Store
}

// New returns an empty point cloud.
func New() *PointCloud {
	return newPointCloud(0, nil)
}

// newPointCloud takes ownership of xyz, which must hold 3*n values.
func newPointCloud(n int, xyz []float32) *PointCloud {
	return &PointCloud{
		n:     n,
		xyz:   xyz,
		attrs: attribute.New(n),
	}
}

// FromXYZ creates a cloud from a flat N×3 buffer (x0, y0, z0, x1, ...).
// The buffer is copied.
func FromXYZ(xyz []float32) (*PointCloud, error) {
	if len(xyz)%3 != 0 {
		return nil, &ErrDimensionMismatch{Name: "xyz", Expected: len(xyz) / 3 * 3, Actual: len(xyz)}
	}
	return newPointCloud(len(xyz)/3, mem.CloneFloat32(xyz)), nil
}

// FromPoints creates a cloud from a slice of points.
func FromPoints(points [][3]float32) *PointCloud {
	xyz := mem.AllocAlignedFloat32(3 * len(points))
	for i, p := range points {
		copy(xyz[3*i:3*i+3], p[:])
	}
	return newPointCloud(len(points), xyz)
}

// FromXYZIntensity creates a cloud with coordinates and intensity.
func FromXYZIntensity(xyz, intensity []float32) (*PointCloud, error) {
	pc, err := FromXYZ(xyz)
	if err != nil {
		return nil, err
	}
	if err := pc.SetIntensity(intensity); err != nil {
		return nil, err
	}
	return pc, nil
}

// FromXYZRGB creates a cloud with coordinates and colour channels.
func FromXYZRGB(xyz, r, g, b []float32) (*PointCloud, error) {
	pc, err := FromXYZ(xyz)
	if err != nil {
		return nil, err
	}
	if err := pc.SetRGB(r, g, b); err != nil {
		return nil, err
	}
	return pc, nil
}

// FromXYZIntensityRGB creates a cloud with coordinates, intensity and colour.
func FromXYZIntensityRGB(xyz, intensity, r, g, b []float32) (*PointCloud, error) {
	pc, err := FromXYZIntensity(xyz, intensity)
	if err != nil {
		return nil, err
	}
	if err := pc.SetRGB(r, g, b); err != nil {
		return nil, err
	}
	return pc, nil
}

// FromColumns builds a cloud from named columns. "x", "y" and "z" are
// required; "intensity" and the "r", "g", "b" triple are optional; every other
// column becomes a named attribute.
func FromColumns(columns map[string][]float32) (*PointCloud, error) {
	xs, okX := columns[ColumnX]
	ys, okY := columns[ColumnY]
	zs, okZ := columns[ColumnZ]
	if !okX || !okY || !okZ {
		return nil, &ErrInvalidArgument{Name: "columns", Value: "x,y,z", Reason: "coordinate columns are required"}
	}
	n := len(xs)
	for name, values := range columns {
		if len(values) != n {
			return nil, &ErrDimensionMismatch{Name: name, Expected: n, Actual: len(values)}
		}
	}

	_, okR := columns[ColumnR]
	_, okG := columns[ColumnG]
	_, okB := columns[ColumnB]
	if (okR || okG || okB) && !(okR && okG && okB) {
		return nil, &ErrInvalidArgument{Name: "columns", Value: "r,g,b", Reason: "colour needs all three channels"}
	}

	xyz := mem.AllocAlignedFloat32(3 * n)
	for i := 0; i < n; i++ {
		xyz[3*i] = xs[i]
		xyz[3*i+1] = ys[i]
		xyz[3*i+2] = zs[i]
	}
	pc := newPointCloud(n, xyz)

	if v, ok := columns[ColumnIntensity]; ok {
		pc.intensity = slices.Clone(v)
	}
	if okR {
		pc.rgb = [3][]float32{slices.Clone(columns[ColumnR]), slices.Clone(columns[ColumnG]), slices.Clone(columns[ColumnB])}
	}
	for name, values := range columns {
		if isReservedColumn(name) {
			continue
		}
		if err := pc.attrs.Set(name, values); err != nil {
			return nil, translateError(err)
		}
	}
	return pc, nil
}

// Columns returns a copy of every column keyed like FromColumns expects.
func (pc *PointCloud) Columns() map[string][]float32 {
	cols := make(map[string][]float32, 3+pc.attrs.Count())
	xs := make([]float32, pc.n)
	ys := make([]float32, pc.n)
	zs := make([]float32, pc.n)
	for i := 0; i < pc.n; i++ {
		xs[i] = pc.xyz[3*i]
		ys[i] = pc.xyz[3*i+1]
		zs[i] = pc.xyz[3*i+2]
	}
	cols[ColumnX], cols[ColumnY], cols[ColumnZ] = xs, ys, zs

	if pc.HasIntensity() {
		cols[ColumnIntensity] = slices.Clone(pc.intensity)
	}
	if pc.HasRGB() {
		cols[ColumnR] = slices.Clone(pc.rgb[0])
		cols[ColumnG] = slices.Clone(pc.rgb[1])
		cols[ColumnB] = slices.Clone(pc.rgb[2])
	}
	pc.attrs.All(func(name string, values []float32) bool {
		cols[name] = slices.Clone(values)
		return true
	})
	return cols
}

func isReservedColumn(name string) bool {
	switch name {
	case ColumnX, ColumnY, ColumnZ, ColumnIntensity, ColumnR, ColumnG, ColumnB:
		return true
	}
	return false
}

// IsReservedColumn reports whether name is one of the coordinate, intensity
// or colour column names.
func IsReservedColumn(name string) bool {
	return isReservedColumn(name)
}

// Len returns the number of points.
func (pc *PointCloud) Len() int {
	return pc.n
}

// IsEmpty reports whether the cloud holds no points.
func (pc *PointCloud) IsEmpty() bool {
	return pc.n == 0
}

// XYZ returns the interleaved coordinates as a read-only view of length 3*Len().
func (pc *PointCloud) XYZ() []float32 {
	return pc.xyz
}

// Point returns the coordinates of point i.
func (pc *PointCloud) Point(i int) [3]float32 {
	return [3]float32{pc.xyz[3*i], pc.xyz[3*i+1], pc.xyz[3*i+2]}
}

// Clone returns a deep copy that shares no storage with pc.
func (pc *PointCloud) Clone() *PointCloud {
	c := &PointCloud{
		n:         pc.n,
		xyz:       mem.CloneFloat32(pc.xyz),
		intensity: slices.Clone(pc.intensity),
		attrs:     pc.attrs.Clone(),
	}
	if pc.HasRGB() {
		c.rgb = [3][]float32{slices.Clone(pc.rgb[0]), slices.Clone(pc.rgb[1]), slices.Clone(pc.rgb[2])}
	}
	return c
}

// withCoordinates returns a cloud that owns xyz and deep copies of every
// attribute of pc.
func (pc *PointCloud) withCoordinates(xyz []float32) *PointCloud {
	c := pc.Clone()
	c.xyz = xyz
	return c
}

func (pc *PointCloud) checkLen(name string, values []float32) error {
	if len(values) != pc.n {
		return &ErrDimensionMismatch{Name: name, Expected: pc.n, Actual: len(values)}
	}
	return nil
}

// HasIntensity reports whether the intensity slot is set.
func (pc *PointCloud) HasIntensity() bool {
	return pc.intensity != nil
}

// SetIntensity sets or overwrites the intensity slot.
func (pc *PointCloud) SetIntensity(values []float32) error {
	if err := pc.checkLen(ColumnIntensity, values); err != nil {
		return err
	}
	pc.intensity = cloneNonNil(values)
	return nil
}

// Intensity returns the intensity column.
func (pc *PointCloud) Intensity() ([]float32, error) {
	if !pc.HasIntensity() {
		return nil, &ErrAttributeNotFound{Name: ColumnIntensity}
	}
	return pc.intensity, nil
}

// RemoveIntensity clears the intensity slot. It is a no-op when unset.
func (pc *PointCloud) RemoveIntensity() {
	pc.intensity = nil
}

// HasRGB reports whether all three colour channels are set.
func (pc *PointCloud) HasRGB() bool {
	return pc.rgb[0] != nil && pc.rgb[1] != nil && pc.rgb[2] != nil
}

// SetRGB sets or overwrites the colour channels. Values are conventionally in
// [0, 255]; they are stored as given.
func (pc *PointCloud) SetRGB(r, g, b []float32) error {
	for i, ch := range [3][]float32{r, g, b} {
		if err := pc.checkLen([3]string{ColumnR, ColumnG, ColumnB}[i], ch); err != nil {
			return err
		}
	}
	pc.rgb = [3][]float32{cloneNonNil(r), cloneNonNil(g), cloneNonNil(b)}
	return nil
}

// SetRGBInterleaved sets the colour channels from an N×3 buffer (r0, g0, b0, r1, ...).
func (pc *PointCloud) SetRGBInterleaved(rgb []float32) error {
	if len(rgb) != 3*pc.n {
		return &ErrDimensionMismatch{Name: "rgb", Expected: 3 * pc.n, Actual: len(rgb)}
	}
	r := make([]float32, pc.n)
	g := make([]float32, pc.n)
	b := make([]float32, pc.n)
	for i := 0; i < pc.n; i++ {
		r[i], g[i], b[i] = rgb[3*i], rgb[3*i+1], rgb[3*i+2]
	}
	pc.rgb = [3][]float32{r, g, b}
	return nil
}

// RGB returns the three colour channels.
func (pc *PointCloud) RGB() (r, g, b []float32, err error) {
	if !pc.HasRGB() {
		return nil, nil, nil, &ErrAttributeNotFound{Name: "rgb"}
	}
	return pc.rgb[0], pc.rgb[1], pc.rgb[2], nil
}

// RGB8 returns the colour of every point rounded and clamped to 8 bits.
func (pc *PointCloud) RGB8() ([][3]uint8, error) {
	if !pc.HasRGB() {
		return nil, &ErrAttributeNotFound{Name: "rgb"}
	}
	out := make([][3]uint8, pc.n)
	for i := range out {
		out[i] = [3]uint8{toUint8(pc.rgb[0][i]), toUint8(pc.rgb[1][i]), toUint8(pc.rgb[2][i])}
	}
	return out, nil
}

func toUint8(v float32) uint8 {
	switch {
	case !(v > 0): // also catches NaN
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Round(float64(v)))
	}
}

// RemoveRGB clears the colour channels. It is a no-op when unset.
func (pc *PointCloud) RemoveRGB() {
	pc.rgb = [3][]float32{}
}

// AddAttribute inserts a new named attribute. It fails with
// *ErrDuplicateAttribute when the name exists and with *ErrDimensionMismatch
// when len(values) != Len().
func (pc *PointCloud) AddAttribute(name string, values []float32) error {
	return translateError(pc.attrs.Add(name, values))
}

// SetAttribute inserts or overwrites a named attribute.
func (pc *PointCloud) SetAttribute(name string, values []float32) error {
	return translateError(pc.attrs.Set(name, values))
}

// SetAttributes replaces every named attribute with columns. Nothing changes
// unless every column is valid.
func (pc *PointCloud) SetAttributes(columns map[string][]float32) error {
	return translateError(pc.attrs.SetAll(columns))
}

// Attribute returns a named attribute column.
func (pc *PointCloud) Attribute(name string) ([]float32, error) {
	values, ok := pc.attrs.Get(name)
	if !ok {
		return nil, &ErrAttributeNotFound{Name: name}
	}
	return values, nil
}

// HasAttribute reports whether every given name is a named attribute.
func (pc *PointCloud) HasAttribute(names ...string) bool {
	return pc.attrs.Has(names...)
}

// RemoveAttribute deletes a named attribute. Removing an absent name is a no-op.
func (pc *PointCloud) RemoveAttribute(name string) {
	pc.attrs.Remove(name)
}

// ClearAttributes removes every named attribute. Intensity and RGB are kept.
func (pc *PointCloud) ClearAttributes() {
	pc.attrs.Clear()
}

// AttributeNames returns the named attributes in lexical order.
func (pc *PointCloud) AttributeNames() []string {
	return pc.attrs.Names()
}

// AttributeInfo returns name and length of every named attribute.
func (pc *PointCloud) AttributeInfo() []attribute.Info {
	return pc.attrs.Info()
}

// scalarColumns lists every per-point scalar column in a fixed order:
// intensity, r, g, b, then named attributes lexically.
func (pc *PointCloud) scalarColumns() []column {
	cols := make([]column, 0, 4+pc.attrs.Count())
	if pc.HasIntensity() {
		cols = append(cols, column{kind: columnIntensity, values: pc.intensity})
	}
	if pc.HasRGB() {
		cols = append(cols,
			column{kind: columnR, values: pc.rgb[0]},
			column{kind: columnG, values: pc.rgb[1]},
			column{kind: columnB, values: pc.rgb[2]},
		)
	}
	pc.attrs.All(func(name string, values []float32) bool {
		cols = append(cols, column{kind: columnNamed, name: name, values: values})
		return true
	})
	return cols
}

// setColumn installs an owned column produced by an engine pass.
func (pc *PointCloud) setColumn(c column, values []float32) error {
	if len(values) != pc.n {
		return &ErrDimensionMismatch{Name: c.name, Expected: pc.n, Actual: len(values)}
	}
	switch c.kind {
	case columnIntensity:
		pc.intensity = values
	case columnR:
		pc.rgb[0] = values
	case columnG:
		pc.rgb[1] = values
	case columnB:
		pc.rgb[2] = values
	default:
		if err := pc.attrs.Adopt(c.name, values); err != nil {
			return translateError(err)
		}
	}
	return nil
}

type columnKind uint8

const (
	columnIntensity columnKind = iota
	columnR
	columnG
	columnB
	columnNamed
)

type column struct {
	kind   columnKind
	name   string
	values []float32
}

// cloneNonNil copies values, keeping a zero-length input non-nil so that the
// presence of an empty column survives.
func cloneNonNil(values []float32) []float32 {
	out := make([]float32, len(values))
	copy(out, values)
	return out
}
