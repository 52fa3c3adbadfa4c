package pcgo

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/pcgo/internal/mem"
)

// Subset returns a new cloud holding the points whose indices are set in
// indices, in ascending index order, with every attribute gathered alongside.
// An index >= Len() fails with *ErrInvalidArgument.
func (pc *PointCloud) Subset(indices *roaring.Bitmap) (*PointCloud, error) {
	if indices == nil || indices.IsEmpty() {
		return pc.gather(nil)
	}
	if last := indices.Maximum(); int64(last) >= int64(pc.n) {
		return nil, &ErrInvalidArgument{Name: "indices", Value: last, Reason: "index out of range"}
	}
	return pc.gather(indices.ToArray())
}

// gather copies the rows at idx, which must be valid indices.
func (pc *PointCloud) gather(idx []uint32) (*PointCloud, error) {
	m := len(idx)
	xyz := mem.AllocAlignedFloat32(3 * m)
	for j, i := range idx {
		copy(xyz[3*j:3*j+3], pc.xyz[3*i:3*i+3])
	}

	out := newPointCloud(m, xyz)
	for _, c := range pc.scalarColumns() {
		values := make([]float32, m)
		for j, i := range idx {
			values[j] = c.values[i]
		}
		if err := out.setColumn(c, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}
