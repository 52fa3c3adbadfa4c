// Package attribute provides the columnar attribute store of a point cloud.
//
// A Store maps attribute names to float32 columns that all have exactly one
// value per point:
//
//	s := attribute.New(4)
//	_ = s.Add("classification", []float32{2, 2, 6, 6})
//	_ = s.Set("return_number", []float32{1, 1, 2, 1})
//	col, ok := s.Get("classification")
//
// Every mutation validates its input before touching the store, so a failed
// call leaves the store exactly as it was.
package attribute
