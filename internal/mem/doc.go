// Package mem allocates the coordinate and attribute buffers of a point cloud
// on 64-byte boundaries, so chunked workers never share a cache line at the
// start of their range.
package mem
