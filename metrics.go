package pcgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// observability package ships a Prometheus implementation.
type MetricsCollector interface {
	// RecordTransform is called after each transform with the number of
	// points processed.
	RecordTransform(points int, duration time.Duration, err error)

	// RecordDownsample is called after each voxel downsampling run.
	RecordDownsample(strategy Strategy, in, out int, duration time.Duration, err error)

	// RecordRead is called after a cloud has been decoded from a file format.
	RecordRead(format string, points int, duration time.Duration, err error)

	// RecordWrite is called after a cloud has been encoded to a file format.
	RecordWrite(format string, points int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordTransform(int, time.Duration, error)                 {}
func (NoopMetricsCollector) RecordDownsample(Strategy, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRead(string, int, time.Duration, error)              {}
func (NoopMetricsCollector) RecordWrite(string, int, time.Duration, error)             {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	TransformCount       atomic.Int64
	TransformErrors      atomic.Int64
	TransformPoints      atomic.Int64
	TransformTotalNanos  atomic.Int64
	DownsampleCount      atomic.Int64
	DownsampleErrors     atomic.Int64
	DownsamplePointsIn   atomic.Int64
	DownsamplePointsOut  atomic.Int64
	DownsampleTotalNanos atomic.Int64
	ReadCount            atomic.Int64
	ReadErrors           atomic.Int64
	ReadPoints           atomic.Int64
	WriteCount           atomic.Int64
	WriteErrors          atomic.Int64
	WritePoints          atomic.Int64
}

// RecordTransform implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTransform(points int, duration time.Duration, err error) {
	b.TransformCount.Add(1)
	b.TransformTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.TransformErrors.Add(1)
		return
	}
	b.TransformPoints.Add(int64(points))
}

// RecordDownsample implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDownsample(_ Strategy, in, out int, duration time.Duration, err error) {
	b.DownsampleCount.Add(1)
	b.DownsampleTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DownsampleErrors.Add(1)
		return
	}
	b.DownsamplePointsIn.Add(int64(in))
	b.DownsamplePointsOut.Add(int64(out))
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(_ string, points int, _ time.Duration, err error) {
	b.ReadCount.Add(1)
	if err != nil {
		b.ReadErrors.Add(1)
		return
	}
	b.ReadPoints.Add(int64(points))
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(_ string, points int, _ time.Duration, err error) {
	b.WriteCount.Add(1)
	if err != nil {
		b.WriteErrors.Add(1)
		return
	}
	b.WritePoints.Add(int64(points))
}

// MetricsStats is a point-in-time snapshot of a BasicMetricsCollector.
type MetricsStats struct {
	TransformCount     int64
	TransformErrors    int64
	TransformPoints    int64
	TransformAvgNanos  int64
	DownsampleCount    int64
	DownsampleErrors   int64
	DownsampleRatio    float64 // points out / points in
	DownsampleAvgNanos int64
	ReadCount          int64
	ReadErrors         int64
	ReadPoints         int64
	WriteCount         int64
	WriteErrors        int64
	WritePoints        int64
}

// GetStats returns current statistics.
func (b *BasicMetricsCollector) GetStats() MetricsStats {
	s := MetricsStats{
		TransformCount:   b.TransformCount.Load(),
		TransformErrors:  b.TransformErrors.Load(),
		TransformPoints:  b.TransformPoints.Load(),
		DownsampleCount:  b.DownsampleCount.Load(),
		DownsampleErrors: b.DownsampleErrors.Load(),
		ReadCount:        b.ReadCount.Load(),
		ReadErrors:       b.ReadErrors.Load(),
		ReadPoints:       b.ReadPoints.Load(),
		WriteCount:       b.WriteCount.Load(),
		WriteErrors:      b.WriteErrors.Load(),
		WritePoints:      b.WritePoints.Load(),
	}
	if s.TransformCount > 0 {
		s.TransformAvgNanos = b.TransformTotalNanos.Load() / s.TransformCount
	}
	if s.DownsampleCount > 0 {
		s.DownsampleAvgNanos = b.DownsampleTotalNanos.Load() / s.DownsampleCount
	}
	if in := b.DownsamplePointsIn.Load(); in > 0 {
		s.DownsampleRatio = float64(b.DownsamplePointsOut.Load()) / float64(in)
	}
	return s
}
