// Package observability exports pcgo metrics to Prometheus.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/pcgo"
)

// PrometheusCollector implements pcgo.MetricsCollector.
type PrometheusCollector struct {
	opLatency *prometheus.HistogramVec
	ops       *prometheus.CounterVec
	points    *prometheus.CounterVec
	ratio     prometheus.Histogram
}

var _ pcgo.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates the collector and registers its metrics with
// reg. A nil reg selects prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer, namespace string) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "pcgo"
	}

	c := &PrometheusCollector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of point cloud operations",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"op", "kind", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total operations by outcome",
		}, []string{"op", "kind", "status"}),
		points: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_total",
			Help:      "Points processed by successful operations",
		}, []string{"op", "direction"}),
		ratio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "downsample_ratio",
			Help:      "Output points per input point of voxel downsampling",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 0.75, 1},
		}),
	}

	for _, col := range []prometheus.Collector{c.opLatency, c.ops, c.points, c.ratio} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *PrometheusCollector) observe(op, kind string, d time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues(op, kind, s).Observe(d.Seconds())
	c.ops.WithLabelValues(op, kind, s).Inc()
}

// RecordTransform implements pcgo.MetricsCollector.
func (c *PrometheusCollector) RecordTransform(points int, d time.Duration, err error) {
	c.observe("transform", "", d, err)
	if err == nil {
		c.points.WithLabelValues("transform", "in").Add(float64(points))
	}
}

// RecordDownsample implements pcgo.MetricsCollector.
func (c *PrometheusCollector) RecordDownsample(strategy pcgo.Strategy, in, out int, d time.Duration, err error) {
	c.observe("downsample", strategy.String(), d, err)
	if err != nil {
		return
	}
	c.points.WithLabelValues("downsample", "in").Add(float64(in))
	c.points.WithLabelValues("downsample", "out").Add(float64(out))
	if in > 0 {
		c.ratio.Observe(float64(out) / float64(in))
	}
}

// RecordRead implements pcgo.MetricsCollector.
func (c *PrometheusCollector) RecordRead(format string, points int, d time.Duration, err error) {
	c.observe("read", format, d, err)
	if err == nil {
		c.points.WithLabelValues("read", "in").Add(float64(points))
	}
}

// RecordWrite implements pcgo.MetricsCollector.
func (c *PrometheusCollector) RecordWrite(format string, points int, d time.Duration, err error) {
	c.observe("write", format, d, err)
	if err == nil {
		c.points.WithLabelValues("write", "out").Add(float64(points))
	}
}
