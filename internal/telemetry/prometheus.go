// Package telemetry exports dbscan driver metrics to Prometheus.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/TrevorS/dbscan"
)

// PrometheusCollector implements dbscan.MetricsCollector on a private
// registry, so several collectors can coexist in one process.
type PrometheusCollector struct {
	registry *prometheus.Registry

	regionQueries *prometheus.CounterVec
	regionLatency prometheus.Histogram
	regionSize    prometheus.Histogram
	clusters      prometheus.Counter
	clusterSize   prometheus.Histogram
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	points        prometheus.Gauge
	lastClusters  prometheus.Gauge
	lastNoise     prometheus.Gauge
}

var _ dbscan.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates a collector whose metric names start with
// namespace (default "dbscan").
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	if namespace == "" {
		namespace = "dbscan"
	}
	c := &PrometheusCollector{
		registry: prometheus.NewRegistry(),
		regionQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "region_queries_total",
			Help:      "Total number of region queries",
		}, []string{"status"}),
		regionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "region_query_duration_seconds",
			Help:      "Latency of region queries",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 10),
		}),
		regionSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "region_size_points",
			Help:      "Number of points returned by region queries",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		clusters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clusters_total",
			Help:      "Total clusters formed",
		}),
		clusterSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cluster_size_points",
			Help:      "Number of points per formed cluster",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total clustering runs",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of clustering runs",
			Buckets:   prometheus.DefBuckets,
		}),
		points: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_points",
			Help:      "Number of points in the last run",
		}),
		lastClusters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_clusters",
			Help:      "Number of clusters found by the last successful run",
		}),
		lastNoise: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_noise_points",
			Help:      "Number of noise points in the last successful run",
		}),
	}
	c.registry.MustRegister(
		c.regionQueries, c.regionLatency, c.regionSize,
		c.clusters, c.clusterSize,
		c.runs, c.runDuration, c.points, c.lastClusters, c.lastNoise,
	)
	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *PrometheusCollector) Registry() *prometheus.Registry { return c.registry }

// RecordRegionQuery implements dbscan.MetricsCollector.
func (c *PrometheusCollector) RecordRegionQuery(size int, duration time.Duration, err error) {
	c.regionLatency.Observe(duration.Seconds())
	if err != nil {
		c.regionQueries.WithLabelValues("error").Inc()
		return
	}
	c.regionQueries.WithLabelValues("ok").Inc()
	c.regionSize.Observe(float64(size))
}

// RecordCluster implements dbscan.MetricsCollector.
func (c *PrometheusCollector) RecordCluster(size int) {
	c.clusters.Inc()
	c.clusterSize.Observe(float64(size))
}

// RecordRun implements dbscan.MetricsCollector.
func (c *PrometheusCollector) RecordRun(points, clusters, noise int, duration time.Duration, err error) {
	c.runDuration.Observe(duration.Seconds())
	c.points.Set(float64(points))
	if err != nil {
		c.runs.WithLabelValues("error").Inc()
		return
	}
	c.runs.WithLabelValues("ok").Inc()
	c.lastClusters.Set(float64(clusters))
	c.lastNoise.Set(float64(noise))
}

// WriteTextfile writes the current metrics to path in the text exposition
// format read by the node exporter's textfile collector.
func (c *PrometheusCollector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("%w: %w", dbscan.ErrIO, err)
	}
	return nil
}
