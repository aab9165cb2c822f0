package dbscan

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational metrics from a Driver.
// Implement it to export to a monitoring system; internal/telemetry
// provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordRegionQuery is called after each region query.
	// size is the number of refs returned.
	RecordRegionQuery(size int, duration time.Duration, err error)

	// RecordCluster is called once per completed cluster with its size.
	RecordCluster(size int)

	// RecordRun is called once at the end of Run.
	RecordRun(points, clusters, noise int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRegionQuery(int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordCluster(int)                             {}
func (NoopMetricsCollector) RecordRun(int, int, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	RegionQueries     atomic.Int64
	RegionErrors      atomic.Int64
	RegionResultTotal atomic.Int64
	RegionTotalNanos  atomic.Int64
	Clusters          atomic.Int64
	ClusteredPoints   atomic.Int64
	Runs              atomic.Int64
	RunErrors         atomic.Int64
	NoisePoints       atomic.Int64
}

// RecordRegionQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRegionQuery(size int, duration time.Duration, err error) {
	b.RegionQueries.Add(1)
	b.RegionTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RegionErrors.Add(1)
		return
	}
	b.RegionResultTotal.Add(int64(size))
}

// RecordCluster implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCluster(size int) {
	b.Clusters.Add(1)
	b.ClusteredPoints.Add(int64(size))
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(points, clusters, noise int, duration time.Duration, err error) {
	b.Runs.Add(1)
	if err != nil {
		b.RunErrors.Add(1)
		return
	}
	b.NoisePoints.Add(int64(noise))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		RegionQueries:   b.RegionQueries.Load(),
		RegionErrors:    b.RegionErrors.Load(),
		Clusters:        b.Clusters.Load(),
		ClusteredPoints: b.ClusteredPoints.Load(),
		Runs:            b.Runs.Load(),
		RunErrors:       b.RunErrors.Load(),
		NoisePoints:     b.NoisePoints.Load(),
	}
	if ok := s.RegionQueries - s.RegionErrors; ok > 0 {
		s.RegionAvgSize = float64(b.RegionResultTotal.Load()) / float64(ok)
	}
	if s.RegionQueries > 0 {
		s.RegionAvgNanos = b.RegionTotalNanos.Load() / s.RegionQueries
	}
	return s
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RegionQueries   int64
	RegionErrors    int64
	RegionAvgSize   float64
	RegionAvgNanos  int64
	Clusters        int64
	ClusteredPoints int64
	Runs            int64
	RunErrors       int64
	NoisePoints     int64
}
