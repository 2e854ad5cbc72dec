package storeresolve

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// See PrometheusCollector for a Prometheus implementation.
type MetricsCollector interface {
	// RecordResolve is called after each Resolve.
	// remote reports whether the path classified as remote, err is nil if successful.
	RecordResolve(remote bool, duration time.Duration, err error)

	// RecordClientBuild is called after each remote client construction attempt.
	// Cache hits do not build and are not recorded here.
	RecordClientBuild(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordResolve(bool, time.Duration, error) {}
func (NoopMetricsCollector) RecordClientBuild(time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ResolveCount      atomic.Int64
	ResolveErrors     atomic.Int64
	ResolveTotalNanos atomic.Int64
	RemoteResolves    atomic.Int64
	LocalResolves     atomic.Int64
	BuildCount        atomic.Int64
	BuildErrors       atomic.Int64
	BuildTotalNanos   atomic.Int64
}

// RecordResolve implements MetricsCollector.
func (b *BasicMetricsCollector) RecordResolve(remote bool, duration time.Duration, err error) {
	b.ResolveCount.Add(1)
	b.ResolveTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ResolveErrors.Add(1)
		return
	}
	if remote {
		b.RemoteResolves.Add(1)
	} else {
		b.LocalResolves.Add(1)
	}
}

// RecordClientBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClientBuild(duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ResolveCount:    b.ResolveCount.Load(),
		ResolveErrors:   b.ResolveErrors.Load(),
		ResolveAvgNanos: avg(b.ResolveTotalNanos.Load(), b.ResolveCount.Load()),
		RemoteResolves:  b.RemoteResolves.Load(),
		LocalResolves:   b.LocalResolves.Load(),
		BuildCount:      b.BuildCount.Load(),
		BuildErrors:     b.BuildErrors.Load(),
		BuildAvgNanos:   avg(b.BuildTotalNanos.Load(), b.BuildCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ResolveCount    int64
	ResolveErrors   int64
	ResolveAvgNanos int64
	RemoteResolves  int64
	LocalResolves   int64
	BuildCount      int64
	BuildErrors     int64
	BuildAvgNanos   int64
}
