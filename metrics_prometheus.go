package storeresolve

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements MetricsCollector with Prometheus metrics.
type PrometheusCollector struct {
	resolves        *prometheus.CounterVec
	resolveDuration *prometheus.HistogramVec
	builds          *prometheus.CounterVec
	buildDuration   prometheus.Histogram
}

// NewPrometheusCollector creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &PrometheusCollector{
		resolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storeresolve",
			Name:      "resolves_total",
			Help:      "Total resolve calls by location and error kind.",
		}, []string{"location", "kind"}),
		resolveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storeresolve",
			Name:      "resolve_duration_seconds",
			Help:      "Resolve latency including remote client construction.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 10, 7),
		}, []string{"location"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storeresolve",
			Name:      "client_builds_total",
			Help:      "Remote client construction attempts by outcome.",
		}, []string{"outcome"}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storeresolve",
			Name:      "client_build_duration_seconds",
			Help:      "Remote client construction latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{p.resolves, p.resolveDuration, p.builds, p.buildDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// RecordResolve implements MetricsCollector.
func (p *PrometheusCollector) RecordResolve(remote bool, duration time.Duration, err error) {
	location := "local"
	if remote {
		location = "remote"
	}
	kind := "none"
	if err != nil {
		kind = KindOf(err).String()
	}
	p.resolves.WithLabelValues(location, kind).Inc()
	p.resolveDuration.WithLabelValues(location).Observe(duration.Seconds())
}

// RecordClientBuild implements MetricsCollector.
func (p *PrometheusCollector) RecordClientBuild(duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	p.builds.WithLabelValues(outcome).Inc()
	p.buildDuration.Observe(duration.Seconds())
}
