// Package metrics exposes the engine's operational counters as Prometheus
// collectors, scraped by cmd/ignite-httpd's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every collector the engine's front ends report against.
// Registered once per process against the default registry.
type Metrics struct {
	SetTotal      prometheus.Counter
	GetTotal      prometheus.Counter
	RemoveTotal   prometheus.Counter
	GetMissTotal  prometheus.Counter
	CompactionRun prometheus.Counter
	CompactionDur prometheus.Histogram
	WriteLatency  prometheus.Histogram
	ReadLatency   prometheus.Histogram
}

// New registers and returns the engine's metric collectors.
func New(namespace string) *Metrics {
	return &Metrics{
		SetTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "set_total", Help: "Total number of Set operations.",
		}),
		GetTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "get_total", Help: "Total number of Get operations.",
		}),
		RemoveTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "remove_total", Help: "Total number of Remove operations.",
		}),
		GetMissTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "get_miss_total", Help: "Total number of Get operations that found no key.",
		}),
		CompactionRun: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "compaction_runs_total", Help: "Total number of segment compaction jobs that ran.",
		}),
		CompactionDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "compaction_duration_seconds", Help: "Duration of segment compaction jobs.",
			Buckets: prometheus.DefBuckets,
		}),
		WriteLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "write_latency_seconds", Help: "Latency of Set/Remove calls.",
			Buckets: prometheus.DefBuckets,
		}),
		ReadLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "read_latency_seconds", Help: "Latency of Get calls.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
