package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTPRequestDuration tracks HTTP request latency. Shared across the web front door.
var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "beacon",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)

// PoolAvailableIDs reports the current length of the available device-id pool.
var PoolAvailableIDs = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "beacon",
	Subsystem: "registrar",
	Name:      "pool_available_ids",
	Help:      "Number of unconsumed device ids currently in the available pool.",
})

// PoolRefillTotal counts ids minted during pool refills.
var PoolRefillTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "beacon",
	Subsystem: "registrar",
	Name:      "pool_refill_total",
	Help:      "Total number of device ids minted by pool refills.",
})

// RegistrarTickFailuresTotal counts every failed registrar tick; it is not
// reset when a tick succeeds.
var RegistrarTickFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "beacon",
	Subsystem: "registrar",
	Name:      "tick_failures_total",
	Help:      "Total number of registrar ticks that failed.",
})

// JobResultsTotal counts completed registrar jobs by outcome.
var JobResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "beacon",
	Subsystem: "registrar",
	Name:      "job_results_total",
	Help:      "Total number of registrar jobs completed, labeled by outcome and kind.",
}, []string{"kind", "outcome"})

// RenderLatency tracks the time from render pop to per-device push.
var RenderLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: "beacon",
	Subsystem: "renderer",
	Name:      "render_duration_seconds",
	Help:      "Time spent rasterizing and delivering a single render.",
	Buckets:   prometheus.DefBuckets,
})

// StaleEvictionsTotal counts per-device queue entries dropped by stale eviction.
var StaleEvictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "beacon",
	Subsystem: "renderer",
	Name:      "stale_evictions_total",
	Help:      "Total number of stale per-device queue entries evicted before a new render.",
})

// NewMetricsRegistry creates a Prometheus registry with Go/process collectors,
// the shared HTTP metric, and any additional service-specific collectors.
func NewMetricsRegistry(extra ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequestDuration,
	)
	for _, c := range extra {
		reg.MustRegister(c)
	}
	return reg
}

// RegistrarCollectors returns the collectors specific to the registrar worker.
func RegistrarCollectors() []prometheus.Collector {
	return []prometheus.Collector{PoolAvailableIDs, PoolRefillTotal, RegistrarTickFailuresTotal, JobResultsTotal}
}

// RendererCollectors returns the collectors specific to the renderer worker.
func RendererCollectors() []prometheus.Collector {
	return []prometheus.Collector{RenderLatency, StaleEvictionsTotal}
}
