package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cloudant_sessions"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Session operations, labeled by operation (get, set, touch, destroy)
	// and result (ok, miss, error).
	OpsTotal   *prometheus.CounterVec
	OpDuration *prometheus.HistogramVec

	// Cleanup metrics.
	SessionsCleaned prometheus.Counter
	CleanupFailures prometheus.Counter
	CleanupDuration prometheus.Histogram

	// StoreUp is 1 while the backing database answers probes.
	StoreUp prometheus.Gauge
}

// NewRegistry creates a registry with all metrics registered, plus the
// standard Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		OpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Session store operations by operation and result",
		}, []string{"operation", "result"}),
		OpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Session store operation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		SessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_cleaned_total",
			Help:      "Expired sessions removed by cleanup",
		}),
		CleanupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_failures_total",
			Help:      "Cleanup items that could not be removed",
		}),
		CleanupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cleanup_duration_seconds",
			Help:      "Duration of cleanup runs",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),
		StoreUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_up",
			Help:      "1 while the session database answers probes",
		}),
	}

	reg.MustRegister(
		r.OpsTotal,
		r.OpDuration,
		r.SessionsCleaned,
		r.CleanupFailures,
		r.CleanupDuration,
		r.StoreUp,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Prometheus exposes the underlying registry for additional registrations,
// e.g. the embedded store's size gauges.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveOp records one session store operation.
func (r *Registry) ObserveOp(operation, result string, elapsed time.Duration) {
	r.OpsTotal.WithLabelValues(operation, result).Inc()
	r.OpDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}
