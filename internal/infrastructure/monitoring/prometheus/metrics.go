// Package prometheus centralises metric registration for PatentSentinel.
// All collectors are created against an injected Registerer so that tests can
// use an isolated registry instead of the global default.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "patentsentinel"

// Metrics holds every collector exported by the platform.  A single instance
// is created at startup and injected into the components that record values.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP server metrics, recorded by the gin middleware.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Analysis job lifecycle.
	JobsSubmittedTotal  prometheus.Counter
	JobsCompletedTotal  *prometheus.CounterVec
	JobDurationSeconds  prometheus.Histogram
	JobQueueDepth       prometheus.Gauge
	JobsRequeuedBySweep prometheus.Counter

	// Collaborator calls.
	ExtractionCallsTotal   *prometheus.CounterVec
	ExtractionRetriesTotal prometheus.Counter

	// Alert delivery.
	AlertsDispatchedTotal *prometheus.CounterVec
}

// NewMetrics constructs all collectors and registers them on a fresh registry
// together with the standard Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed, labelled by method, route and status code.",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		JobsSubmittedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "jobs_submitted_total",
			Help:      "Analysis jobs accepted for processing.",
		}),

		JobsCompletedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "jobs_completed_total",
			Help:      "Analysis jobs reaching a terminal state, labelled by outcome.",
		}, []string{"outcome"}),

		JobDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "job_duration_seconds",
			Help:      "End-to-end analysis pipeline duration.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		JobQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "job_queue_depth",
			Help:      "Number of jobs currently buffered in the worker pool queue.",
		}),

		JobsRequeuedBySweep: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "jobs_requeued_by_sweep_total",
			Help:      "Stale in-flight jobs re-enqueued by the recovery sweep.",
		}),

		ExtractionCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nlp",
			Name:      "extraction_calls_total",
			Help:      "Feature-extraction service calls, labelled by result.",
		}, []string{"result"}),

		ExtractionRetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nlp",
			Name:      "extraction_retries_total",
			Help:      "Retries performed against the feature-extraction service.",
		}),

		AlertsDispatchedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "dispatched_total",
			Help:      "Alerts dispatched, labelled by channel and result.",
		}, []string{"channel", "result"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.JobsSubmittedTotal,
		m.JobsCompletedTotal,
		m.JobDurationSeconds,
		m.JobQueueDepth,
		m.JobsRequeuedBySweep,
		m.ExtractionCallsTotal,
		m.ExtractionRetriesTotal,
		m.AlertsDispatchedTotal,
	)
	return m
}

// Handler returns the HTTP handler that serves the /metrics endpoint for this
// registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one completed HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, route, status string, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveJobCompleted records a job reaching a terminal state and its total
// pipeline duration.
func (m *Metrics) ObserveJobCompleted(outcome string, elapsed time.Duration) {
	m.JobsCompletedTotal.WithLabelValues(outcome).Inc()
	m.JobDurationSeconds.Observe(elapsed.Seconds())
}
