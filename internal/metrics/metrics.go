// Package metrics exposes Prometheus instruments for document processing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple servers never clash
// on the global one.
type Metrics struct {
	registry   *prometheus.Registry
	documents  *prometheus.CounterVec
	fallbacks  *prometheus.CounterVec
	stages     *prometheus.HistogramVec
	queueDepth prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docseg",
			Name:      "documents_total",
			Help:      "Documents processed by operation, method and outcome.",
		}, []string{"operation", "method", "status"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docseg",
			Name:      "parse_fallbacks_total",
			Help:      "Parsing runs that degraded to verbatim page text.",
		}, []string{"method"}),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docseg",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each processing stage.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"stage"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "docseg",
			Name:      "job_queue_depth",
			Help:      "Jobs waiting for a worker.",
		}),
	}
	m.registry.MustRegister(
		m.documents,
		m.fallbacks,
		m.stages,
		m.queueDepth,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDocument counts one finished operation (load, chunk, parse).
func (m *Metrics) ObserveDocument(operation, method string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.documents.WithLabelValues(operation, method, status).Inc()
}

func (m *Metrics) ObserveFallback(method string) {
	m.fallbacks.WithLabelValues(method).Inc()
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.stages.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) SetQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}
