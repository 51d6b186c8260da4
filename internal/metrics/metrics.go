// Package metrics exposes fleet state and orchestrator operation outcomes to
// Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JEMeyer/ai-maestro/internal/domain"
)

const namespace = "ai_maestro"

// OperationMetrics counts and times orchestrator operations.
// A nil *OperationMetrics discards observations.
type OperationMetrics struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	orphans  *prometheus.CounterVec
}

// NewOperationMetrics creates the operation metric vectors
func NewOperationMetrics() *OperationMetrics {
	return &OperationMetrics{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Orchestrator operations by outcome.",
		}, []string{"operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of orchestrator operations.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"operation"}),
		orphans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphaned_containers_total",
			Help:      "Containers left running without a running worker record.",
		}, []string{"server"}),
	}
}

// Observe records one finished operation. The result label is "success" or
// the error kind.
func (m *OperationMetrics) Observe(operation string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.total.WithLabelValues(operation, ResultLabel(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Orphaned counts one orphaned container on server
func (m *OperationMetrics) Orphaned(server string) {
	if m == nil {
		return
	}
	m.orphans.WithLabelValues(server).Inc()
}

// ResultLabel maps an operation error to its metric label
func ResultLabel(err error) string {
	if err == nil {
		return "success"
	}
	var opErr *domain.OperationError
	if errors.As(err, &opErr) {
		return string(opErr.Kind)
	}
	return string(domain.Classify(err))
}

// Describe implements prometheus.Collector
func (m *OperationMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.total.Describe(ch)
	m.duration.Describe(ch)
	m.orphans.Describe(ch)
}

// Collect implements prometheus.Collector
func (m *OperationMetrics) Collect(ch chan<- prometheus.Metric) {
	m.total.Collect(ch)
	m.duration.Collect(ch)
	m.orphans.Collect(ch)
}

// NewRegistry registers the given collectors alongside the Go runtime and
// process collectors
func NewRegistry(cs ...prometheus.Collector) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	all := append([]prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}, cs...)
	for _, c := range all {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Handler serves the registry in the Prometheus exposition format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
