package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the runtime's Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Operation metrics
	OperationInvocationsTotal *prometheus.CounterVec
	StepExecutionsTotal       *prometheus.CounterVec
	StepDuration              *prometheus.HistogramVec

	// Runtime metrics
	PluginsLoaded  prometheus.Gauge
	LifecycleState prometheus.Gauge
}

// NewMetrics creates and registers all metrics against a fresh
// registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		OperationInvocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gantry_operation_invocations_total",
				Help: "Total number of operation invocations",
			},
			[]string{"operation", "strategy"},
		),
		StepExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gantry_step_executions_total",
				Help: "Total number of operation step executions",
			},
			[]string{"operation", "step", "status"},
		),
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gantry_step_duration_seconds",
				Help:    "Operation step execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "step"},
		),
		PluginsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gantry_plugins_loaded",
				Help: "Number of plugins in the resolved load order",
			},
		),
		LifecycleState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gantry_lifecycle_state",
				Help: "Current lifecycle state (0=idle, 1=initializing, 2=running, 3=terminating, 4=stopped)",
			},
		),
	}

	registry.MustRegister(
		m.OperationInvocationsTotal,
		m.StepExecutionsTotal,
		m.StepDuration,
		m.PluginsLoaded,
		m.LifecycleState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RecordInvocation counts one operation invocation.
func (m *Metrics) RecordInvocation(operation, strategy string) {
	if m == nil {
		return
	}
	m.OperationInvocationsTotal.WithLabelValues(operation, strategy).Inc()
}

// RecordStep counts one step execution with its outcome and duration.
func (m *Metrics) RecordStep(operation, step string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.StepExecutionsTotal.WithLabelValues(operation, step, status).Inc()
	m.StepDuration.WithLabelValues(operation, step).Observe(duration.Seconds())
}

// SetPluginsLoaded records the resolved plugin count.
func (m *Metrics) SetPluginsLoaded(n int) {
	if m == nil {
		return
	}
	m.PluginsLoaded.Set(float64(n))
}

// SetLifecycleState records the orchestrator's current state ordinal.
func (m *Metrics) SetLifecycleState(state int) {
	if m == nil {
		return
	}
	m.LifecycleState.Set(float64(state))
}

// Handler returns an HTTP handler serving the metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
