package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PluginMetrics holds all Prometheus metrics
type PluginMetrics struct {
	// Execution metrics
	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration *prometheus.HistogramVec
	PipelineRunsTotal *prometheus.CounterVec

	// Discovery metrics
	DiscoverySkippedTotal prometheus.Counter

	// Sandbox metrics
	SandboxLoadsTotal     *prometheus.CounterVec
	SandboxTeardownsTotal prometheus.Counter
	InspectorCacheHits    prometheus.Counter
	InspectorCacheMisses  prometheus.Counter
	InspectorParsesShared prometheus.Counter
}

// NewPluginMetrics creates and registers all Prometheus metrics
func NewPluginMetrics(registry *prometheus.Registry) *PluginMetrics {
	m := &PluginMetrics{
		ExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plugkit_plugin_executions_total",
				Help: "Total number of plugin executions",
			},
			[]string{"plugin", "status"},
		),
		ExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "plugkit_plugin_execution_duration_seconds",
				Help:    "Plugin execution duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"plugin"},
		),
		PipelineRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plugkit_pipeline_runs_total",
				Help: "Total number of pipeline runs",
			},
			[]string{"status"},
		),

		DiscoverySkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "plugkit_discovery_skipped_total",
				Help: "Total number of plugin declarations skipped during discovery",
			},
		),

		SandboxLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plugkit_sandbox_loads_total",
				Help: "Total number of isolated image loads",
			},
			[]string{"status"},
		),
		SandboxTeardownsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "plugkit_sandbox_teardowns_total",
				Help: "Total number of isolated context teardowns",
			},
		),
		InspectorCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "plugkit_inspector_cache_hits_total",
				Help: "Total number of image inspections served from cache",
			},
		),
		InspectorCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "plugkit_inspector_cache_misses_total",
				Help: "Total number of image inspections that required parsing",
			},
		),
		InspectorParsesShared: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "plugkit_inspector_shared_parses_total",
				Help: "Total number of inspections that joined an in-flight parse",
			},
		),
	}

	registry.MustRegister(
		m.ExecutionsTotal,
		m.ExecutionDuration,
		m.PipelineRunsTotal,
		m.DiscoverySkippedTotal,
		m.SandboxLoadsTotal,
		m.SandboxTeardownsTotal,
		m.InspectorCacheHits,
		m.InspectorCacheMisses,
		m.InspectorParsesShared,
	)

	return m
}

// ObserveExecution records one plugin execution. Safe on a nil receiver.
func (m *PluginMetrics) ObserveExecution(plugin string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}

	m.ExecutionsTotal.WithLabelValues(plugin, status).Inc()
	m.ExecutionDuration.WithLabelValues(plugin).Observe(elapsed.Seconds())
}

// ObservePipelineRun records one pipeline run. Safe on a nil receiver.
func (m *PluginMetrics) ObservePipelineRun(err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	m.PipelineRunsTotal.WithLabelValues(status).Inc()
}

// ObserveDiscoverySkip records a skipped declaration. Safe on a nil receiver.
func (m *PluginMetrics) ObserveDiscoverySkip() {
	if m == nil {
		return
	}
	m.DiscoverySkippedTotal.Inc()
}

// ObserveSandboxLoad records an isolated load attempt. Safe on a nil receiver.
func (m *PluginMetrics) ObserveSandboxLoad(err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	m.SandboxLoadsTotal.WithLabelValues(status).Inc()
}

// ObserveSandboxTeardown records a context teardown. Safe on a nil receiver.
func (m *PluginMetrics) ObserveSandboxTeardown() {
	if m == nil {
		return
	}
	m.SandboxTeardownsTotal.Inc()
}

// ObserveInspection records whether an inspection hit the cache, parsed, or
// joined a parse already in flight. Safe on a nil receiver.
func (m *PluginMetrics) ObserveInspection(hit, shared bool) {
	if m == nil {
		return
	}

	switch {
	case hit:
		m.InspectorCacheHits.Inc()
	case shared:
		m.InspectorParsesShared.Inc()
	default:
		m.InspectorCacheMisses.Inc()
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
