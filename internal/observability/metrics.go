package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures metric collection.
type MetricsConfig struct {
	Enabled   bool
	Namespace string
}

// Metrics holds the Prometheus collectors the orchestrator and HTTP
// surface record against. A nil *Metrics is valid: every method is a
// no-op receiver guard, so disabling metrics never requires call sites
// to branch on whether collection is turned on.
type Metrics struct {
	registry *prometheus.Registry

	toolIterations  *prometheus.CounterVec
	toolCallDur     *prometheus.HistogramVec
	llmCallDur      prometheus.Histogram
	orchTermination *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewMetrics builds a Metrics instance, or returns (nil, nil) when
// disabled.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "dataloom"
	}

	m := &Metrics{registry: prometheus.NewRegistry()}

	m.toolIterations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "tool_iterations_total",
		Help:      "Total number of tool calls dispatched by the orchestrator, by tool.",
	}, []string{"tool"})

	m.toolCallDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Name:      "tool_call_duration_seconds",
		Help:      "Duration of a single tool invocation.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms .. ~10s
	}, []string{"tool"})

	m.llmCallDur = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Name:      "llm_call_duration_seconds",
		Help:      "Duration of a chat-completion request to the LLM provider.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms .. ~204s
	})

	m.orchTermination = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "orchestrator_termination_total",
		Help:      "Total number of orchestrator runs, labeled by how they ended.",
	}, []string{"reason"})

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests served.",
	}, []string{"method", "path", "status"})

	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request handling duration.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	m.registry.MustRegister(
		m.toolIterations, m.toolCallDur, m.llmCallDur,
		m.orchTermination, m.httpRequests, m.httpDuration,
	)

	return m, nil
}

// RecordToolIteration increments the per-tool iteration counter.
func (m *Metrics) RecordToolIteration(tool string) {
	if m == nil {
		return
	}
	m.toolIterations.WithLabelValues(tool).Inc()
}

// RecordToolCall observes how long a tool invocation took.
func (m *Metrics) RecordToolCall(tool string, d time.Duration) {
	if m == nil {
		return
	}
	m.toolCallDur.WithLabelValues(tool).Observe(d.Seconds())
}

// RecordLLMCall observes how long a chat-completion request took.
func (m *Metrics) RecordLLMCall(d time.Duration) {
	if m == nil {
		return
	}
	m.llmCallDur.Observe(d.Seconds())
}

// RecordTermination increments the termination-reason counter. reason
// is one of "completed", "max_iterations", "timeout", "error".
func (m *Metrics) RecordTermination(reason string) {
	if m == nil {
		return
	}
	m.orchTermination.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// Handler returns the Prometheus scrape endpoint handler, or a 404
// stub when metrics are disabled.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "metrics disabled", http.StatusNotFound)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
