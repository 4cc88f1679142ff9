// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector records run, step and LLM metrics. It implements
// workflow.Hooks so the engine can report lifecycle events without
// depending on this package.
type Collector struct {
	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Run metrics
	runsStartedTotal   prometheus.Counter
	runsCompletedTotal prometheus.Counter
	runsFailedTotal    *prometheus.CounterVec

	// Step metrics
	stepDuration    *prometheus.HistogramVec
	stepErrorsTotal *prometheus.CounterVec

	// Checkpoint metrics
	checkpointSavesTotal *prometheus.CounterVec

	// LLM metrics
	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec
	llmTokensUsed      *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector creates a metrics collector registered on the default registry.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	return NewCollectorWith(namespace, prometheus.DefaultRegisterer, logger)
}

// NewCollectorWith creates a metrics collector on an explicit registerer.
func NewCollectorWith(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	factory := promauto.With(reg)
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP metrics
	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Run metrics
	c.runsStartedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Total number of runs started",
		},
	)

	c.runsCompletedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_completed_total",
			Help:      "Total number of runs completed",
		},
	)

	c.runsFailedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_failed_total",
			Help:      "Total number of runs failed",
		},
		[]string{"node"},
	)

	// Step metrics
	c.stepDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Workflow step duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"node"},
	)

	c.stepErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_errors_total",
			Help:      "Total number of step execution errors",
		},
		[]string{"node"},
	)

	// Checkpoint metrics
	c.checkpointSavesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoint_saves_total",
			Help:      "Total number of checkpoints persisted",
		},
		[]string{"status"},
	)

	// LLM metrics
	c.llmRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests",
		},
		[]string{"provider", "model", "status"},
	)

	c.llmRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	c.llmTokensUsed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of tokens used",
		},
		[]string{"provider", "model", "type"}, // type: prompt, completion
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordHTTPRequest records an HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordLLMRequest records an LLM request.
func (c *Collector) RecordLLMRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int) {
	c.llmRequestsTotal.WithLabelValues(provider, model, status).Inc()
	c.llmRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	c.llmTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	c.llmTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
}

// RunStarted implements workflow.Hooks.
func (c *Collector) RunStarted(runID string) {
	c.runsStartedTotal.Inc()
}

// RunCompleted implements workflow.Hooks.
func (c *Collector) RunCompleted(runID string) {
	c.runsCompletedTotal.Inc()
}

// RunFailed implements workflow.Hooks.
func (c *Collector) RunFailed(runID, node string) {
	c.runsFailedTotal.WithLabelValues(node).Inc()
}

// StepExecuted implements workflow.Hooks.
func (c *Collector) StepExecuted(node string, duration time.Duration, err error) {
	c.stepDuration.WithLabelValues(node).Observe(duration.Seconds())
	if err != nil {
		c.stepErrorsTotal.WithLabelValues(node).Inc()
	}
}

// CheckpointSaved implements workflow.Hooks. The status label is the run
// status the checkpoint was persisted with.
func (c *Collector) CheckpointSaved(runID, status string) {
	c.checkpointSavesTotal.WithLabelValues(status).Inc()
}

// statusCode maps an HTTP status code to its class label.
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
