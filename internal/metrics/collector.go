// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector registers and updates the engine's Prometheus metrics.
type Collector struct {
	turnsTotal   *prometheus.CounterVec
	turnDuration *prometheus.HistogramVec
	turnErrors   *prometheus.CounterVec

	stageDuration *prometheus.HistogramVec

	routedIntents *prometheus.CounterVec

	workflowTasksTotal *prometheus.CounterVec

	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec

	checkpointWrites *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector creates a collector registering under the given namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{logger: logger.With(zap.String("component", "metrics"))}

	c.turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of conversation turns processed",
		},
		[]string{"status"},
	)
	c.turnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Conversation turn duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)
	c.turnErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turn_errors_total",
			Help:      "Turn failures by classified error kind",
		},
		[]string{"kind"},
	)
	c.stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
	c.routedIntents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routed_intents_total",
			Help:      "Routed intents by selected agent",
		},
		[]string{"intent", "agent"},
	)
	c.workflowTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_tasks_total",
			Help:      "Workflow tasks by final status",
		},
		[]string{"status"},
	)
	c.llmRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Language model requests by method and outcome",
		},
		[]string{"method", "outcome"},
	)
	c.llmRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Language model request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	c.checkpointWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoint_writes_total",
			Help:      "Checkpoint writes by outcome",
		},
		[]string{"outcome"},
	)

	return c
}

// RecordTurn records one finished turn.
func (c *Collector) RecordTurn(status string, duration time.Duration) {
	c.turnsTotal.WithLabelValues(status).Inc()
	c.turnDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordTurnError records a classified turn failure.
func (c *Collector) RecordTurnError(kind string) {
	c.turnErrors.WithLabelValues(kind).Inc()
}

// RecordStage records one pipeline stage's duration.
func (c *Collector) RecordStage(stage string, duration time.Duration) {
	c.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordRoute records a routed intent.
func (c *Collector) RecordRoute(intent, agent string) {
	c.routedIntents.WithLabelValues(intent, agent).Inc()
}

// RecordWorkflowTask records a workflow task outcome.
func (c *Collector) RecordWorkflowTask(status string) {
	c.workflowTasksTotal.WithLabelValues(status).Inc()
}

// RecordLLMRequest records a language model request.
func (c *Collector) RecordLLMRequest(method, outcome string, duration time.Duration) {
	c.llmRequestsTotal.WithLabelValues(method, outcome).Inc()
	c.llmRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordCheckpointWrite records a checkpoint persistence attempt.
func (c *Collector) RecordCheckpointWrite(outcome string) {
	c.checkpointWrites.WithLabelValues(outcome).Inc()
}
