package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mohammad-safakhou/pestel/config"
)

// Telemetry provides run metrics and LLM cost tracking
type Telemetry struct {
	config   config.TelemetryConfig
	logger   *log.Logger
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	stageDuration *prometheus.HistogramVec
	llmRequests   *prometheus.CounterVec
	llmTokens     *prometheus.CounterVec
	searchQueries *prometheus.CounterVec

	costTracker *CostTracker
}

// CostTracker tracks LLM spend across models
type CostTracker struct {
	mu sync.RWMutex

	ModelCosts  map[string]float64 // model -> dollars
	TotalCost   float64
	TotalTokens int64
}

// NewTelemetry creates a new telemetry instance with its own metrics registry
func NewTelemetry(cfg config.TelemetryConfig) *Telemetry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	t := &Telemetry{
		config:   cfg,
		logger:   log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		registry: reg,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pestel_runs_total",
			Help: "Completed analysis runs by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pestel_run_duration_seconds",
			Help:    "End-to-end duration of analysis runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pestel_stage_duration_seconds",
			Help:    "Duration of pipeline stages per dimension.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"dimension", "stage"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pestel_llm_requests_total",
			Help: "LLM requests by model and result.",
		}, []string{"model", "result"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pestel_llm_tokens_total",
			Help: "LLM tokens by model and direction.",
		}, []string{"model", "direction"}),
		searchQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pestel_search_queries_total",
			Help: "Search queries issued by tag and result.",
		}, []string{"tag", "result"}),
		costTracker: &CostTracker{ModelCosts: make(map[string]float64)},
	}

	reg.MustRegister(t.runsTotal, t.runDuration, t.stageDuration, t.llmRequests, t.llmTokens, t.searchQueries)
	return t
}

// Registry exposes the metrics registry for the HTTP /metrics endpoint.
func (t *Telemetry) Registry() *prometheus.Registry { return t.registry }

// RecordRun records a completed (or failed) analysis run.
func (t *Telemetry) RecordRun(success bool, duration time.Duration) {
	if !t.config.Enabled {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	t.runsTotal.WithLabelValues(result).Inc()
	t.runDuration.Observe(duration.Seconds())
}

// RecordStage records the duration of one pipeline stage for one dimension.
func (t *Telemetry) RecordStage(dimension, stage string, duration time.Duration) {
	if !t.config.Enabled {
		return
	}
	t.stageDuration.WithLabelValues(dimension, stage).Observe(duration.Seconds())
}

// RecordSearch records an issued search query.
func (t *Telemetry) RecordSearch(tag string, err error) {
	if !t.config.Enabled {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	t.searchQueries.WithLabelValues(tag, result).Inc()
}

// RecordLLMUsage records token usage and cost for one LLM call.
func (t *Telemetry) RecordLLMUsage(model string, inputTokens, outputTokens int64, cost float64, err error) {
	if !t.config.Enabled {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	t.llmRequests.WithLabelValues(model, result).Inc()
	t.llmTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	t.llmTokens.WithLabelValues(model, "output").Add(float64(outputTokens))

	if !t.config.CostTracking {
		return
	}
	t.costTracker.mu.Lock()
	t.costTracker.ModelCosts[model] += cost
	t.costTracker.TotalCost += cost
	t.costTracker.TotalTokens += inputTokens + outputTokens
	t.costTracker.mu.Unlock()
}

// CostSummary returns total spend and token usage so far.
func (t *Telemetry) CostSummary() (float64, int64) {
	t.costTracker.mu.RLock()
	defer t.costTracker.mu.RUnlock()
	return t.costTracker.TotalCost, t.costTracker.TotalTokens
}
