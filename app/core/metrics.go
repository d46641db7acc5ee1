package core

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mindwell-ai/mindwell/pkg/metrics"
)

type Metrics struct {
	apiResponseTime      *prometheus.HistogramVec
	apiErrorCounter      *prometheus.CounterVec
	workflowResponseTime *prometheus.HistogramVec
	workflowError        *prometheus.CounterVec
	workflowInflight     *prometheus.GaugeVec
	contextLoadTime      *prometheus.HistogramVec
	sessionResolved      *prometheus.CounterVec
}

func NewMetrics(ns, system string) *Metrics {
	// setup metric
	metrics.SetupMetricsManager(ns, system, prometheus.NewRegistry())

	m := &Metrics{
		apiResponseTime:      metrics.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter:      metrics.NewCounterVec("api_error", []string{"method", "api", "status"}),
		workflowResponseTime: metrics.NewHistogramVec("workflow_response_time", []string{"driver"}),
		workflowError:        metrics.NewCounterVec("workflow_error", []string{"type"}),
		workflowInflight:     metrics.NewGaugeVec("workflow_inflight", []string{"driver"}),
		contextLoadTime:      metrics.NewHistogramVec("context_load_time", []string{"type"}),
		sessionResolved:      metrics.NewCounterVec("session_resolved", []string{"result"}),
	}

	return m
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

func (m *Metrics) WorkflowResponseTimer(driver string) *prometheus.Timer {
	return prometheus.NewTimer(m.workflowResponseTime.WithLabelValues(driver))
}

func (m *Metrics) WorkflowErrorInc(typ string) {
	m.workflowError.WithLabelValues(typ).Inc()
}

// WorkflowInflight 返回的函数用于结束本次计数
func (m *Metrics) WorkflowInflight(driver string) func() {
	g := m.workflowInflight.WithLabelValues(driver)
	g.Inc()
	return g.Dec
}

func (m *Metrics) ContextLoadTimer(typ string) *prometheus.Timer {
	return prometheus.NewTimer(m.contextLoadTime.WithLabelValues(typ))
}

func (m *Metrics) SessionResolvedInc(result string) {
	m.sessionResolved.WithLabelValues(result).Inc()
}
