package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the chat client's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	providerTurns *prometheus.CounterVec
	toolCalls     *prometheus.CounterVec
	toolDuration  *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "litmus_chat_queries_total",
			Help: "Queries handled, by provider and outcome",
		}, []string{"provider", "outcome"}),
		queryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "litmus_chat_query_duration_seconds",
			Help:    "End-to-end query latency",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"provider", "mode"}),
		providerTurns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "litmus_chat_provider_turns_total",
			Help: "Provider round trips",
		}, []string{"provider"}),
		toolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "litmus_chat_tool_calls_total",
			Help: "Tool invocations, by tool and outcome",
		}, []string{"tool", "outcome"}),
		toolDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "litmus_chat_tool_call_duration_seconds",
			Help:    "Tool call latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
	}
}

// ObserveQuery records a finished query.
func (m *Metrics) ObserveQuery(provider, mode, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(provider, outcome).Inc()
	m.queryDuration.WithLabelValues(provider, mode).Observe(d.Seconds())
}

// IncProviderTurn counts one provider round trip.
func (m *Metrics) IncProviderTurn(provider string) {
	if m == nil {
		return
	}
	m.providerTurns.WithLabelValues(provider).Inc()
}

// ObserveToolCall records a finished tool call.
func (m *Metrics) ObserveToolCall(tool, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}
