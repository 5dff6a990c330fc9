// Package metrics holds the Prometheus instruments shared by the agents.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for one agent process.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Requests      *prometheus.CounterVec // requests handled, by flow
	Fallbacks     *prometheus.CounterVec // user-facing fallback sentences returned, by reason
	LLMCalls      *prometheus.CounterVec // LLM round trips, by outcome
	Ingested      *prometheus.CounterVec // documents seen during ingestion, by outcome
	RetrievalHits prometheus.Histogram   // hits returned per retrieval query
}

// NewMetrics creates and registers the metrics for an agent instance.
// The agent name is attached as a constant label so several agents can share a registry.
func NewMetrics(reg prometheus.Registerer, agent string) *Metrics {
	labels := prometheus.Labels{"agent": agent}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "medtriage_requests_total",
		Help:        "Total number of requests handled per flow",
		ConstLabels: labels,
	}, []string{"flow"})

	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "medtriage_fallbacks_total",
		Help:        "Total number of fallback responses per reason",
		ConstLabels: labels,
	}, []string{"reason"})

	llmCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "medtriage_llm_calls_total",
		Help:        "Total number of LLM calls per outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	ingested := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "medtriage_ingested_documents_total",
		Help:        "Total number of documents processed during ingestion per outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	retrievalHits := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "medtriage_retrieval_hits",
		Help:        "Number of documents returned per retrieval query",
		ConstLabels: labels,
		Buckets:     []float64{0, 1, 2, 3, 4, 5, 10, 20},
	})

	reg.MustRegister(requests, fallbacks, llmCalls, ingested, retrievalHits)

	return &Metrics{
		Requests:      requests,
		Fallbacks:     fallbacks,
		LLMCalls:      llmCalls,
		Ingested:      ingested,
		RetrievalHits: retrievalHits,
	}
}

// Request counts one request for flow.
func (m *Metrics) Request(flow string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(flow).Inc()
}

// Fallback counts one fallback response for reason.
func (m *Metrics) Fallback(reason string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(reason).Inc()
}

// LLMCall counts one LLM call; err decides the outcome label.
func (m *Metrics) LLMCall(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.LLMCalls.WithLabelValues(outcome).Inc()
}

// Ingest adds n documents under outcome.
func (m *Metrics) Ingest(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Ingested.WithLabelValues(outcome).Add(float64(n))
}

// Retrieved observes the number of hits for one retrieval query.
func (m *Metrics) Retrieved(n int) {
	if m == nil {
		return
	}
	m.RetrievalHits.Observe(float64(n))
}
