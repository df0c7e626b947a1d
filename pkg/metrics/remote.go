package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(llmCalls, llmLatency, documentAICalls)
}

var (
	llmCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_calls_total",
			Help: "Language model calls by purpose and outcome.",
		},
		[]string{"purpose", "outcome"},
	)

	llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_latency_seconds",
			Help:    "Language model call latency.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 30},
		},
		[]string{"purpose"},
	)

	documentAICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_ai_calls_total",
			Help: "Document AI process calls by outcome.",
		},
		[]string{"outcome"},
	)
)

// ObserveLLM records one language model call. outcome is one of ok, error,
// empty or skipped.
func ObserveLLM(purpose, outcome string, took time.Duration) {
	llmCalls.WithLabelValues(norm(purpose), norm(outcome)).Inc()
	if took > 0 {
		llmLatency.WithLabelValues(norm(purpose)).Observe(took.Seconds())
	}
}

func DocumentAICall(outcome string) {
	documentAICalls.WithLabelValues(norm(outcome)).Inc()
}
