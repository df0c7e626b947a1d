package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(ingestionsTotal, ingestionDuration, lineSourceTotal, tasksCreatedTotal)
}

var (
	ingestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestions_total",
			Help: "PDF ingestions by terminal status.",
		},
		[]string{"status"},
	)

	ingestionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingestion_duration_seconds",
			Help:    "Wall time of a PDF ingestion from upload to terminal state.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"status"},
	)

	lineSourceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestion_line_source_total",
			Help: "Which detector produced the lines of an ingestion.",
		},
		[]string{"source"},
	)

	tasksCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingestion_tasks_created_total",
			Help: "Tasks created from uploaded documents.",
		},
	)
)

func ObserveIngestion(status string, took time.Duration, tasks int) {
	ingestionsTotal.WithLabelValues(norm(status)).Inc()
	ingestionDuration.WithLabelValues(norm(status)).Observe(took.Seconds())
	if tasks > 0 {
		tasksCreatedTotal.Add(float64(tasks))
	}
}

func LineSource(source string) {
	lineSourceTotal.WithLabelValues(norm(source)).Inc()
}
