// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_attempts_total",
			Help: "Backend generation calls by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	GenerationBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_batches_total",
			Help: "Total number of generation batches by final status",
		},
		[]string{"status"},
	)

	GenerationBatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_batch_duration_seconds",
			Help:    "Duration of a whole generation batch in seconds",
			Buckets: []float64{0.05, 0.5, 1, 5, 10, 20, 30, 45, 60, 90},
		},
		[]string{"status"},
	)

	GenerationWorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "generation_workers_active",
			Help: "Number of generation workers currently processing a task",
		},
	)

	RateLimitDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_decisions_total",
			Help: "Rate limiter decisions on the generate endpoint",
		},
		[]string{"decision"},
	)
)
