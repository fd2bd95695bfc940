package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerationFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyst_generation_failures_total",
			Help: "Generation calls that degraded to the sentinel response",
		},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analyst_generation_duration_seconds",
			Help:    "Duration of generation calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		},
	)

	LoopOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyst_loop_outcomes_total",
			Help: "Self-correction loop terminations by final state",
		},
		[]string{"state"},
	)

	LoopAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analyst_loop_attempts",
			Help:    "Number of pipeline attempts per request",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	LoopErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyst_loop_errors_total",
			Help: "Correctable loop errors by kind",
		},
		[]string{"kind"},
	)
)
