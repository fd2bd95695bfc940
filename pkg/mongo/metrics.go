package mongo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AggregateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analyst_mongo_aggregate_duration_seconds",
			Help:    "Duration of successful aggregations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	AggregateErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyst_mongo_aggregate_errors_total",
			Help: "Aggregations rejected by the engine",
		},
	)

	StoredDocumentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyst_mongo_stored_documents_total",
			Help: "Documents inserted or replaced by ingestion",
		},
	)
)
