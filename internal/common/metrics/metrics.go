// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CleanerRowsRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cleaner_rows_read_total",
			Help: "Total number of raw rows read by the cleaner",
		},
	)

	CleanerRowsRetained = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cleaner_rows_retained_total",
			Help: "Total number of rows written to the cleaned table",
		},
	)

	CleanerRowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleaner_rows_dropped_total",
			Help: "Total number of raw rows filtered out, by reason",
		},
		[]string{"reason"},
	)

	CleanerChunksProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cleaner_chunks_processed_total",
			Help: "Total number of chunks processed by the cleaner",
		},
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifier_predictions_total",
			Help: "Total number of readiness predictions, by category",
		},
		[]string{"category"},
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classifier_prediction_duration_seconds",
			Help:    "Duration of a single-record prediction in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)

	AssessmentCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_cache_results_total",
			Help: "Assessment cache lookups, by result",
		},
		[]string{"result"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)
