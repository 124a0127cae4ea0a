// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_test_runs_received_total",
			Help: "Total number of image notifications delivered to the pipeline",
		},
	)

	RunsFilteredOut = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_test_runs_filtered_total",
			Help: "Total number of notifications filtered out as not applicable",
		},
	)

	RunsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_test_runs_failed_total",
			Help: "Total number of runs that ended in a terminal failure, by stage",
		},
		[]string{"stage"},
	)

	RunsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_test_runs_published_total",
			Help: "Total number of runs whose results were published",
		},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_test_run_duration_seconds",
			Help:    "Duration of one pipeline run in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"outcome"},
	)

	RunsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_test_runs_active",
			Help: "Number of pipeline runs currently in flight",
		},
	)
)
