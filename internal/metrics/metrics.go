// Package metrics exposes Prometheus metrics for retention runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cinesweep"

var (
	// RunsTotal counts orchestration runs by result (ok, cancelled, failed, empty).
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of retention runs",
		},
		[]string{"result"},
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of retention runs in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// ItemsClassified is the size of each outcome set from the latest run.
	ItemsClassified = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "items_classified",
			Help:      "Items per outcome in the latest run of each library",
		},
		[]string{"library", "outcome"},
	)

	ItemsDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_deleted_total",
			Help:      "Items deleted, by mode (automated, manual)",
		},
		[]string{"mode"},
	)

	CollectionReconciles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_reconciles_total",
			Help:      "Managed collection reconciliations by result (created, removed, failed)",
		},
		[]string{"result"},
	)

	LibraryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "library_failures_total",
			Help:      "Libraries whose processing failed during a run",
		},
		[]string{"library"},
	)
)

func init() {
	prometheus.MustRegister(
		RunsTotal,
		RunDuration,
		ItemsClassified,
		ItemsDeleted,
		CollectionReconciles,
		LibraryFailures,
	)
}
