package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Ingestion metrics
	CasesIngested      prometheus.Counter
	IngestionsFailed   prometheus.Counter
	MentionsSkipped    prometheus.Counter
	VariationsRecorded *prometheus.CounterVec

	// Snapshot store metrics
	SnapshotSaves       *prometheus.CounterVec
	SnapshotSaveLatency prometheus.Histogram

	// Extraction boundary metrics
	ExtractionFailures *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		CasesIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cases_ingested_total",
			Help:      "Total number of cases folded into the three collections",
		}),
		IngestionsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestions_failed_total",
			Help:      "Total number of ingestion calls aborted before any state change",
		}),
		MentionsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "medication_mentions_skipped_total",
			Help:      "Total number of medication mentions skipped for missing a name",
		}),
		VariationsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "medication_variations_recorded_total",
			Help:      "Total number of new dosage/presentation variations recorded",
		}, []string{"stratum"}),

		SnapshotSaves: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_saves_total",
			Help:      "Total number of snapshot save attempts",
		}, []string{"status"}),
		SnapshotSaveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_save_duration_seconds",
			Help:      "Time spent persisting a snapshot",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),

		ExtractionFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_failures_total",
			Help:      "Total number of OCR/parse collaborator failures",
		}, []string{"stage"}),
	}
}
