package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the ingestion
// pipeline.
type Metrics struct {
	FilesProcessed prometheus.Counter
	FilesSkipped   prometheus.Counter
	FilesFailed    prometheus.Counter
	SheetsParsed   prometheus.Counter

	// RowsDropped counts deliberate drops by policy, labelled by reason:
	// bad_date, bad_number, bad_day_night.
	RowsDropped *prometheus.CounterVec

	ReadingsMerged  prometheus.Counter
	HourlyRefreshed prometheus.Counter
	DailyMerged     prometheus.Counter

	FileDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FilesProcessed,
		m.FilesSkipped,
		m.FilesFailed,
		m.SheetsParsed,
		m.RowsDropped,
		m.ReadingsMerged,
		m.HourlyRefreshed,
		m.DailyMerged,
		m.FileDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "noise_etl",
			Name:      "files_processed_total",
			Help:      "Source files ingested to completion.",
		}),
		FilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "noise_etl",
			Name:      "files_skipped_total",
			Help:      "Source files yielding zero records.",
		}),
		FilesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "noise_etl",
			Name:      "files_failed_total",
			Help:      "Source files whose transaction rolled back.",
		}),
		SheetsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "noise_etl",
			Name:      "sheets_parsed_total",
			Help:      "Sheets scanned for the header marker.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "noise_etl",
			Name:      "rows_dropped_total",
			Help:      "Rows and cells dropped by parse policy.",
		}, []string{"reason"}),
		ReadingsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "noise_etl",
			Name:      "readings_merged_total",
			Help:      "Raw readings written through merge-on-conflict.",
		}),
		HourlyRefreshed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "noise_etl",
			Name:      "hourly_levels_refreshed_total",
			Help:      "Hourly equivalent levels recomputed and merged.",
		}),
		DailyMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "noise_etl",
			Name:      "daily_levels_merged_total",
			Help:      "Daily levels written, supplied or derived.",
		}),
		FileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "noise_etl",
			Name:      "file_processing_duration_seconds",
			Help:      "Duration of a complete per-file ingest transaction.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}
