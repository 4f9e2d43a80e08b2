// # internal/shared/observability/metrics.go
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deadvar_parsing_seconds",
		Help:    "Time spent parsing and analyzing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	FilesAnalyzed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "deadvar_files_analyzed_total",
		Help: "Number of source files with a cached analysis result.",
	})

	UnusedLocals = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "deadvar_unused_locals_total",
		Help: "Current number of unused local variable findings across all files.",
	})

	SuppressedScopes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "deadvar_suppressed_scopes_total",
		Help: "Current number of scopes excluded from evaluation by reflective escape hatches.",
	})

	AnalysisErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deadvar_analysis_errors_total",
		Help: "Total number of files that failed to parse or bind.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deadvar_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RescansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deadvar_rescans_total",
		Help: "Total number of incremental re-analyses triggered by file changes.",
	})

	HistoryWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "deadvar_history_write_seconds",
		Help:    "Latency for persisting a run snapshot to the history store.",
		Buckets: prometheus.DefBuckets,
	})
)
