// # internal/history/models.go
package history

import (
	"time"

	"github.com/google/uuid"
)

const SchemaVersion = 1

// Run is one persisted analysis pass over the configured paths.
type Run struct {
	ID              uuid.UUID     `json:"id"`
	SchemaVersion   int           `json:"schema_version"`
	Timestamp       time.Time     `json:"timestamp"`
	FileCount       int           `json:"file_count"`
	FindingCount    int           `json:"finding_count"`
	SuppressedCount int           `json:"suppressed_count"`
	ErrorCount      int           `json:"error_count"`
	Duration        time.Duration `json:"duration"`
}

// TrendPoint is a run enriched with deltas against the previous run.
type TrendPoint struct {
	Timestamp       time.Time `json:"timestamp"`
	FileCount       int       `json:"file_count"`
	FindingCount    int       `json:"finding_count"`
	SuppressedCount int       `json:"suppressed_count"`
	ErrorCount      int       `json:"error_count"`
	DeltaFindings   int       `json:"delta_findings"`
	DeltaFiles      int       `json:"delta_files"`
}

// Trend derives per-run deltas from runs ordered by timestamp.
func Trend(runs []Run) []TrendPoint {
	points := make([]TrendPoint, 0, len(runs))
	for i, run := range runs {
		point := TrendPoint{
			Timestamp:       run.Timestamp,
			FileCount:       run.FileCount,
			FindingCount:    run.FindingCount,
			SuppressedCount: run.SuppressedCount,
			ErrorCount:      run.ErrorCount,
		}
		if i > 0 {
			point.DeltaFindings = run.FindingCount - runs[i-1].FindingCount
			point.DeltaFiles = run.FileCount - runs[i-1].FileCount
		}
		points = append(points, point)
	}
	return points
}
