// Package report accumulates per-script execution records into a run-level
// summary and persists it to the result document.
package report

import (
	"time"

	"github.com/vk/testgridgo/internal/artifacts"
)

// StatusSuccess and StatusFailed are the run-level status values of the
// result document.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Summary holds the run-level aggregate counts. Duration is in seconds,
// matching the schema consumers already parse.
type Summary struct {
	TotalTests          int       `json:"total_tests"`
	Passed              int       `json:"passed"`
	Failed              int       `json:"failed"`
	Duration            float64   `json:"duration"`
	ScreenshotsCaptured int       `json:"screenshots_captured"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	RunID               string    `json:"run_id,omitempty"`
}

// Result is the persisted record of one script execution.
type Result struct {
	ScriptName          string    `json:"script_name"`
	Status              string    `json:"status"`
	Duration            float64   `json:"duration"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	ScreenshotsCaptured int       `json:"screenshots_captured"`
	Error               string    `json:"error,omitempty"`
}

// Document is the whole result store: one summary, the per-script results of
// the latest run in completion order, and the screenshot history. The
// screenshot array may span multiple runs; Store.Save merges rather than
// truncates it unless a fresh document is requested.
type Document struct {
	Summary     Summary            `json:"summary"`
	Results     []Result           `json:"results"`
	Screenshots []artifacts.Record `json:"screenshots"`
	Status      string             `json:"status"`
}
