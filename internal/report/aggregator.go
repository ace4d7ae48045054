package report

import (
	"sync"
	"time"

	"github.com/vk/testgridgo/internal/runner"
)

// Aggregator is the single synchronized accumulation point for execution
// records. Subprocess execution itself is unsynchronized; only the append
// here takes a lock. Records are kept in completion order, which is the
// order the result document presents them in.
type Aggregator struct {
	mu      sync.Mutex
	records []runner.Record
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Append adds one completed record. Safe for concurrent use.
func (a *Aggregator) Append(rec runner.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
}

// Len reports how many records have been appended so far.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// Failed reports how many appended records did not succeed.
func (a *Aggregator) Failed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	failed := 0
	for _, rec := range a.records {
		if rec.Outcome != runner.OutcomeSuccess {
			failed++
		}
	}
	return failed
}

// Records returns a copy of the accumulated records in completion order.
func (a *Aggregator) Records() []runner.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]runner.Record, len(a.records))
	copy(out, a.records)
	return out
}

// Finalize computes the run summary over everything appended so far and
// builds the result document. Records with an error outcome count as failed
// in the aggregate, so passed+failed always equals the total.
func (a *Aggregator) Finalize(start, end time.Time, runID string) Document {
	a.mu.Lock()
	defer a.mu.Unlock()

	doc := Document{
		Results: make([]Result, 0, len(a.records)),
	}
	passed, screenshots := 0, 0

	for _, rec := range a.records {
		if rec.Outcome == runner.OutcomeSuccess {
			passed++
		}
		screenshots += len(rec.Artifacts)
		doc.Results = append(doc.Results, Result{
			ScriptName:          rec.Script,
			Status:              string(rec.Outcome),
			Duration:            rec.Duration.Seconds(),
			StartTime:           rec.StartedAt,
			EndTime:             rec.EndedAt,
			ScreenshotsCaptured: len(rec.Artifacts),
			Error:               rec.Cause,
		})
		doc.Screenshots = append(doc.Screenshots, rec.Artifacts...)
	}

	doc.Summary = Summary{
		TotalTests:          len(a.records),
		Passed:              passed,
		Failed:              len(a.records) - passed,
		Duration:            end.Sub(start).Seconds(),
		ScreenshotsCaptured: screenshots,
		StartTime:           start,
		EndTime:             end,
		RunID:               runID,
	}
	doc.Status = StatusSuccess
	if doc.Summary.Failed > 0 {
		doc.Status = StatusFailed
	}
	return doc
}
