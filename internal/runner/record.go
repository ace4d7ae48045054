// Package runner launches one test script as an isolated subprocess and
// reports its outcome.
package runner

import (
	"time"

	"github.com/vk/testgridgo/internal/artifacts"
)

// Outcome classifies how a script's execution ended.
type Outcome string

const (
	// OutcomeSuccess means the subprocess exited with status 0.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailed means the subprocess ran but exited nonzero.
	OutcomeFailed Outcome = "failed"
	// OutcomeError means the controller could not spawn or communicate with
	// the subprocess at all, distinct from the script's own logic failing.
	OutcomeError Outcome = "error"
)

// Record is the immutable result of one script execution. It is created by
// the executor, enriched with harvested artifacts, and then handed to the
// aggregator; nothing mutates it after that.
type Record struct {
	Script    string
	Outcome   Outcome
	ExitCode  int
	Stdout    string
	Stderr    string
	Cause     string
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
	Artifacts []artifacts.Record
}
