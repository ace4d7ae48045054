// Package artifacts harvests screenshot files produced by test scripts and
// turns them into transport-safe records.
package artifacts

import "time"

// Record is one harvested artifact, shaped for the result document. Data
// holds the base64-encoded file contents. StepNumber is assigned at harvest
// time, strictly increasing per script in capture order.
type Record struct {
	ScriptName  string    `json:"script_name"`
	StepName    string    `json:"step_name"`
	Description string    `json:"description"`
	Filename    string    `json:"filename"`
	Data        string    `json:"data"`
	Timestamp   time.Time `json:"timestamp"`
	StepNumber  int       `json:"step_number"`
}
