package graph

import (
	"time"

	"github.com/draftflow-ai/draftflow/internal/types"
)

// RunStatus represents the terminal status of a run.
type RunStatus string

const (
	// RunStatusCompleted indicates every branch reached a terminal stage.
	RunStatusCompleted RunStatus = "completed"

	// RunStatusFailed indicates a fatal error aborted the run.
	RunStatusFailed RunStatus = "failed"

	// RunStatusCancelled indicates the run's context was cancelled.
	RunStatusCancelled RunStatus = "cancelled"
)

// RunResult is the outcome of one executor run: the final accumulated state
// plus bookkeeping about how execution went.
type RunResult struct {
	// RunID uniquely identifies this run.
	RunID types.ID `json:"run_id"`

	// Graph is the name of the executed graph.
	Graph string `json:"graph"`

	// Status is the terminal run status.
	Status RunStatus `json:"status"`

	// Final is a snapshot of the complete accumulated state record.
	Final map[string]any `json:"final"`

	// Degraded is true when at least one branch exhausted its cycle budget
	// and was forced forward; the result stands but was not accepted by its
	// reviewing stage.
	Degraded bool `json:"degraded"`

	// CycleCounts reports the final value of every branch's cycle counter,
	// keyed by counter key.
	CycleCounts map[string]int `json:"cycle_counts,omitempty"`

	// StageVisits counts how many times each stage was invoked.
	StageVisits map[string]int `json:"stage_visits,omitempty"`

	// Duration is the wall-clock time of the run.
	Duration time.Duration `json:"duration"`

	// Err holds the fatal error for failed or cancelled runs.
	Err *GraphError `json:"error,omitempty"`
}

// Field returns a field from the final state snapshot.
func (r *RunResult) Field(key string) (any, bool) {
	value, ok := r.Final[key]
	return value, ok
}

// FieldString returns a final state field as a string, or "".
func (r *RunResult) FieldString(key string) string {
	value, ok := r.Final[key]
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}
