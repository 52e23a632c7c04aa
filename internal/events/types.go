package events

import (
	"time"

	"github.com/draftflow-ai/draftflow/internal/types"
)

// EventType identifies the category and nature of an event emitted during a
// pipeline run.
type EventType string

// Run lifecycle events.
// These events track the overall run execution lifecycle.
const (
	EventRunStarted   EventType = "run.started"
	EventRunCompleted EventType = "run.completed"
	EventRunFailed    EventType = "run.failed"
)

// Stage execution events.
// These events track individual stage invocations within a run.
const (
	EventStageStarted   EventType = "stage.started"
	EventStageCompleted EventType = "stage.completed"
	EventStageFailed    EventType = "stage.failed"
)

// Routing events.
// These events track conditional routing decisions, cycles, and budgets.
const (
	EventCycleTaken      EventType = "route.cycle_taken"
	EventBudgetExhausted EventType = "route.budget_exhausted"
	EventBranchSettled   EventType = "branch.settled"
	EventBranchForked    EventType = "branch.forked"
)

// Event is a single observability event with enough context to correlate it
// back to a run, branch, and stage.
type Event struct {
	// Type categorizes the event.
	Type EventType `json:"type"`

	// RunID identifies the run that produced the event.
	RunID types.ID `json:"run_id"`

	// Stage is the stage name, for stage-scoped events.
	Stage string `json:"stage,omitempty"`

	// Branch is the logical branch name, for branch-scoped events.
	Branch string `json:"branch,omitempty"`

	// Timestamp records when the event was created.
	Timestamp time.Time `json:"timestamp"`

	// Fields carries event-specific payload data (durations, labels,
	// cycle counts, error text).
	Fields map[string]any `json:"fields,omitempty"`
}

// NewEvent creates an event of the given type with the timestamp set to now.
func NewEvent(eventType EventType, runID types.ID) Event {
	return Event{
		Type:      eventType,
		RunID:     runID,
		Timestamp: time.Now(),
		Fields:    make(map[string]any),
	}
}

// WithStage returns a copy of the event with the stage name set.
func (e Event) WithStage(stage string) Event {
	e.Stage = stage
	return e
}

// WithBranch returns a copy of the event with the branch name set.
func (e Event) WithBranch(branch string) Event {
	e.Branch = branch
	return e
}

// WithField returns a copy of the event with an additional payload field.
// The Fields map is copied so derived events do not share storage.
func (e Event) WithField(key string, value any) Event {
	fields := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields[k] = v
	}
	fields[key] = value
	e.Fields = fields
	return e
}

// Filter selects a subset of events for a subscriber.
// Zero-valued fields match everything.
type Filter struct {
	// Types restricts delivery to the listed event types.
	Types []EventType

	// RunID restricts delivery to events from a single run.
	RunID types.ID

	// Branch restricts delivery to events from a single branch.
	Branch string
}

// Matches reports whether the event passes the filter.
func (f Filter) Matches(e Event) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if t == e.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.RunID.IsZero() && f.RunID != e.RunID {
		return false
	}
	if f.Branch != "" && f.Branch != e.Branch {
		return false
	}
	return true
}
