package graph

import (
	"context"
)

// StageKind defines the role of a stage within a graph.
type StageKind string

const (
	// StageKindTask is an ordinary processing stage with a single
	// unconditional successor.
	StageKindTask StageKind = "task"

	// StageKindDecision is a stage whose successor is chosen at run time by
	// a Router attached to its conditional edge.
	StageKindDecision StageKind = "decision"

	// StageKindJoin is a convergence stage that may only execute once every
	// branch able to reach it has settled.
	StageKindJoin StageKind = "join"
)

// Partial is the output of a single stage invocation: the set of state
// fields the stage adds or overwrites. Stages return only the fields they
// own; the executor merges the partial into the run's State.
type Partial map[string]any

// Handler is the contract every stage implements. It receives the full
// accumulated State (read access to all fields) and returns a partial
// update restricted by convention to the fields the stage owns.
//
// Handlers must not decide routing; a fatal error returned here aborts the
// entire run without retry.
type Handler interface {
	Run(ctx context.Context, state *State) (Partial, error)
}

// HandlerFunc is an adapter that allows using an ordinary function as a
// Handler. If f is a function with the appropriate signature, HandlerFunc(f)
// is a Handler that calls f.
type HandlerFunc func(ctx context.Context, state *State) (Partial, error)

// Run calls the underlying function, satisfying the Handler interface.
func (f HandlerFunc) Run(ctx context.Context, state *State) (Partial, error) {
	return f(ctx, state)
}

// Router chooses the successor of a decision stage. It inspects the updated
// State and returns one label from the fixed set declared on the owning
// conditional edge.
type Router func(state *State) string

// Stage is a named unit of work registered in a Graph.
type Stage struct {
	// Name uniquely identifies the stage within its graph.
	Name string

	// Kind classifies the stage. It is derived by the builder from the
	// graph topology: decision stages own a conditional edge, join stages
	// have more than one forward predecessor.
	Kind StageKind

	// Handler contains the processing logic for this stage.
	Handler Handler
}
