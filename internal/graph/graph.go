package graph

// End is the sentinel edge target marking the end of a branch. A stage with
// no outgoing edges is equally terminal; End exists so topologies can state
// termination explicitly.
const End = "__end__"

// ConditionalEdge routes a decision stage to one of a fixed set of
// successors. The Router returns a label; the label map resolves it to a
// stage. A label resolving to a stage registered earlier than the decision
// stage forms a cycle and is subject to the edge's CyclePolicy.
type ConditionalEdge struct {
	// From is the owning decision stage.
	From string

	// Route inspects the state and returns one of the declared labels.
	Route Router

	// Targets maps each declared label to its successor stage (or End).
	Targets map[string]string

	// Policy bounds backward transitions through this edge. Required when
	// any target precedes From in registration order.
	Policy *CyclePolicy
}

// Graph is a validated, immutable set of stages and transition rules.
// It is constructed once via GraphBuilder.Build and reused across runs;
// all per-run mutable data lives in the State and the executor's
// bookkeeping, never in the Graph.
type Graph struct {
	name         string
	stages       map[string]*Stage
	order        map[string]int
	edges        map[string][]string
	conditionals map[string]*ConditionalEdge
	entry        string
	appendKeys   []string
	joins        map[string]bool
}

// Name returns the graph's human-readable name.
func (g *Graph) Name() string {
	return g.name
}

// Entry returns the name of the entry stage.
func (g *Graph) Entry() string {
	return g.entry
}

// StageByName retrieves a registered stage, or nil if unknown.
func (g *Graph) StageByName(name string) *Stage {
	return g.stages[name]
}

// StageNames returns all registered stage names in registration order.
func (g *Graph) StageNames() []string {
	names := make([]string, len(g.stages))
	for name, idx := range g.order {
		names[idx] = name
	}
	return names
}

// Successors returns the unconditional successors of a stage.
func (g *Graph) Successors(name string) []string {
	return g.edges[name]
}

// Conditional returns the conditional edge owned by a stage, or nil.
func (g *Graph) Conditional(name string) *ConditionalEdge {
	return g.conditionals[name]
}

// IsJoin reports whether the stage is a convergence point requiring every
// branch to settle before it runs.
func (g *Graph) IsJoin(name string) bool {
	return g.joins[name]
}

// isBackward reports whether an edge from one stage to another runs against
// registration order, i.e. forms a cycle back to an equal or earlier stage.
func (g *Graph) isBackward(from, to string) bool {
	toIdx, ok := g.order[to]
	if !ok {
		return false
	}
	return toIdx <= g.order[from]
}

// CyclePolicies returns every cycle policy attached to the graph's
// conditional edges, keyed by counter key.
func (g *Graph) CyclePolicies() map[string]*CyclePolicy {
	policies := make(map[string]*CyclePolicy)
	for _, ce := range g.conditionals {
		if ce.Policy != nil {
			policies[ce.Policy.CounterKey] = ce.Policy
		}
	}
	return policies
}
