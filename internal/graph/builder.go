package graph

import (
	"fmt"
)

// GraphBuilder provides a fluent API for constructing graphs. It
// accumulates errors during building and reports them all at Build() time,
// so a misconfigured topology fails at construction rather than mid-run.
type GraphBuilder struct {
	graph  *Graph
	errors []error
}

// NewGraph creates a new GraphBuilder for a graph with the given name.
func NewGraph(name string) *GraphBuilder {
	return &GraphBuilder{
		graph: &Graph{
			name:         name,
			stages:       make(map[string]*Stage),
			order:        make(map[string]int),
			edges:        make(map[string][]string),
			conditionals: make(map[string]*ConditionalEdge),
			joins:        make(map[string]bool),
		},
	}
}

// AddStage registers a named stage with its handler. Registration order is
// significant: it defines the authored sequence against which backward
// (cyclic) edges are detected.
func (gb *GraphBuilder) AddStage(name string, handler Handler) *GraphBuilder {
	if name == "" {
		gb.errors = append(gb.errors, fmt.Errorf("stage must have a name"))
		return gb
	}
	if name == End {
		gb.errors = append(gb.errors, fmt.Errorf("stage name %q is reserved", End))
		return gb
	}
	if handler == nil {
		gb.errors = append(gb.errors, fmt.Errorf("stage %q must have a handler", name))
		return gb
	}
	if _, exists := gb.graph.stages[name]; exists {
		gb.errors = append(gb.errors, fmt.Errorf("stage %q already registered", name))
		return gb
	}

	gb.graph.order[name] = len(gb.graph.stages)
	gb.graph.stages[name] = &Stage{
		Name:    name,
		Kind:    StageKindTask,
		Handler: handler,
	}
	return gb
}

// AddEdge adds an unconditional edge. A stage with more than one
// unconditional successor forks the run into parallel branches.
func (gb *GraphBuilder) AddEdge(from, to string) *GraphBuilder {
	if from == "" || to == "" {
		gb.errors = append(gb.errors, fmt.Errorf("edge endpoints must be non-empty (%q -> %q)", from, to))
		return gb
	}
	gb.graph.edges[from] = append(gb.graph.edges[from], to)
	return gb
}

// AddConditionalEdge attaches router-driven routing to a decision stage.
// Labels returned by the router must be keys of targets; a label resolving
// to an earlier stage forms a cycle governed by the policy.
func (gb *GraphBuilder) AddConditionalEdge(from string, route Router, targets map[string]string, policy *CyclePolicy) *GraphBuilder {
	if from == "" {
		gb.errors = append(gb.errors, fmt.Errorf("conditional edge must have a non-empty 'from' stage"))
		return gb
	}
	if route == nil {
		gb.errors = append(gb.errors, fmt.Errorf("conditional edge from %q must have a router", from))
		return gb
	}
	if len(targets) == 0 {
		gb.errors = append(gb.errors, fmt.Errorf("conditional edge from %q must declare at least one label", from))
		return gb
	}
	if _, exists := gb.graph.conditionals[from]; exists {
		gb.errors = append(gb.errors, fmt.Errorf("stage %q already has a conditional edge", from))
		return gb
	}

	copied := make(map[string]string, len(targets))
	for label, to := range targets {
		copied[label] = to
	}

	gb.graph.conditionals[from] = &ConditionalEdge{
		From:    from,
		Route:   route,
		Targets: copied,
		Policy:  policy,
	}
	return gb
}

// SetEntry designates the entry stage for the graph.
func (gb *GraphBuilder) SetEntry(name string) *GraphBuilder {
	gb.graph.entry = name
	return gb
}

// MarkAppend declares a state key with list-append merge semantics.
func (gb *GraphBuilder) MarkAppend(key string) *GraphBuilder {
	if key == "" {
		gb.errors = append(gb.errors, fmt.Errorf("append key must be non-empty"))
		return gb
	}
	gb.graph.appendKeys = append(gb.graph.appendKeys, key)
	return gb
}

// Build validates the topology and returns the immutable graph or the
// accumulated configuration errors.
func (gb *GraphBuilder) Build() (*Graph, error) {
	g := gb.graph

	if len(g.stages) == 0 {
		gb.errors = append(gb.errors, fmt.Errorf("graph must have at least one stage"))
	}

	if g.entry == "" {
		gb.errors = append(gb.errors, fmt.Errorf("graph must have an entry stage"))
	} else if _, ok := g.stages[g.entry]; !ok {
		gb.errors = append(gb.errors, fmt.Errorf("entry stage %q is not registered", g.entry))
	}

	gb.validateEdges()
	gb.validateConditionals()
	gb.validateAcyclicUnconditional()
	gb.computeJoins()

	if len(gb.errors) > 0 {
		return nil, &GraphError{
			Code:    GraphErrorConfigInvalid,
			Message: fmt.Sprintf("graph validation failed with %d error(s): %v", len(gb.errors), gb.errors),
		}
	}

	return g, nil
}

// validateEdges checks that unconditional edges reference registered stages
// and that no stage mixes unconditional and conditional routing.
func (gb *GraphBuilder) validateEdges() {
	g := gb.graph

	for from, targets := range g.edges {
		if _, ok := g.stages[from]; !ok {
			gb.errors = append(gb.errors, fmt.Errorf("edge references unregistered 'from' stage %q", from))
		}
		for _, to := range targets {
			if to == End {
				continue
			}
			if _, ok := g.stages[to]; !ok {
				gb.errors = append(gb.errors, fmt.Errorf("edge %q -> %q references unregistered stage", from, to))
			}
		}
		if _, both := g.conditionals[from]; both {
			gb.errors = append(gb.errors, fmt.Errorf("stage %q has both unconditional and conditional edges", from))
		}
	}
}

// validateConditionals checks label targets, cycle policies, and marks
// decision stages.
func (gb *GraphBuilder) validateConditionals() {
	g := gb.graph
	counterKeys := make(map[string]string)

	for from, ce := range g.conditionals {
		stage, ok := g.stages[from]
		if !ok {
			gb.errors = append(gb.errors, fmt.Errorf("conditional edge references unregistered stage %q", from))
			continue
		}
		stage.Kind = StageKindDecision

		hasBackward := false
		for label, to := range ce.Targets {
			if to == End {
				continue
			}
			if _, ok := g.stages[to]; !ok {
				gb.errors = append(gb.errors, fmt.Errorf("label %q on stage %q targets unregistered stage %q", label, from, to))
				continue
			}
			if g.isBackward(from, to) {
				hasBackward = true
			}
		}

		if !hasBackward {
			continue
		}

		// A cycling edge needs a policy to stay bounded.
		if ce.Policy == nil {
			gb.errors = append(gb.errors, fmt.Errorf("stage %q has a backward label but no cycle policy", from))
			continue
		}
		p := ce.Policy
		if p.MaxCycles < 0 {
			gb.errors = append(gb.errors, fmt.Errorf("cycle policy on %q has negative MaxCycles", from))
		}
		if p.CounterKey == "" {
			gb.errors = append(gb.errors, fmt.Errorf("cycle policy on %q must have a counter key", from))
		} else if prev, dup := counterKeys[p.CounterKey]; dup {
			gb.errors = append(gb.errors, fmt.Errorf("cycle policies on %q and %q share counter key %q", prev, from, p.CounterKey))
		} else {
			counterKeys[p.CounterKey] = from
		}
		if p.mode() == PolicyModeForce {
			if p.Fallback == "" {
				gb.errors = append(gb.errors, fmt.Errorf("cycle policy on %q must have a fallback stage", from))
			} else if _, ok := g.stages[p.Fallback]; !ok && p.Fallback != End {
				gb.errors = append(gb.errors, fmt.Errorf("cycle policy on %q falls back to unregistered stage %q", from, p.Fallback))
			} else if p.Fallback != End && g.isBackward(from, p.Fallback) {
				gb.errors = append(gb.errors, fmt.Errorf("cycle policy on %q falls back to earlier stage %q", from, p.Fallback))
			}
		}
	}
}

// validateAcyclicUnconditional rejects cycles formed purely by
// unconditional edges: only conditional routing may loop, because only
// conditional routing is budgeted. Uses depth-first search with three
// colors: white (unvisited), gray (visiting), black (visited).
func (gb *GraphBuilder) validateAcyclicUnconditional() {
	g := gb.graph

	color := make(map[string]int, len(g.stages))

	var dfs func(name string, path []string) error
	dfs = func(name string, path []string) error {
		color[name] = 1
		path = append(path, name)

		for _, next := range g.edges[name] {
			if next == End {
				continue
			}
			if color[next] == 1 {
				return fmt.Errorf("unconditional edges form a cycle: %v", append(path, next))
			}
			if color[next] == 0 {
				if err := dfs(next, path); err != nil {
					return err
				}
			}
		}

		color[name] = 2
		return nil
	}

	for name := range g.stages {
		if color[name] == 0 {
			if err := dfs(name, nil); err != nil {
				gb.errors = append(gb.errors, err)
				return
			}
		}
	}
}

// computeJoins derives the convergence stages: stages with two or more
// distinct forward predecessors. Backward (cyclic) edges are re-visits,
// not convergences, and do not count. A graph that forks must converge on
// exactly one join stage.
func (gb *GraphBuilder) computeJoins() {
	g := gb.graph

	preds := make(map[string]map[string]bool)
	addPred := func(from, to string) {
		if to == End || g.isBackward(from, to) {
			return
		}
		if preds[to] == nil {
			preds[to] = make(map[string]bool)
		}
		preds[to][from] = true
	}

	forks := 0
	for from, targets := range g.edges {
		if len(targets) > 1 {
			forks++
		}
		for _, to := range targets {
			addPred(from, to)
		}
	}
	for from, ce := range g.conditionals {
		seen := make(map[string]bool)
		for _, to := range ce.Targets {
			if !seen[to] {
				seen[to] = true
				addPred(from, to)
			}
		}
	}

	for name, p := range preds {
		if len(p) >= 2 {
			g.joins[name] = true
			if stage := g.stages[name]; stage != nil {
				if stage.Kind == StageKindDecision {
					gb.errors = append(gb.errors, fmt.Errorf("stage %q cannot be both a join and a decision stage", name))
					continue
				}
				stage.Kind = StageKindJoin
			}
		}
	}

	if forks > 0 && len(g.joins) != 1 {
		gb.errors = append(gb.errors, fmt.Errorf("forking graph must converge on exactly one join stage, found %d", len(g.joins)))
	}
	if forks > 1 {
		gb.errors = append(gb.errors, fmt.Errorf("graph may fork at most once, found %d fork stages", forks))
	}
}
