package graph

import (
	"context"
	"sync"

	"github.com/draftflow-ai/draftflow/internal/types"
)

// joinBarrier blocks entry to a convergence stage until every forked branch
// has arrived. The last branch to arrive continues through the join; the
// others settle. The barrier's mutex also establishes the happens-before
// relationship between each branch's final state writes and the join
// stage's reads.
type joinBarrier struct {
	mu       sync.Mutex
	expected int
	arrived  int
}

// arrive records one branch reaching the barrier and reports whether the
// caller is the last expected arrival and should execute the join.
func (b *joinBarrier) arrive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.arrived++
	return b.arrived == b.expected
}

// run holds the mutable bookkeeping for a single executor run. The Graph
// is shared, immutable configuration; everything that changes during
// execution lives here or in the State.
type run struct {
	id     types.ID
	graph  *Graph
	state  *State
	cancel context.CancelFunc

	mu       sync.Mutex
	visits   map[string]int
	degraded bool
	forked   bool
	barriers map[string]*joinBarrier
}

func newRun(id types.ID, g *Graph, state *State, cancel context.CancelFunc) *run {
	return &run{
		id:       id,
		graph:    g,
		state:    state,
		cancel:   cancel,
		visits:   make(map[string]int),
		barriers: make(map[string]*joinBarrier),
	}
}

// recordVisit counts a stage invocation.
func (r *run) recordVisit(stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visits[stage]++
}

// visitSnapshot returns a copy of the per-stage invocation counts.
func (r *run) visitSnapshot() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.visits))
	for stage, count := range r.visits {
		out[stage] = count
	}
	return out
}

// markDegraded flags the run as having forced a branch past an exhausted
// cycle budget.
func (r *run) markDegraded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.degraded = true
}

func (r *run) isDegraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded
}

// prepareFork registers the barrier expectations for a fork of the given
// width. Every join stage expects one arrival per forked branch.
func (r *run) prepareFork(width int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forked = true
	for join := range r.graph.joins {
		r.barriers[join] = &joinBarrier{expected: width}
	}
}

func (r *run) isForked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.forked
}

// barrier returns the join barrier for a stage. Only valid after
// prepareFork has run, which the topology guarantees: a join stage is only
// reachable downstream of the fork.
func (r *run) barrier(join string) *joinBarrier {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.barriers[join]
}
