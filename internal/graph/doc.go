// Package graph provides the staged execution engine that drives draftflow
// pipelines: a fixed topology of named stages sharing one accumulating
// state record, with router-driven branching, bounded cycles, and a single
// fork/join for parallel branches.
//
// # Core Architecture
//
// The engine is built around a small set of components:
//
//   - Graph: an immutable, validated set of stages and transition rules
//   - Stage / Handler: a named unit of work returning a partial state update
//   - GraphBuilder: fluent API that accumulates errors and reports them at Build()
//   - State: the mutex-guarded, merge-only record threaded through a run
//   - Executor: sequences stage invocations, merges partials, evaluates routing
//   - CyclePolicy: the per-branch budget that keeps backward routing bounded
//
// # Topology
//
// Stages are registered in an authored order; an edge targeting a stage at
// or before its source in that order is backward and forms a cycle. Only
// conditional (router-driven) edges may be backward, and every backward
// edge must carry a CyclePolicy. Cycles formed purely by unconditional
// edges are rejected at build time, because nothing would bound them.
//
// A stage with more than one unconditional successor forks the run into
// parallel branches, each executing in its own goroutine against the shared
// State. Forked branches rely on field namespacing rather than locking to
// stay out of each other's way, and must converge on exactly one join
// stage. The join is a barrier: the last branch to arrive executes it, so
// the join observes every branch's writes.
//
// # Routing and Verdicts
//
// A decision stage owns a conditional edge with a fixed label set. Its
// Router inspects the updated State and returns one label; an undeclared
// label is a fatal error, never a silent default. Free-form review labels
// are collapsed onto the closed Verdict set (proceed, retry, abort,
// uncertain) by NormalizeVerdict before any router consults them, with
// unrecognized input mapping to uncertain.
//
// When a router requests a backward transition, the edge's CyclePolicy
// arbitrates: within budget the cycle is taken and the branch's counter
// increments; once exhausted the branch is forced onto the policy's
// fallback stage, the run is marked degraded, and an exhausted flag is
// written into the state for downstream stages to surface.
//
// # Errors
//
// The engine distinguishes configuration errors (GraphErrorConfigInvalid,
// GraphErrorUnknownLabel), which indicate a misbuilt topology or router and
// abort immediately, from handler errors (GraphErrorHandlerFailed), which
// wrap the stage's own error as the cause. Handler errors are never caught
// or retried by the engine; retry semantics belong to routing, not to
// error handling.
package graph
