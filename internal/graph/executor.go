package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/draftflow-ai/draftflow/internal/events"
	"github.com/draftflow-ai/draftflow/internal/types"
)

// Executor drives a Graph from its entry stage to termination: it invokes
// each stage, merges the returned partial into the run's State, evaluates
// routing (including bounded cycles), and synchronizes parallel branches at
// the join stage. Stage side effects are opaque to it; it only sequences
// invocations and merges returned data, and it never catches or retries a
// handler error.
type Executor struct {
	logger *slog.Logger
	tracer trace.Tracer
	bus    events.Bus
}

// ExecutorOption is a functional option for configuring an Executor.
type ExecutorOption func(*Executor)

// WithLogger configures the executor to use the specified structured logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer configures the executor to use the specified OpenTelemetry
// tracer for per-run and per-stage spans.
func WithTracer(tracer trace.Tracer) ExecutorOption {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// WithEventBus configures the executor to publish run, stage, and routing
// lifecycle events to the given bus.
func WithEventBus(bus events.Bus) ExecutorOption {
	return func(e *Executor) {
		e.bus = bus
	}
}

// NewExecutor creates a new Executor with the specified options. By default
// it logs through slog.Default() and has no tracer or event bus.
func NewExecutor(opts ...ExecutorOption) *Executor {
	executor := &Executor{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(executor)
	}
	return executor
}

// Run executes the graph with the given seed fields and returns the final
// accumulated state. Concurrent calls on the same Executor and Graph are
// safe; each run owns an independent State and bookkeeping.
//
// The returned error is non-nil exactly when the run failed: a handler
// error (propagated with the handler's error as the cause), an unknown
// router label, or context cancellation. The RunResult is returned in both
// cases and carries the terminal status.
func (e *Executor) Run(ctx context.Context, g *Graph, seed map[string]any) (*RunResult, error) {
	runID := types.NewID()

	var span trace.Span
	if e.tracer != nil {
		ctx, span = e.tracer.Start(ctx, "graph.run",
			trace.WithAttributes(
				attribute.String("run.id", runID.String()),
				attribute.String("graph.name", g.name),
				attribute.Int("graph.stage_count", len(g.stages)),
			),
		)
		defer span.End()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := NewState(seed)
	state.markAppendKeys(g.appendKeys)
	r := newRun(runID, g, state, cancel)

	e.logger.InfoContext(ctx, "starting run",
		"run_id", runID,
		"graph", g.name,
		"entry", g.entry,
	)
	e.emit(ctx, events.NewEvent(events.EventRunStarted, runID).WithField("graph", g.name))

	startTime := time.Now()
	err := e.runBranch(ctx, r, g.entry, g.entry)
	result := e.buildResult(r, startTime, err)

	if err != nil {
		e.logger.ErrorContext(ctx, "run failed",
			"run_id", runID,
			"graph", g.name,
			"error", err,
		)
		e.emit(ctx, events.NewEvent(events.EventRunFailed, runID).WithField("error", err.Error()))
		return result, err
	}

	e.logger.InfoContext(ctx, "run completed",
		"run_id", runID,
		"graph", g.name,
		"duration", result.Duration,
		"degraded", result.Degraded,
	)
	e.emit(ctx, events.NewEvent(events.EventRunCompleted, runID).
		WithField("duration_ms", result.Duration.Milliseconds()).
		WithField("degraded", result.Degraded))
	return result, nil
}

// runBranch walks one branch from its starting stage until it settles at a
// terminal stage, arrives second-to-last at a join, or fails. The branch
// that arrives last at a join continues through it.
func (e *Executor) runBranch(ctx context.Context, r *run, branch, start string) error {
	current := start
	passedJoin := false

	for current != "" && current != End {
		select {
		case <-ctx.Done():
			return &GraphError{
				Code:    GraphErrorRunCancelled,
				Message: "run cancelled",
				Stage:   current,
				Cause:   ctx.Err(),
			}
		default:
		}

		stage := r.graph.StageByName(current)
		if stage == nil {
			return &GraphError{
				Code:    GraphErrorConfigInvalid,
				Message: fmt.Sprintf("stage %q is not registered", current),
			}
		}

		if r.graph.IsJoin(current) && !passedJoin {
			barrier := r.barrier(current)
			if barrier == nil {
				return &GraphError{
					Code:    GraphErrorConfigInvalid,
					Message: fmt.Sprintf("join stage %q reached before any fork", current),
					Stage:   current,
				}
			}
			e.emit(ctx, events.NewEvent(events.EventBranchSettled, r.id).
				WithBranch(branch).WithStage(current))
			if !barrier.arrive() {
				// Another branch is still working toward the join.
				return nil
			}
			passedJoin = true
		}

		if err := e.invokeStage(ctx, r, branch, stage); err != nil {
			return err
		}

		next, err := e.route(ctx, r, branch, current)
		if err != nil {
			return err
		}

		if len(next) > 1 {
			return e.fork(ctx, r, current, next)
		}
		if len(next) == 0 {
			current = End
			continue
		}
		current = next[0]
	}

	if r.isForked() && len(r.graph.joins) > 0 && !passedJoin {
		return &GraphError{
			Code:    GraphErrorConfigInvalid,
			Message: fmt.Sprintf("branch %q reached a terminal stage without converging on the join", branch),
		}
	}

	e.emit(ctx, events.NewEvent(events.EventBranchSettled, r.id).WithBranch(branch))
	return nil
}

// invokeStage runs one stage handler and merges its partial update.
func (e *Executor) invokeStage(ctx context.Context, r *run, branch string, stage *Stage) error {
	var span trace.Span
	if e.tracer != nil {
		ctx, span = e.tracer.Start(ctx, "graph.stage",
			trace.WithAttributes(
				attribute.String("stage.name", stage.Name),
				attribute.String("stage.kind", string(stage.Kind)),
				attribute.String("branch", branch),
			),
		)
		defer span.End()
	}

	r.recordVisit(stage.Name)
	e.logger.DebugContext(ctx, "invoking stage",
		"run_id", r.id,
		"stage", stage.Name,
		"branch", branch,
	)
	e.emit(ctx, events.NewEvent(events.EventStageStarted, r.id).
		WithStage(stage.Name).WithBranch(branch))

	startTime := time.Now()
	partial, err := stage.Handler.Run(ctx, r.state)
	duration := time.Since(startTime)

	if err != nil {
		e.emit(ctx, events.NewEvent(events.EventStageFailed, r.id).
			WithStage(stage.Name).WithBranch(branch).
			WithField("error", err.Error()))
		return &GraphError{
			Code:    GraphErrorHandlerFailed,
			Message: "stage handler failed",
			Stage:   stage.Name,
			Cause:   err,
		}
	}

	r.state.Apply(partial)

	e.emit(ctx, events.NewEvent(events.EventStageCompleted, r.id).
		WithStage(stage.Name).WithBranch(branch).
		WithField("duration_ms", duration.Milliseconds()).
		WithField("fields", len(partial)))
	return nil
}

// route determines the successor(s) of the stage just executed. It returns
// zero successors for a terminal stage, one for ordinary flow, or several
// when the stage forks the run.
func (e *Executor) route(ctx context.Context, r *run, branch, current string) ([]string, error) {
	g := r.graph

	ce := g.Conditional(current)
	if ce == nil {
		return g.Successors(current), nil
	}

	label := ce.Route(r.state)
	target, ok := ce.Targets[label]
	if !ok {
		return nil, &GraphError{
			Code:    GraphErrorUnknownLabel,
			Message: fmt.Sprintf("router returned undeclared label %q", label),
			Stage:   current,
		}
	}

	if target == End || !g.isBackward(current, target) || ce.Policy == nil {
		return []string{target}, nil
	}

	// Backward edge: the cycle is only taken within budget.
	p := ce.Policy
	counter := r.state.GetInt(p.CounterKey)
	next, increment, exhausted := p.decide(target, counter)

	if increment {
		r.state.Apply(Partial{p.CounterKey: counter + 1})
		e.logger.InfoContext(ctx, "taking cycle",
			"run_id", r.id,
			"stage", current,
			"branch", branch,
			"target", target,
			"cycle", counter+1,
			"max_cycles", p.MaxCycles,
		)
		e.emit(ctx, events.NewEvent(events.EventCycleTaken, r.id).
			WithStage(current).WithBranch(branch).
			WithField("label", label).
			WithField("cycle", counter+1))
	}

	if exhausted {
		r.state.Apply(Partial{p.ExhaustedKey(): true})
		r.markDegraded()
		e.logger.WarnContext(ctx, "cycle budget exhausted, forcing branch forward",
			"run_id", r.id,
			"stage", current,
			"branch", branch,
			"requested", target,
			"forced", next,
			"cycles", counter,
		)
		e.emit(ctx, events.NewEvent(events.EventBudgetExhausted, r.id).
			WithStage(current).WithBranch(branch).
			WithField("requested", target).
			WithField("forced", next))
	}

	return []string{next}, nil
}

// fork launches one goroutine per successor and waits for all of them. The
// branch that arrives last at the join continues through it inside its own
// goroutine, so by the time fork returns the whole downstream graph has
// settled. The first branch error cancels the remaining branches.
func (e *Executor) fork(ctx context.Context, r *run, from string, successors []string) error {
	r.prepareFork(len(successors))
	e.emit(ctx, events.NewEvent(events.EventBranchForked, r.id).
		WithStage(from).
		WithField("branches", append([]string(nil), successors...)))

	var wg sync.WaitGroup
	errCh := make(chan error, len(successors))

	for _, succ := range successors {
		wg.Add(1)
		go func(start string) {
			defer wg.Done()
			if err := e.runBranch(ctx, r, start, start); err != nil {
				errCh <- err
				r.cancel()
			}
		}(succ)
	}

	wg.Wait()
	close(errCh)

	// Report the first non-cancellation error if one exists; a branch
	// cancelled because a sibling failed is a symptom, not the cause.
	var firstErr error
	for err := range errCh {
		if firstErr == nil {
			firstErr = err
		}
		var ge *GraphError
		if asGraphError(err, &ge) && ge.Code != GraphErrorRunCancelled {
			return err
		}
	}
	return firstErr
}

// buildResult assembles the RunResult from the run bookkeeping.
func (e *Executor) buildResult(r *run, startTime time.Time, runErr error) *RunResult {
	status := RunStatusCompleted
	var ge *GraphError
	if runErr != nil {
		status = RunStatusFailed
		if asGraphError(runErr, &ge) && ge.Code == GraphErrorRunCancelled {
			status = RunStatusCancelled
		}
	}

	cycleCounts := make(map[string]int)
	for counterKey := range r.graph.CyclePolicies() {
		cycleCounts[counterKey] = r.state.GetInt(counterKey)
	}

	return &RunResult{
		RunID:       r.id,
		Graph:       r.graph.name,
		Status:      status,
		Final:       r.state.Snapshot(),
		Degraded:    r.isDegraded(),
		CycleCounts: cycleCounts,
		StageVisits: r.visitSnapshot(),
		Duration:    time.Since(startTime),
		Err:         ge,
	}
}

// emit publishes an event if a bus is configured. Delivery failures are
// ignored; observability must not fail a run.
func (e *Executor) emit(ctx context.Context, event events.Event) {
	if e.bus == nil {
		return
	}
	_ = e.bus.Publish(ctx, event)
}

// asGraphError unwraps err into a *GraphError if possible.
func asGraphError(err error, target **GraphError) bool {
	return errors.As(err, target)
}
