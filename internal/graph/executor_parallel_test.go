package graph

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parallelGraph builds the two-branch shape used by the parallel pipeline:
// an analysis stage forks into a visualization branch and a reporting
// branch, each with its own reviewer and cycle budget, converging on an
// assembly join.
func parallelGraph(t *testing.T, visReviewer, repReviewer Handler, maxCycles int) *Graph {
	t.Helper()

	assemble := HandlerFunc(func(ctx context.Context, state *State) (Partial, error) {
		return Partial{
			"assembled": fmt.Sprintf("%s + %s",
				state.GetString("vis_output"),
				state.GetString("rep_output")),
		}, nil
	})

	g, err := NewGraph("parallel").
		AddStage("analyze", writeHandler(Partial{"summary": "120 rows"})).
		AddStage("visualize", writeHandler(Partial{"vis_output": "plots"})).
		AddStage("vis_review", visReviewer).
		AddStage("report", writeHandler(Partial{"rep_output": "draft"})).
		AddStage("rep_review", repReviewer).
		AddStage("assemble", assemble).
		AddEdge("analyze", "visualize").
		AddEdge("analyze", "report").
		AddEdge("visualize", "vis_review").
		AddEdge("report", "rep_review").
		AddConditionalEdge("vis_review", verdictRouter("vis_decision"),
			map[string]string{"retry": "visualize", "proceed": "assemble"},
			&CyclePolicy{MaxCycles: maxCycles, CounterKey: "vis_cycles", Fallback: "assemble"}).
		AddConditionalEdge("rep_review", verdictRouter("rep_decision"),
			map[string]string{"retry": "report", "proceed": "assemble"},
			&CyclePolicy{MaxCycles: maxCycles, CounterKey: "rep_cycles", Fallback: "assemble"}).
		AddEdge("assemble", End).
		SetEntry("analyze").
		Build()
	require.NoError(t, err)
	return g
}

// TestForkJoinMergesBranches tests that both branches run, the join waits
// for both, and the assembled output sees both branches' fields.
func TestForkJoinMergesBranches(t *testing.T) {
	g := parallelGraph(t,
		scriptedReviewer("vis_decision", "ACCEPT"),
		scriptedReviewer("rep_decision", "ACCEPT"),
		2)

	result, err := NewExecutor().Run(context.Background(), g, nil)
	require.NoError(t, err)

	assert.Equal(t, RunStatusCompleted, result.Status)
	assert.False(t, result.Degraded)
	assert.Equal(t, "plots", result.FieldString("vis_output"))
	assert.Equal(t, "draft", result.FieldString("rep_output"))
	assert.Equal(t, "plots + draft", result.FieldString("assembled"))

	// The join executes exactly once, driven by the last arriving branch.
	assert.Equal(t, 1, result.StageVisits["assemble"])
	assert.Equal(t, 1, result.StageVisits["visualize"])
	assert.Equal(t, 1, result.StageVisits["report"])
	assert.Equal(t, 0, result.CycleCounts["vis_cycles"])
	assert.Equal(t, 0, result.CycleCounts["rep_cycles"])
}

// TestForkJoinOneBranchExhaustsBudget tests that the join still waits for a
// branch stuck in rework: the visualization reviewer never accepts, so that
// branch burns its budget and arrives degraded, while the reporting branch
// proceeds immediately. Both branches' outputs reach assembly.
func TestForkJoinOneBranchExhaustsBudget(t *testing.T) {
	g := parallelGraph(t,
		scriptedReviewer("vis_decision", "RERUN"),
		scriptedReviewer("rep_decision", "ACCEPT"),
		2)

	result, err := NewExecutor().Run(context.Background(), g, nil)
	require.NoError(t, err)

	assert.Equal(t, RunStatusCompleted, result.Status)
	assert.True(t, result.Degraded)

	assert.Equal(t, 3, result.StageVisits["visualize"])
	assert.Equal(t, 1, result.StageVisits["report"])
	assert.Equal(t, 1, result.StageVisits["assemble"])

	assert.Equal(t, 2, result.CycleCounts["vis_cycles"])
	assert.Equal(t, 0, result.CycleCounts["rep_cycles"])

	flag, ok := result.Field("vis_cycles_exhausted")
	require.True(t, ok)
	assert.Equal(t, true, flag)
	assert.False(t, result.Final["rep_cycles_exhausted"] == true)

	assert.Equal(t, "plots + draft", result.FieldString("assembled"))
}

// TestForkBranchErrorCancelsRun tests that a fatal error on one branch
// fails the whole run and is reported as the cause, not as a cancellation.
func TestForkBranchErrorCancelsRun(t *testing.T) {
	cause := errors.New("template render failed")
	failing := HandlerFunc(func(ctx context.Context, state *State) (Partial, error) {
		return nil, cause
	})

	g := parallelGraph(t,
		scriptedReviewer("vis_decision", "ACCEPT"),
		failing,
		2)

	result, err := NewExecutor().Run(context.Background(), g, nil)
	require.Error(t, err)

	var ge *GraphError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, GraphErrorHandlerFailed, ge.Code)
	assert.Equal(t, "rep_review", ge.Stage)
	require.ErrorIs(t, err, cause)

	assert.Equal(t, RunStatusFailed, result.Status)
	assert.Equal(t, 0, result.StageVisits["assemble"])
}

// TestParallelNamespaceIsolation runs the fork/join shape many times with
// divergent branch behavior and asserts on every iteration that the
// branches' namespaced fields and counters never bleed into each other.
func TestParallelNamespaceIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping 1000-iteration property test in short mode")
	}

	executor := NewExecutor()

	for i := 0; i < 1000; i++ {
		// The visualization branch retries once; the reporting branch
		// never accepts and exhausts its budget.
		g := parallelGraph(t,
			scriptedReviewer("vis_decision", "RERUN", "ACCEPT"),
			scriptedReviewer("rep_decision", "REJECT"),
			2)

		result, err := executor.Run(context.Background(), g, map[string]any{
			"iteration": i,
		})
		require.NoError(t, err, "iteration %d", i)

		require.Equal(t, RunStatusCompleted, result.Status, "iteration %d", i)
		require.Equal(t, i, result.Final["iteration"], "iteration %d", i)

		// Each counter reflects only its own branch's rework.
		require.Equal(t, 1, result.CycleCounts["vis_cycles"], "iteration %d", i)
		require.Equal(t, 2, result.CycleCounts["rep_cycles"], "iteration %d", i)

		// Only the reporting branch was forced forward.
		require.NotEqual(t, true, result.Final["vis_cycles_exhausted"], "iteration %d", i)
		require.Equal(t, true, result.Final["rep_cycles_exhausted"], "iteration %d", i)
		require.True(t, result.Degraded, "iteration %d", i)

		// Both branches' outputs survive the merge every time.
		require.Equal(t, "plots", result.FieldString("vis_output"), "iteration %d", i)
		require.Equal(t, "draft", result.FieldString("rep_output"), "iteration %d", i)
		require.Equal(t, "plots + draft", result.FieldString("assembled"), "iteration %d", i)

		require.Equal(t, 2, result.StageVisits["visualize"], "iteration %d", i)
		require.Equal(t, 3, result.StageVisits["report"], "iteration %d", i)
		require.Equal(t, 1, result.StageVisits["assemble"], "iteration %d", i)
	}
}
