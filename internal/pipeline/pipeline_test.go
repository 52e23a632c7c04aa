package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftflow-ai/draftflow/internal/dataset"
	"github.com/draftflow-ai/draftflow/internal/graph"
	"github.com/draftflow-ai/draftflow/internal/llm"
)

// sampleCSV is a small dataset with correlated numeric columns, a
// duplicate row, and a missing cell.
const sampleCSV = `Fixed Acidity,volatile acidity,alcohol,quality
7.4,0.70,9.4,5
7.8,0.88,9.8,5
7.8,0.88,9.8,5
11.2,,9.8,6
7.4,0.66,12.3,7
6.7,0.58,10.5,6
`

// writeSampleData writes the sample dataset and returns its path plus a
// fresh output directory.
func writeSampleData(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "input.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte(sampleCSV), 0o644))
	return dataPath, filepath.Join(dir, "output")
}

// testOptions returns pipeline options pointed at the sample data.
func testOptions(t *testing.T) Options {
	t.Helper()
	dataPath, outDir := writeSampleData(t)
	opts := DefaultOptions()
	opts.DataPath = dataPath
	opts.OutputDir = outDir
	return opts
}

// TestAnalystStage tests loading, cleaning, and planning in one pass.
func TestAnalystStage(t *testing.T) {
	opts := testOptions(t)
	analyst := NewAnalyst(opts, nil)

	state := graph.NewState(nil)
	partial, err := analyst.Run(context.Background(), state)
	require.NoError(t, err)

	// Headers normalized, duplicate dropped, missing cell imputed.
	analysis, ok := partial[KeyAnalysis].(string)
	require.True(t, ok)
	assert.Contains(t, analysis, "5 rows (1 removed)")
	assert.Contains(t, analysis, "fixed_acidity")

	cleanedPath, ok := partial[KeyDataPath].(string)
	require.True(t, ok)
	cleaned, err := dataset.Load(cleanedPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"fixed_acidity", "volatile_acidity", "alcohol", "quality"},
		cleaned.Headers)
	assert.Equal(t, 5, cleaned.NumRows())
	assert.Equal(t, 0, cleaned.CountMissing())

	plan, ok := partial[KeyVizPlan].(dataset.VizPlan)
	require.True(t, ok)
	assert.NotEmpty(t, plan.Histograms)
	assert.True(t, plan.Heatmap)
}

// TestVisualizerStage tests chart descriptor generation from a seeded
// state.
func TestVisualizerStage(t *testing.T) {
	opts := testOptions(t)

	analyst := NewAnalyst(opts, nil)
	state := graph.NewState(nil)
	partial, err := analyst.Run(context.Background(), state)
	require.NoError(t, err)
	state.Apply(partial)

	visualizer := NewVisualizer(opts, "", nil)
	partial, err = visualizer.Run(context.Background(), state)
	require.NoError(t, err)

	plots, ok := partial[KeyPlots].([]string)
	require.True(t, ok)
	require.NotEmpty(t, plots)

	// Heatmap is planned (4 numeric columns) and every descriptor is
	// valid JSON with a type.
	var sawHeatmap bool
	for _, plot := range plots {
		data, err := os.ReadFile(plot)
		require.NoError(t, err)

		var chart Chart
		require.NoError(t, json.Unmarshal(data, &chart))
		assert.NotEmpty(t, chart.Type)
		if chart.Type == "heatmap" {
			sawHeatmap = true
			assert.Len(t, chart.Matrix, len(chart.Columns))
		}
	}
	assert.True(t, sawHeatmap)
}

// TestVisualizerSkipsUnknownPlanColumns tests that a stale plan entry is
// skipped rather than failing the stage.
func TestVisualizerSkipsUnknownPlanColumns(t *testing.T) {
	opts := testOptions(t)

	analyst := NewAnalyst(opts, nil)
	state := graph.NewState(nil)
	partial, err := analyst.Run(context.Background(), state)
	require.NoError(t, err)
	state.Apply(partial)

	state.Apply(graph.Partial{KeyVizPlan: dataset.VizPlan{
		Histograms: []string{"alcohol", "no_such_column"},
	}})

	visualizer := NewVisualizer(opts, "", nil)
	partial, err = visualizer.Run(context.Background(), state)
	require.NoError(t, err)

	plots := partial[KeyPlots].([]string)
	require.Len(t, plots, 1)
	assert.Contains(t, plots[0], "hist_alcohol")
}

// TestReporterStage tests draft rendering with and without prior feedback.
func TestReporterStage(t *testing.T) {
	opts := testOptions(t)
	reporter := NewReporter(opts, "", nil)

	state := graph.NewState(map[string]any{
		KeyAnalysis: "- Cleaned dataset: 5 rows.",
		KeyPlots:    []string{"plots/hist_alcohol.json"},
	})

	partial, err := reporter.Run(context.Background(), state)
	require.NoError(t, err)

	markdown := partial[KeyReportMarkdown].(string)
	assert.Contains(t, markdown, "# Data Analysis Report")
	assert.Contains(t, markdown, "- Cleaned dataset: 5 rows.")
	assert.Contains(t, markdown, "hist_alcohol.json")
	assert.NotContains(t, markdown, "## Review")

	reportPath := partial[KeyReportPath].(string)
	onDisk, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Equal(t, markdown, string(onDisk))

	// A rework cycle sees the previous review.
	state.Apply(graph.Partial{
		KeyCriticDecision: "retry",
		KeyCriticNotes:    "RERUN",
	})
	partial, err = reporter.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Contains(t, partial[KeyReportMarkdown].(string), "## Review")
	assert.Contains(t, partial[KeyReportMarkdown].(string), "Decision: retry")
}

// TestCriticStage tests prompt construction and verdict recording.
func TestCriticStage(t *testing.T) {
	mock := llm.NewMockProvider("RERUN")
	critic := NewCritic(mock, "", nil)

	state := graph.NewState(map[string]any{
		KeyReportMarkdown: "# Report\n\nContent.",
	})

	partial, err := critic.Run(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, "RERUN", partial[KeyCriticRaw])
	assert.Equal(t, "retry", partial[KeyCriticDecision])

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "ONE WORD ONLY")
	assert.Contains(t, calls[0].Prompt, "# Report")
	assert.Equal(t, 8, calls[0].MaxTokens)
}

// TestCriticStageNoDraft tests that reviewing nothing is a stage error.
func TestCriticStageNoDraft(t *testing.T) {
	critic := NewCritic(llm.NewMockProvider("ACCEPT"), "", nil)

	_, err := critic.Run(context.Background(), graph.NewState(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no report draft")
}

// TestCriticStageTruncatesLongDrafts tests the review size cap.
func TestCriticStageTruncatesLongDrafts(t *testing.T) {
	mock := llm.NewMockProvider("ACCEPT")
	critic := NewCritic(mock, "", nil)

	state := graph.NewState(map[string]any{
		KeyReportMarkdown: strings.Repeat("x", maxReportChars*2),
	})

	_, err := critic.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Less(t, len(mock.Calls()[0].Prompt), maxReportChars+1000)
}

// TestReviewRouter tests the verdict-to-label mapping.
func TestReviewRouter(t *testing.T) {
	router := ReviewRouter("")

	tests := []struct {
		decision string
		want     string
	}{
		{"proceed", "proceed"},
		{"retry", "retry"},
		{"abort", "retry"},
		{"uncertain", "retry"},
		{"", "retry"},
	}
	for _, tt := range tests {
		state := graph.NewState(map[string]any{KeyCriticDecision: tt.decision})
		assert.Equal(t, tt.want, router(state), "decision %q", tt.decision)
	}
}
