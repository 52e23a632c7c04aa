package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/draftflow-ai/draftflow/internal/dataset"
	"github.com/draftflow-ai/draftflow/internal/graph"
)

// Analyst loads the input dataset, cleans it, writes the cleaned copy, and
// derives the visualization plan plus an insight summary for the stages
// downstream.
type Analyst struct {
	opts   Options
	logger *slog.Logger
}

// NewAnalyst creates the analysis stage.
func NewAnalyst(opts Options, logger *slog.Logger) *Analyst {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyst{opts: opts.withDefaults(), logger: logger}
}

// Run implements graph.Handler.
func (a *Analyst) Run(ctx context.Context, state *graph.State) (graph.Partial, error) {
	dataPath := state.GetString(KeyDataPath)
	if dataPath == "" {
		dataPath = a.opts.DataPath
	}

	table, err := dataset.Load(dataPath)
	if err != nil {
		return nil, err
	}

	report := dataset.Clean(table)
	a.logger.InfoContext(ctx, "cleaned dataset",
		"rows", report.Rows,
		"rows_removed", report.RowsRemoved,
		"columns_dropped", len(report.ColumnsDropped),
		"missing_imputed", report.MissingBefore-report.MissingAfter,
	)

	cleanedPath := filepath.Join(a.opts.OutputDir, "cleaned.csv")
	if err := dataset.WriteCSV(report.Table, cleanedPath); err != nil {
		return nil, err
	}

	plan := dataset.BuildPlan(report.Table, a.opts.Plan)

	return graph.Partial{
		KeyAnalysis: insights(report, plan),
		KeyDataPath: cleanedPath,
		KeyVizPlan:  plan,
	}, nil
}

// insights renders the cleaning and planning outcome as summary bullets.
func insights(report *dataset.CleanReport, plan dataset.VizPlan) string {
	numeric := report.Table.NumericColumns()
	bullets := []string{
		fmt.Sprintf("- Cleaned dataset: %d rows (%d removed), %d columns; missing values handled (%d -> %d).",
			report.Rows, report.RowsRemoved, report.Table.NumCols(),
			report.MissingBefore, report.MissingAfter),
		fmt.Sprintf("- Numeric columns: %s.", strings.Join(numeric, ", ")),
		"- Visualization plan: " + plan.Describe(),
	}
	return strings.Join(bullets, "\n")
}
