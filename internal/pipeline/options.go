package pipeline

import (
	"github.com/draftflow-ai/draftflow/internal/dataset"
)

// Options configure a pipeline build.
type Options struct {
	// DataPath is the input dataset file.
	DataPath string

	// OutputDir receives cleaned data, chart descriptors, and reports.
	OutputDir string

	// Title is the report title.
	Title string

	// MaxCycles is the per-branch rework budget.
	MaxCycles int

	// Plan bounds the visualization plan.
	Plan dataset.PlanOptions
}

// DefaultOptions returns the standard pipeline settings.
func DefaultOptions() Options {
	return Options{
		OutputDir: "data/output",
		Title:     "Data Analysis Report",
		MaxCycles: 2,
		Plan:      dataset.DefaultPlanOptions(),
	}
}

// withDefaults fills zero-valued fields.
func (o Options) withDefaults() Options {
	defaults := DefaultOptions()
	if o.OutputDir == "" {
		o.OutputDir = defaults.OutputDir
	}
	if o.Title == "" {
		o.Title = defaults.Title
	}
	if o.MaxCycles == 0 {
		o.MaxCycles = defaults.MaxCycles
	}
	if o.Plan.MaxHistograms == 0 && o.Plan.MaxPairs == 0 && o.Plan.CorrThreshold == 0 {
		o.Plan = defaults.Plan
	}
	return o
}
