package config

import (
	"github.com/draftflow-ai/draftflow/internal/llm"
)

// Config is the root configuration for draftflow.
type Config struct {
	Pipeline PipelineConfig     `mapstructure:"pipeline" yaml:"pipeline" validate:"required"`
	LLM      llm.ProviderConfig `mapstructure:"llm" yaml:"llm" validate:"required"`
	Logging  LoggingConfig      `mapstructure:"logging" yaml:"logging"`
	Tracing  TracingConfig      `mapstructure:"tracing" yaml:"tracing"`
	History  HistoryConfig      `mapstructure:"history" yaml:"history"`
}

// PipelineConfig controls the analysis pipeline.
type PipelineConfig struct {
	// DataPath is the default input dataset.
	DataPath string `mapstructure:"data_path" yaml:"data_path"`

	// OutputDir receives cleaned data, chart descriptors, and reports.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir" validate:"required"`

	// Title is the report title.
	Title string `mapstructure:"title" yaml:"title"`

	// MaxCycles bounds each branch's rework loop.
	MaxCycles int `mapstructure:"max_cycles" yaml:"max_cycles" validate:"min=0,max=20"`

	// Parallel selects the two-branch topology.
	Parallel bool `mapstructure:"parallel" yaml:"parallel"`

	// MaxHistograms caps histogram charts in the visualization plan.
	MaxHistograms int `mapstructure:"max_histograms" yaml:"max_histograms" validate:"min=0,max=100"`

	// MaxPairs caps scatter charts in the visualization plan.
	MaxPairs int `mapstructure:"max_pairs" yaml:"max_pairs" validate:"min=0,max=100"`

	// CorrThreshold is the minimum absolute correlation for a scatter pair.
	CorrThreshold float64 `mapstructure:"corr_threshold" yaml:"corr_threshold" validate:"gte=0,lte=1"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`

	// Format is one of text, json.
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}

// TracingConfig controls span recording and export.
type TracingConfig struct {
	// Enabled turns span export on.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// SampleRate is the fraction of traces to record.
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate" validate:"gte=0,lte=1"`
}

// HistoryConfig controls the run history store.
type HistoryConfig struct {
	// Enabled turns run recording on.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Path is the SQLite database file.
	Path string `mapstructure:"path" yaml:"path"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			DataPath:      "data/input/winequality-red.csv",
			OutputDir:     "data/output",
			Title:         "Data Analysis Report",
			MaxCycles:     2,
			MaxHistograms: 10,
			MaxPairs:      10,
			CorrThreshold: 0.6,
		},
		LLM: llm.ProviderConfig{
			Type:        llm.ProviderOllama,
			Model:       "llama3",
			Temperature: 0,
			MaxTokens:   1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			Enabled:    false,
			SampleRate: 1,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "data/draftflow.db",
		},
	}
}
