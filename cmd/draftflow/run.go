package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/draftflow-ai/draftflow/internal/dataset"
	"github.com/draftflow-ai/draftflow/internal/events"
	"github.com/draftflow-ai/draftflow/internal/graph"
	"github.com/draftflow-ai/draftflow/internal/history"
	"github.com/draftflow-ai/draftflow/internal/llm"
	"github.com/draftflow-ai/draftflow/internal/observability"
	"github.com/draftflow-ai/draftflow/internal/pipeline"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the analysis pipeline against a dataset",
	Long: `Run the full pipeline: clean the dataset, render visualizations,
draft a report, and submit it for LLM review. Rejected or ambiguous
reviews trigger rework within the cycle budget.

Examples:
  # Sequential pipeline with defaults from draftflow.yaml
  draftflow run --data data/input/winequality-red.csv

  # Parallel visualizer and reporter branches
  draftflow run --data sales.csv --parallel

  # Tight review budget, JSON result for scripting
  draftflow run --data sales.csv --max-cycles 1 --output json`,
	Args: cobra.NoArgs,
	RunE: runRunCommand,
}

// Run command flags
var (
	runDataPath  string
	runOutputDir string
	runTitle     string
	runParallel  bool
	runMaxCycles int
	runOutput    string
)

func init() {
	runCmd.Flags().StringVar(&runDataPath, "data", "", "Input dataset file (.csv, .tsv, .txt)")
	runCmd.Flags().StringVar(&runOutputDir, "out", "", "Output directory for cleaned data, charts, and reports")
	runCmd.Flags().StringVar(&runTitle, "title", "", "Report title")
	runCmd.Flags().BoolVar(&runParallel, "parallel", false, "Run visualizer and reporter branches concurrently")
	runCmd.Flags().IntVar(&runMaxCycles, "max-cycles", 0, "Per-branch review rework budget")
	runCmd.Flags().StringVar(&runOutput, "output", "text", "Output format: text or json")
}

func runRunCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	applyRunFlags(cmd)

	if cfg.Pipeline.DataPath == "" {
		return fmt.Errorf("no dataset: set --data or pipeline.data_path in the config")
	}
	if runOutput != "text" && runOutput != "json" {
		return fmt.Errorf("invalid output format %q (expected text or json)", runOutput)
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger := observability.NewLogger(os.Stderr, level, cfg.Logging.Format)

	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:    cfg.Tracing.Enabled,
		SampleRate: cfg.Tracing.SampleRate,
	})
	if err != nil {
		return err
	}
	defer func() { _ = tp.Shutdown(ctx) }()

	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		DataPath:  cfg.Pipeline.DataPath,
		OutputDir: cfg.Pipeline.OutputDir,
		Title:     cfg.Pipeline.Title,
		MaxCycles: cfg.Pipeline.MaxCycles,
		Plan: dataset.PlanOptions{
			MaxHistograms: cfg.Pipeline.MaxHistograms,
			MaxPairs:      cfg.Pipeline.MaxPairs,
			CorrThreshold: cfg.Pipeline.CorrThreshold,
		},
	}

	var g *graph.Graph
	if cfg.Pipeline.Parallel {
		g, err = pipeline.NewParallel(opts, provider, logger)
	} else {
		g, err = pipeline.NewSequential(opts, provider, logger)
	}
	if err != nil {
		return err
	}

	bus := events.NewBus()
	if verbose {
		stopStreaming := streamEvents(bus, logger)
		defer stopStreaming()
	}

	executor := graph.NewExecutor(
		graph.WithLogger(logger),
		graph.WithTracer(tp.Tracer("draftflow")),
		graph.WithEventBus(bus),
	)

	result, runErr := executor.Run(ctx, g, map[string]any{
		pipeline.KeyDataPath: opts.DataPath,
	})

	if result != nil {
		recordRun(cmd, logger, result, opts.DataPath)

		if err := printResult(cmd, result); err != nil {
			return err
		}
	}

	return runErr
}

// applyRunFlags overlays command flags onto the loaded configuration.
func applyRunFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("data") {
		cfg.Pipeline.DataPath = runDataPath
	}
	if cmd.Flags().Changed("out") {
		cfg.Pipeline.OutputDir = runOutputDir
	}
	if cmd.Flags().Changed("title") {
		cfg.Pipeline.Title = runTitle
	}
	if cmd.Flags().Changed("parallel") {
		cfg.Pipeline.Parallel = runParallel
	}
	if cmd.Flags().Changed("max-cycles") {
		cfg.Pipeline.MaxCycles = runMaxCycles
	}
}

// streamEvents mirrors pipeline events onto the debug log until the
// returned stop function is called.
func streamEvents(bus events.Bus, logger *slog.Logger) func() {
	ch, unsubscribe := bus.Subscribe(events.Filter{}, 64)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range ch {
			attrs := []any{"run_id", event.RunID.String()}
			if event.Stage != "" {
				attrs = append(attrs, "stage", event.Stage)
			}
			if event.Branch != "" {
				attrs = append(attrs, "branch", event.Branch)
			}
			for key, value := range event.Fields {
				attrs = append(attrs, key, value)
			}
			logger.Debug(string(event.Type), attrs...)
		}
	}()

	return func() {
		unsubscribe()
		<-done
	}
}

// recordRun persists the run outcome when history is enabled. Failures
// are logged but never fail the run itself.
func recordRun(cmd *cobra.Command, logger *slog.Logger, result *graph.RunResult, dataPath string) {
	if !cfg.History.Enabled {
		return
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		logger.Warn("failed to open history store", "error", err)
		return
	}
	defer store.Close()

	reportPath := result.FieldString(pipeline.KeyFinalReportPath)
	if reportPath == "" {
		reportPath = result.FieldString(pipeline.KeyReportPath)
	}

	if err := store.Record(cmd.Context(), history.FromResult(result, dataPath, reportPath)); err != nil {
		logger.Warn("failed to record run", "error", err)
	}
}

func printResult(cmd *cobra.Command, result *graph.RunResult) error {
	if runOutput == "json" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Run %s (%s): %s\n", result.RunID, result.Graph, result.Status)
	cmd.Printf("Duration: %s\n", result.Duration.Round(time.Millisecond))

	if reportPath := result.FieldString(pipeline.KeyReportPath); reportPath != "" {
		cmd.Printf("Report: %s\n", reportPath)
	}
	if decision := result.FieldString(pipeline.KeyCriticDecision); decision != "" {
		cmd.Printf("Review decision: %s\n", decision)
	}
	for key, count := range result.CycleCounts {
		cmd.Printf("Rework cycles (%s): %d\n", key, count)
	}
	if result.Degraded {
		cmd.Println("Warning: review budget exhausted, report was not accepted by its reviewer")
	}
	if result.Err != nil {
		cmd.Printf("Error: %s\n", result.Err.Error())
	}

	return nil
}
