package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/draftflow-ai/draftflow/internal/config"
)

// Global flags
var (
	configFile string
	verbose    bool
)

// cfg holds the configuration loaded by the persistent pre-run hook.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "draftflow",
	Short: "Draftflow - LLM-reviewed data analysis reports",
	Long: `Draftflow turns a raw CSV dataset into a reviewed markdown report.

A pipeline of stages cleans the data, plans and renders visualizations,
drafts a report, and submits the draft to an LLM critic. Rejected drafts
are reworked within a bounded retry budget; exhausted budgets force the
run forward and mark the result as degraded.`,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

// loadConfig is called before any command runs to load configuration.
// A .env file in the working directory is applied first so ${VAR}
// references in the config file can resolve against it.
func loadConfig(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	_ = godotenv.Load()

	path := configFile
	if path == "" {
		path = os.Getenv("DRAFTFLOW_CONFIG")
	}
	if path == "" {
		path = "draftflow.yaml"
	}

	loader := config.NewConfigLoader(config.NewValidator())
	loaded, err := loader.LoadWithDefaults(path)
	if err != nil {
		return err
	}

	cfg = loaded
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default draftflow.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging and stage event output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
