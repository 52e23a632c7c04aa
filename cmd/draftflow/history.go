package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/draftflow-ai/draftflow/internal/history"
	"github.com/draftflow-ai/draftflow/internal/types"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past pipeline runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

// History command flags
var (
	historyLimit  int
	historyOutput string
)

func init() {
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list (0 for all)")
	historyListCmd.Flags().StringVar(&historyOutput, "output", "text", "Output format: text or json")
	historyShowCmd.Flags().StringVar(&historyOutput, "output", "text", "Output format: text or json")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}

func openHistoryStore() (*history.Store, error) {
	if cfg.History.Path == "" {
		return nil, fmt.Errorf("no history database configured (set history.path)")
	}
	return history.Open(cfg.History.Path)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	if historyOutput == "json" {
		return printJSON(cmd, records)
	}

	if len(records) == 0 {
		cmd.Println("No runs recorded yet")
		return nil
	}

	for _, rec := range records {
		flags := ""
		if rec.Degraded {
			flags = " [degraded]"
		}
		cmd.Printf("%s  %s  %-10s %-9s%s  %s\n",
			rec.CreatedAt.Local().Format(time.DateTime),
			rec.ID,
			rec.Graph,
			rec.Status,
			flags,
			rec.ReportPath,
		)
	}

	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	id, err := types.ParseID(args[0])
	if err != nil {
		return fmt.Errorf("invalid run ID %q: %w", args[0], err)
	}

	store, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	if historyOutput == "json" {
		return printJSON(cmd, rec)
	}

	cmd.Printf("Run:      %s\n", rec.ID)
	cmd.Printf("Graph:    %s\n", rec.Graph)
	cmd.Printf("Status:   %s\n", rec.Status)
	cmd.Printf("Degraded: %t\n", rec.Degraded)
	cmd.Printf("Data:     %s\n", rec.DataPath)
	cmd.Printf("Report:   %s\n", rec.ReportPath)
	cmd.Printf("Duration: %s\n", rec.Duration.Round(time.Millisecond))
	cmd.Printf("Created:  %s\n", rec.CreatedAt.Local().Format(time.DateTime))
	for key, count := range rec.CycleCounts {
		cmd.Printf("Cycles:   %s = %d\n", key, count)
	}
	if rec.Error != "" {
		cmd.Printf("Error:    %s\n", rec.Error)
	}

	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
