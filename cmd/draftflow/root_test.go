package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCSV = `alcohol,ph,quality
9.4,3.51,5
9.8,3.20,5
10.1,3.26,6
9.4,3.51,5
11.2,3.16,7
10.5,3.30,6
`

// execute runs the root command with the given args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// writeRunFixture writes a dataset and a mock-provider config into a temp
// dir and returns the config and data paths.
func writeRunFixture(t *testing.T) (configPath, dataPath string) {
	t.Helper()
	dir := t.TempDir()

	dataPath = filepath.Join(dir, "wine.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte(testCSV), 0o644))

	configPath = filepath.Join(dir, "draftflow.yaml")
	content := fmt.Sprintf(`
pipeline:
  output_dir: %s
llm:
  type: mock
history:
  enabled: true
  path: %s
`, filepath.Join(dir, "out"), filepath.Join(dir, "draftflow.db"))
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	return configPath, dataPath
}

// TestVersionCommand tests the version subcommand.
func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "draftflow")
}

// TestRunCommandEndToEnd tests a full sequential run with the mock provider.
func TestRunCommandEndToEnd(t *testing.T) {
	configPath, dataPath := writeRunFixture(t)

	out, err := execute(t, "--config", configPath, "run", "--data", dataPath, "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "completed"`)

	finalReport := filepath.Join(filepath.Dir(configPath), "out", "report_final.md")
	content, err := os.ReadFile(finalReport)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Data Analysis Report")
}

// TestRunCommandRequiresData tests that a run without a dataset fails fast.
func TestRunCommandRequiresData(t *testing.T) {
	configPath, _ := writeRunFixture(t)

	_, err := execute(t, "--config", configPath, "run", "--data", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no dataset")
}

// TestRunCommandRejectsUnknownOutputFormat tests output format validation.
func TestRunCommandRejectsUnknownOutputFormat(t *testing.T) {
	configPath, dataPath := writeRunFixture(t)

	_, err := execute(t, "--config", configPath, "run", "--data", dataPath, "--output", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

// TestConfigInitAndShow tests writing and printing configuration.
func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draftflow.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")

	_, err = execute(t, "config", "init", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	out, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "max_cycles: 2")
	assert.Contains(t, out, "type: ollama")
}

// TestHistoryCommands tests listing and showing a recorded run.
func TestHistoryCommands(t *testing.T) {
	configPath, dataPath := writeRunFixture(t)

	_, err := execute(t, "--config", configPath, "run", "--data", dataPath, "--output", "text")
	require.NoError(t, err)

	out, err := execute(t, "--config", configPath, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "sequential")
	assert.Contains(t, out, "completed")
}
