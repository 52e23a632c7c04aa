package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftflow-ai/draftflow/internal/llm"
)

// writeConfig writes a YAML config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "draftflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestDefaultConfig tests that the default configuration passes validation.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, NewValidator().Validate(cfg))
	assert.Equal(t, 2, cfg.Pipeline.MaxCycles)
	assert.Equal(t, "data/output", cfg.Pipeline.OutputDir)
	assert.Equal(t, llm.ProviderOllama, cfg.LLM.Type)
	assert.True(t, cfg.History.Enabled)
}

// TestLoadConfig tests loading a full configuration file.
func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  data_path: data/input/sales.csv
  output_dir: out
  title: Quarterly Sales
  max_cycles: 3
  parallel: true
llm:
  type: openai
  model: gpt-4o-mini
  api_key: sk-test
logging:
  level: debug
  format: json
history:
  enabled: false
`)

	loader := NewConfigLoader(NewValidator())
	cfg, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data/input/sales.csv", cfg.Pipeline.DataPath)
	assert.Equal(t, "out", cfg.Pipeline.OutputDir)
	assert.Equal(t, "Quarterly Sales", cfg.Pipeline.Title)
	assert.Equal(t, 3, cfg.Pipeline.MaxCycles)
	assert.True(t, cfg.Pipeline.Parallel)
	assert.Equal(t, llm.ProviderOpenAI, cfg.LLM.Type)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.History.Enabled)
}

// TestLoadConfigAppliesDefaults tests that omitted fields keep their defaults.
func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
llm:
  type: mock
`)

	loader := NewConfigLoader(NewValidator())
	cfg, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, llm.ProviderMock, cfg.LLM.Type)
	assert.Equal(t, 2, cfg.Pipeline.MaxCycles)
	assert.Equal(t, 0.6, cfg.Pipeline.CorrThreshold)
	assert.Equal(t, "info", cfg.Logging.Level)
}

// TestLoadConfigMissingFile tests that Load fails when the file is absent.
func TestLoadConfigMissingFile(t *testing.T) {
	loader := NewConfigLoader(NewValidator())

	_, err := loader.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// TestLoadWithDefaultsMissingFile tests the fallback to defaults.
func TestLoadWithDefaultsMissingFile(t *testing.T) {
	loader := NewConfigLoader(NewValidator())

	cfg, err := loader.LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

// TestLoadConfigEnvInterpolation tests ${VAR} expansion in string fields.
func TestLoadConfigEnvInterpolation(t *testing.T) {
	t.Setenv("DRAFTFLOW_TEST_KEY", "sk-from-env")
	t.Setenv("DRAFTFLOW_TEST_OUT", "env-out")

	path := writeConfig(t, `
pipeline:
  output_dir: ${DRAFTFLOW_TEST_OUT}
llm:
  type: anthropic
  api_key: ${DRAFTFLOW_TEST_KEY}
`)

	loader := NewConfigLoader(NewValidator())
	cfg, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-out", cfg.Pipeline.OutputDir)
	assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
}

// TestLoadConfigUnsetEnvVarLeftIntact tests that unknown variables pass through.
func TestLoadConfigUnsetEnvVarLeftIntact(t *testing.T) {
	path := writeConfig(t, `
llm:
  type: mock
  api_key: ${DRAFTFLOW_DEFINITELY_UNSET}
`)

	loader := NewConfigLoader(NewValidator())
	cfg, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "${DRAFTFLOW_DEFINITELY_UNSET}", cfg.LLM.APIKey)
}

// TestValidateRejectsBadValues tests struct tag and custom validation failures.
func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(cfg *Config)
		contains string
	}{
		{
			name:     "negative max cycles",
			mutate:   func(cfg *Config) { cfg.Pipeline.MaxCycles = -1 },
			contains: "pipeline.max_cycles",
		},
		{
			name:     "empty output dir",
			mutate:   func(cfg *Config) { cfg.Pipeline.OutputDir = "" },
			contains: "pipeline.output_dir",
		},
		{
			name:     "correlation threshold out of range",
			mutate:   func(cfg *Config) { cfg.Pipeline.CorrThreshold = 1.5 },
			contains: "pipeline.corr_threshold",
		},
		{
			name:     "unknown log level",
			mutate:   func(cfg *Config) { cfg.Logging.Level = "loud" },
			contains: "logging.level",
		},
		{
			name:     "unknown provider type",
			mutate:   func(cfg *Config) { cfg.LLM.Type = "bedrock" },
			contains: "llm.type",
		},
		{
			name:     "history enabled without path",
			mutate:   func(cfg *Config) { cfg.History.Path = "" },
			contains: "history.path",
		},
	}

	validator := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := validator.Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

// TestValidateNilConfig tests that a nil config is rejected.
func TestValidateNilConfig(t *testing.T) {
	assert.Error(t, NewValidator().Validate(nil))
}
