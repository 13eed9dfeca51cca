package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.InDelta(t, 90, cfg.FuzzyThreshold, 0.001)
	assert.InDelta(t, 3.0, cfg.Extraction.YTolerance, 0.001)
	assert.InDelta(t, 15.0, cfg.Extraction.MergeGap, 0.001)
	assert.InDelta(t, 380, cfg.Extraction.CardMaxX, 0.001)
	assert.InDelta(t, 400, cfg.Extraction.WithdrawalDepositBoundary, 0.001)
	assert.InDelta(t, 500, cfg.Extraction.DepositBalanceBoundary, 0.001)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 20, cfg.LLM.MaxExamples)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bsp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
categories: ledger.csv
fuzzy_threshold: 80
extraction:
  merge_gap: 20
llm:
  provider: gemini
  timeout_secs: 5
logging:
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ledger.csv", cfg.Categories)
	assert.InDelta(t, 80, cfg.FuzzyThreshold, 0.001)
	assert.InDelta(t, 20, cfg.Extraction.MergeGap, 0.001)
	assert.InDelta(t, 3.0, cfg.Extraction.YTolerance, 0.001)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 1024, cfg.LLM.MaxTokens)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)

	opts := cfg.ParserOptions()
	assert.InDelta(t, 20, opts.MergeGap, 0.001)
	assert.Equal(t, 5*time.Second, cfg.LLMOptions().Timeout)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bsp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("extraction:\n  withdrawal_deposit_boundary: 600\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "withdrawal_deposit_boundary")

	require.NoError(t, os.WriteFile(path, []byte("fuzzy_threshold: [\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"threshold too high", func(c *Config) { c.FuzzyThreshold = 101 }, "fuzzy_threshold"},
		{"zero tolerance", func(c *Config) { c.Extraction.YTolerance = 0 }, "y_tolerance"},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "claude" }, "llm.provider"},
		{"negative tokens", func(c *Config) { c.LLM.MaxTokens = -1 }, "must not be negative"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"no body limit", func(c *Config) { c.Server.BodyLimitMB = 0 }, "body_limit_mb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Categories = "history.csv"
	path := filepath.Join(t.TempDir(), "bsp.yaml")
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
