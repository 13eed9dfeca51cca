// Package config loads bsp.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colinbendell/bank-statement-processor/internal/llm"
	"github.com/colinbendell/bank-statement-processor/internal/parser"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "bsp.yaml"

// Config is the root configuration.
type Config struct {
	Categories     string           `yaml:"categories"` // training ledger CSV
	FuzzyThreshold float64          `yaml:"fuzzy_threshold"`
	Extraction     ExtractionConfig `yaml:"extraction"`
	LLM            LLMConfig        `yaml:"llm"`
	Logging        LoggingConfig    `yaml:"logging"`
	Server         ServerConfig     `yaml:"server"`
}

// ExtractionConfig tunes row reconstruction. Units are PDF points.
type ExtractionConfig struct {
	YTolerance                float64 `yaml:"y_tolerance"`
	MergeGap                  float64 `yaml:"merge_gap"`
	CardMaxX                  float64 `yaml:"card_max_x"`
	WithdrawalDepositBoundary float64 `yaml:"withdrawal_deposit_boundary"`
	DepositBalanceBoundary    float64 `yaml:"deposit_balance_boundary"`
}

// LLMConfig configures the category fallback model.
type LLMConfig struct {
	Provider    string `yaml:"provider"` // openai or gemini
	Model       string `yaml:"model,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
	APIKeyEnv   string `yaml:"api_key_env,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxTokens   int    `yaml:"max_tokens"`
	MaxExamples int    `yaml:"max_examples"`
}

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	BodyLimitMB int    `yaml:"body_limit_mb"`
}

// Default returns the built-in configuration.
func Default() *Config {
	opts := parser.DefaultOptions()
	return &Config{
		FuzzyThreshold: 90,
		Extraction: ExtractionConfig{
			YTolerance:                opts.YTolerance,
			MergeGap:                  opts.MergeGap,
			CardMaxX:                  opts.CardMaxX,
			WithdrawalDepositBoundary: opts.WithdrawalDepositBoundary,
			DepositBalanceBoundary:    opts.DepositBalanceBoundary,
		},
		LLM: LLMConfig{
			Provider:    llm.ProviderOpenAI,
			TimeoutSecs: 60,
			MaxTokens:   llm.DefaultMaxTokens,
			MaxExamples: 20,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Server:  ServerConfig{Addr: ":8080", BodyLimitMB: 32},
	}
}

// Load reads a config file over the defaults. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate reports the first out of range setting.
func (c *Config) Validate() error {
	e := c.Extraction
	switch {
	case c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 100:
		return fmt.Errorf("fuzzy_threshold must be in (0, 100], got %v", c.FuzzyThreshold)
	case e.YTolerance <= 0:
		return fmt.Errorf("extraction.y_tolerance must be positive, got %v", e.YTolerance)
	case e.MergeGap <= 0:
		return fmt.Errorf("extraction.merge_gap must be positive, got %v", e.MergeGap)
	case e.CardMaxX <= 0:
		return fmt.Errorf("extraction.card_max_x must be positive, got %v", e.CardMaxX)
	case e.WithdrawalDepositBoundary >= e.DepositBalanceBoundary:
		return fmt.Errorf("extraction.withdrawal_deposit_boundary (%v) must be left of deposit_balance_boundary (%v)",
			e.WithdrawalDepositBoundary, e.DepositBalanceBoundary)
	case c.LLM.Provider != llm.ProviderOpenAI && c.LLM.Provider != llm.ProviderGemini:
		return fmt.Errorf("llm.provider must be %q or %q, got %q", llm.ProviderOpenAI, llm.ProviderGemini, c.LLM.Provider)
	case c.LLM.TimeoutSecs < 0 || c.LLM.MaxTokens < 0 || c.LLM.MaxExamples < 0:
		return errors.New("llm limits must not be negative")
	case c.Logging.Format != "console" && c.Logging.Format != "json":
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	case c.Server.BodyLimitMB <= 0:
		return fmt.Errorf("server.body_limit_mb must be positive, got %d", c.Server.BodyLimitMB)
	}
	return nil
}

// ParserOptions converts the extraction settings.
func (c *Config) ParserOptions() parser.Options {
	opts := parser.DefaultOptions()
	opts.YTolerance = c.Extraction.YTolerance
	opts.MergeGap = c.Extraction.MergeGap
	opts.CardMaxX = c.Extraction.CardMaxX
	opts.WithdrawalDepositBoundary = c.Extraction.WithdrawalDepositBoundary
	opts.DepositBalanceBoundary = c.Extraction.DepositBalanceBoundary
	return opts
}

// LLMOptions converts the model settings.
func (c *Config) LLMOptions() llm.Config {
	return llm.Config{
		Provider:  c.LLM.Provider,
		Model:     c.LLM.Model,
		BaseURL:   c.LLM.BaseURL,
		APIKeyEnv: c.LLM.APIKeyEnv,
		Timeout:   time.Duration(c.LLM.TimeoutSecs) * time.Second,
		MaxTokens: c.LLM.MaxTokens,
	}
}
