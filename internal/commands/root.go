// Package commands implements the bsp command line.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/colinbendell/bank-statement-processor/internal/classifier"
	"github.com/colinbendell/bank-statement-processor/internal/config"
	"github.com/colinbendell/bank-statement-processor/internal/llm"
	"github.com/colinbendell/bank-statement-processor/internal/logger"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
	log zerolog.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(version string) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "bsp",
		Short:   "Convert bank statement PDFs into categorized transactions",
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.DefaultPath, "configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (overrides config)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: console or json (overrides config)")

	rootCmd.AddCommand(
		newConvertCommand(a),
		newAccountsCommand(a),
		newServeCommand(a, version),
		newInitCommand(a),
		newVersionCommand(version),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	// A missing .env is normal; keys may come from the environment.
	_ = godotenv.Load()

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logger.WithContext(ctx, log))
	return nil
}

// loadIndex builds the category index from the training ledger, or returns
// nil when no ledger is configured.
func (a *app) loadIndex(path string, threshold float64) (*classifier.Index, error) {
	if path == "" {
		path = a.cfg.Categories
	}
	if path == "" {
		return nil, nil
	}
	if threshold <= 0 {
		threshold = a.cfg.FuzzyThreshold
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening categories: %w", err)
	}
	defer f.Close()

	rows, err := classifier.ReadTraining(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ix := classifier.Build(rows, threshold)
	a.log.Debug().Str("path", path).Int("rows", len(rows)).Int("keys", ix.Len()).Msg("category index built")
	return ix, nil
}

// fallback returns the model-backed classifier, or nil when the model
// cannot be configured. A missing credential disables the fallback rather
// than failing the run.
func (a *app) fallback() classifier.BatchClassifier {
	completer, err := llm.New(a.cfg.LLMOptions())
	if err != nil {
		a.log.Warn().Err(err).Msg("model fallback disabled")
		return nil
	}
	return classifier.PromptClassifier{Completer: completer}
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// No config or logging needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bsp %s\n", version)
		},
	}
}
