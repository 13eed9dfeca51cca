package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/colinbendell/bank-statement-processor/internal/config"
)

func newInitCommand(a *app) *cobra.Command {
	var (
		categories string
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current configuration to the --config file",
		Long: `Write the effective configuration, built-in defaults merged with any
existing file and flag overrides, to the --config path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if exists(a.configPath) && !overwrite {
				return fmt.Errorf("%s already exists, use -y to overwrite", a.configPath)
			}
			if categories != "" {
				a.cfg.Categories = categories
			}
			if err := config.Save(a.configPath, a.cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %s\n", a.configPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&categories, "categories", "C", "", "categories training CSV to record in the file")
	cmd.Flags().BoolVarP(&overwrite, "overwrite", "y", false, "overwrite an existing file")
	return cmd
}
