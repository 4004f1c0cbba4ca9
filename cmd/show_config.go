package cmd

import (
	"fmt"

	"github.com/ethpandaops/pageaudit/internal/config"
	"github.com/spf13/cobra"
)

func newShowConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-config",
		Short: "Display current environment configuration",
		Long:  `Shows the current configuration loaded from environment variables and .env file.`,
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return configError(fmt.Errorf("failed to load config: %w", err))
			}

			fmt.Fprintln(cmd.OutOrStdout(), cfg.String())

			return nil
		},
	}
}
