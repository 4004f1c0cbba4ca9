package cmd

import (
	"fmt"

	"github.com/ethpandaops/pageaudit/internal/audit/table"
	"github.com/ethpandaops/pageaudit/internal/config"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit       int
		historyFile string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved runs with their trend",
		Long: `Lists runs saved with --save, oldest first. Each run is labelled against the
run before it: FIRST_RUN, IMPROVING, DECLINING or SAME, by pass rate.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := newLogger(cmd.ErrOrStderr(), false, true)

			cfg, err := config.Load()
			if err != nil {
				return configError(fmt.Errorf("failed to load config: %w", err))
			}

			if cmd.Flags().Changed("history-file") {
				cfg.HistoryFile = historyFile
			}

			store := newHistoryStore(cmd.Context(), log, cfg)
			defer func() { _ = store.Close() }()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("listing history: %w", err)
			}

			formatter := table.NewHistoryFormatter(log, table.NewRenderer(log))
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Format(entries))

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Show at most this many recent runs, 0 for all")
	cmd.Flags().StringVar(&historyFile, "history-file", config.DefaultHistoryFile, "History file (overrides PAGEAUDIT_HISTORY_FILE)")

	return cmd
}
