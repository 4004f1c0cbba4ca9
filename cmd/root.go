// Package cmd contains CLI command definitions
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethpandaops/pageaudit/internal/exitcodes"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Logger is the shared logger instance for all commands
	Logger *logrus.Logger

	rootCmd = newRootCmd()
)

func newRootCmd() *cobra.Command {
	opts := &auditOptions{}

	cmd := &cobra.Command{
		Use:   "pageaudit",
		Short: "pageaudit - web page quality audits",
		Long: `pageaudit runs performance and accessibility audits plus scripted browser
flows against one or more URLs, gates the measured metrics against thresholds,
and prints the results.

Examples:
  pageaudit --url https://example.com
  pageaudit --url https://a.test,https://b.test --thresholds thresholds.yaml --simple
  pageaudit --flows --simple --format json`,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAudit(cmd, opts)
		},
	}

	// Consumed by main before cobra runs; registered so cobra accepts it.
	cmd.PersistentFlags().String("env", "", "Env file to load before reading configuration (default .env)")

	bindAuditFlags(cmd, opts)
	cmd.SetFlagErrorFunc(flagError)

	cmd.AddCommand(newShowConfigCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newInteractiveCmd())

	return cmd
}

// Execute runs the root command and exits with the code matching its error.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		var usage *exitError
		if errors.As(err, &usage) && usage.code == exitcodes.UsageErr {
			fmt.Fprintln(os.Stderr, "Run 'pageaudit --help' for usage.")
		}
	}

	os.Exit(exitCode(err))
}

func init() {
	InitLogger()
}
