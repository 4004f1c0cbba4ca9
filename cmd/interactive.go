package cmd

import (
	"errors"
	"fmt"

	"github.com/ethpandaops/pageaudit/internal/config"
	"github.com/ethpandaops/pageaudit/pkg/interactive"
	"github.com/spf13/cobra"
)

func newInteractiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Run audits from an interactive menu",
		Long:  `Prompts for URLs, mode and output format, then runs the same pipeline as the root command.`,
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd)
		},
	}
}

func runInteractive(cmd *cobra.Command) error {
	out := cmd.ErrOrStderr()

	fmt.Fprintln(out, "pageaudit - Interactive Mode")
	fmt.Fprintln(out, "============================")
	fmt.Fprintln(out)

	for {
		options := []interactive.MenuOption{
			{
				Name:        "Run Audit",
				Description: "Audit one or more URLs",
				Action: func() error {
					if err := interactiveAudit(cmd); err != nil {
						fmt.Fprintf(out, "\n❌ Error: %v\n", err)
					}
					interactive.PauseForEnter()
					return nil
				},
			},
			{
				Name:        "History",
				Description: "List saved runs with their trend",
				Action: func() error {
					history := newHistoryCmd()
					history.SetOut(cmd.OutOrStdout())
					history.SetErr(out)
					history.SetContext(cmd.Context())
					if err := history.RunE(history, nil); err != nil {
						fmt.Fprintf(out, "\n❌ Error: %v\n", err)
					}
					interactive.PauseForEnter()
					return nil
				},
			},
			{
				Name:        "Show Config",
				Description: "Display current environment configuration",
				Action: func() error {
					cfg, err := config.Load()
					if err != nil {
						fmt.Fprintf(out, "\n❌ Error: %v\n", err)
					} else {
						fmt.Fprintln(out, cfg.String())
					}
					interactive.PauseForEnter()
					return nil
				},
			},
		}

		if err := interactive.ShowMainMenu(options); err != nil {
			if errors.Is(err, interactive.ErrExit) {
				fmt.Fprintln(out, "Goodbye!")
				return nil
			}
			return err
		}

		fmt.Fprintln(out)
	}
}

// interactiveAudit collects audit options from prompts and runs them.
func interactiveAudit(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flowsOnly, err := interactive.AskMode()
	if err != nil {
		return err
	}

	urls, err := interactive.AskURLs(config.ResolveFlowsURL("", cfg.TestURL))
	if err != nil {
		return err
	}

	outputChoice, err := interactive.AskOutput()
	if err != nil {
		return err
	}

	opts := &auditOptions{
		url:       urls,
		flowsOnly: flowsOnly,
		format:    formatString,
		report:    true,
		save:      interactive.Confirm("Save this run to history?"),
	}

	switch outputChoice {
	case interactive.OutputSimpleString:
		opts.simple = true
	case interactive.OutputSimpleJSON:
		opts.simple = true
		opts.format = formatJSON
	}

	return runAudit(cmd, opts)
}
