package cmd

import (
	"errors"

	"github.com/ethpandaops/pageaudit/internal/audit/threshold"
	"github.com/ethpandaops/pageaudit/internal/exitcodes"
	"github.com/spf13/cobra"
)

var (
	errURLRequired  = errors.New("--url is required when not using --flows")
	errNoURLs       = errors.New("--url contains no URLs")
	errBadFormat    = errors.New("--format must be json or string")
	errInterrupted  = errors.New("interrupted")
	errChecksFailed = errors.New("one or more checks failed")
)

// exitError carries the process exit code for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func usageError(err error) error {
	return &exitError{code: exitcodes.UsageErr, err: err}
}

func configError(err error) error {
	return &exitError{code: exitcodes.ConfigErr, err: err}
}

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitcodes.Success
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	var cfgErr *threshold.ConfigError
	if errors.As(err, &cfgErr) {
		return exitcodes.ConfigErr
	}

	return exitcodes.RuntimeErr
}

// noArgs rejects positional arguments as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError(err)
	}

	return nil
}

// flagError marks flag parsing failures as usage errors.
func flagError(_ *cobra.Command, err error) error {
	return usageError(err)
}

