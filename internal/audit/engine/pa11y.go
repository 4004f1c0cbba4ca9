package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	pa11yName = "pa11y"
	// pa11y exits 2 when it ran successfully and found issues.
	pa11yIssuesExitCode = 2
)

type pa11yIssue struct {
	Code    string `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type pa11y struct {
	bin string
	run CommandRunner
	log logrus.FieldLogger
}

// NewPa11y returns an Engine backed by the pa11y CLI.
func NewPa11y(log logrus.FieldLogger, bin string, run CommandRunner) Engine {
	if bin == "" {
		bin = pa11yName
	}

	return &pa11y{
		bin: bin,
		run: run,
		log: log.WithField("component", "pa11y"),
	}
}

func (p *pa11y) Name() string {
	return pa11yName
}

func (p *pa11y) Audit(ctx context.Context, url string) ([]Measurement, error) {
	out, err := p.run(ctx, p.bin, "--reporter", "json", "--include-warnings", "--include-notices", url)
	if err != nil {
		var exitErr *ExitError
		if !errors.As(err, &exitErr) || exitErr.Code != pa11yIssuesExitCode || len(out) == 0 {
			return nil, err
		}
	}

	return parsePa11y(out)
}

// parsePa11y counts pa11y issues by type.
func parsePa11y(data []byte) ([]Measurement, error) {
	var issues []pa11yIssue
	if err := json.Unmarshal(data, &issues); err != nil {
		return nil, fmt.Errorf("parsing pa11y report: %w", err)
	}

	var errorsCount, warnings, notices float64

	for _, issue := range issues {
		switch issue.Type {
		case "error":
			errorsCount++
		case "warning":
			warnings++
		case "notice":
			notices++
		}
	}

	return []Measurement{
		{Name: "a11y-errors", Value: errorsCount},
		{Name: "a11y-warnings", Value: warnings},
		{Name: "a11y-notices", Value: notices},
	}, nil
}

// Compile-time interface compliance check
var _ Engine = (*pa11y)(nil)
