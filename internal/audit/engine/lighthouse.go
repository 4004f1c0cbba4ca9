package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

const lighthouseName = "lighthouse"

var errNoLighthouseCategories = errors.New("lighthouse report has no category scores")

// lighthouseCategories are reported as 0..1 scores, in this order.
var lighthouseCategories = []string{"performance", "accessibility", "best-practices", "seo"}

// lighthouseAudits are reported by numeric value, in this order.
var lighthouseAudits = []string{
	"first-contentful-paint",
	"largest-contentful-paint",
	"total-blocking-time",
	"cumulative-layout-shift",
	"speed-index",
}

type lighthouseReport struct {
	Categories map[string]struct {
		Score *float64 `json:"score"`
	} `json:"categories"`
	Audits map[string]struct {
		NumericValue *float64 `json:"numericValue"`
	} `json:"audits"`
	RuntimeError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"runtimeError"`
}

type lighthouse struct {
	bin        string
	chromePath string
	run        CommandRunner
	log        logrus.FieldLogger
}

// NewLighthouse returns an Engine backed by the lighthouse CLI.
func NewLighthouse(log logrus.FieldLogger, bin, chromePath string, run CommandRunner) Engine {
	if bin == "" {
		bin = lighthouseName
	}

	return &lighthouse{
		bin:        bin,
		chromePath: chromePath,
		run:        run,
		log:        log.WithField("component", "lighthouse"),
	}
}

func (l *lighthouse) Name() string {
	return lighthouseName
}

func (l *lighthouse) Audit(ctx context.Context, url string) ([]Measurement, error) {
	args := []string{
		url,
		"--output=json",
		"--output-path=stdout",
		"--quiet",
		"--chrome-flags=--headless=new --no-sandbox",
	}

	if l.chromePath != "" {
		args = append(args, "--chrome-path="+l.chromePath)
	}

	out, err := l.run(ctx, l.bin, args...)
	if err != nil {
		return nil, err
	}

	return parseLighthouse(out)
}

// parseLighthouse extracts category scores and numeric audits from a lighthouse JSON report.
func parseLighthouse(data []byte) ([]Measurement, error) {
	var report lighthouseReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parsing lighthouse report: %w", err)
	}

	if report.RuntimeError != nil && report.RuntimeError.Code != "" && report.RuntimeError.Code != "NO_ERROR" {
		return nil, fmt.Errorf("lighthouse runtime error %s: %s", report.RuntimeError.Code, report.RuntimeError.Message) //nolint:err113 // engine-reported failure
	}

	measurements := make([]Measurement, 0, len(lighthouseCategories)+len(lighthouseAudits))

	for _, name := range lighthouseCategories {
		cat, ok := report.Categories[name]
		if !ok || cat.Score == nil {
			continue
		}

		measurements = append(measurements, Measurement{Name: name, Value: *cat.Score})
	}

	if len(measurements) == 0 {
		return nil, errNoLighthouseCategories
	}

	for _, name := range lighthouseAudits {
		audit, ok := report.Audits[name]
		if !ok || audit.NumericValue == nil {
			continue
		}

		measurements = append(measurements, Measurement{Name: name, Value: *audit.NumericValue})
	}

	return measurements, nil
}

// Compile-time interface compliance check
var _ Engine = (*lighthouse)(nil)
