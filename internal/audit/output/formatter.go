// Package output prints human-friendly progress and result tables.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/ethpandaops/pageaudit/internal/audit/format"
	"github.com/ethpandaops/pageaudit/internal/audit/metrics"
	"github.com/ethpandaops/pageaudit/internal/audit/record"
	"github.com/ethpandaops/pageaudit/internal/audit/table"
	"github.com/fatih/color"
)

// Formatter provides clean, human-friendly output
type Formatter interface {
	PrintPhase(phase string)
	PrintProgress(message string, duration time.Duration)
	PrintSuccess(message string)
	PrintError(message string, err error)
	PrintResults()
	PrintMetrics(rec *record.RunRecord)
	PrintSummary()
}

type formatter struct {
	writer  io.Writer
	verbose bool

	metrics          metrics.Collector
	resultsFormatter *table.ResultsFormatter
	metricsFormatter *table.MetricsFormatter
	summaryFormatter *table.SummaryFormatter

	green *color.Color
	red   *color.Color
	blue  *color.Color
	gray  *color.Color
}

// NewFormatter creates a new output formatter. Metric tables are only
// printed when verbose is set.
func NewFormatter(
	writer io.Writer,
	verbose bool,
	metricsCollector metrics.Collector,
	resultsFormatter *table.ResultsFormatter,
	metricsFormatter *table.MetricsFormatter,
	summaryFormatter *table.SummaryFormatter,
) Formatter {
	return &formatter{
		writer:           writer,
		verbose:          verbose,
		metrics:          metricsCollector,
		resultsFormatter: resultsFormatter,
		metricsFormatter: metricsFormatter,
		summaryFormatter: summaryFormatter,
		green:            color.New(color.FgGreen),
		red:              color.New(color.FgRed),
		blue:             color.New(color.FgBlue),
		gray:             color.New(color.FgHiBlack),
	}
}

// PrintPhase prints phase separator
func (f *formatter) PrintPhase(phase string) {
	f.blue.Fprintf(f.writer, "\n▸ %s\n", phase)
}

// PrintProgress prints a progress line with optional timing
func (f *formatter) PrintProgress(message string, duration time.Duration) {
	if duration > 0 {
		f.gray.Fprintf(f.writer, "%s (%s)\n", message, format.Duration(duration))
	} else {
		fmt.Fprintf(f.writer, "%s\n", message)
	}
}

// PrintSuccess prints a green message
func (f *formatter) PrintSuccess(message string) {
	f.green.Fprintf(f.writer, "%s\n", message)
}

// PrintError prints a red message and error details
func (f *formatter) PrintError(message string, err error) {
	f.red.Fprintf(f.writer, "%s", message)
	if err != nil {
		f.red.Fprintf(f.writer, ": %v", err)
	}
	fmt.Fprintf(f.writer, "\n")
}

// PrintResults prints a table of per-URL results
func (f *formatter) PrintResults() {
	fmt.Fprintln(f.writer, f.resultsFormatter.Format(f.metrics.GetURLMetrics()))
}

// PrintMetrics prints every metric and flow of rec in verbose mode
func (f *formatter) PrintMetrics(rec *record.RunRecord) {
	if !f.verbose {
		return
	}

	fmt.Fprintln(f.writer, f.metricsFormatter.Format(rec))
}

// PrintSummary prints a summary table with aggregate statistics
func (f *formatter) PrintSummary() {
	fmt.Fprintln(f.writer, f.summaryFormatter.Format(f.metrics.GetSummary()))
}
