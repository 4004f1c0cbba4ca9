package table

import (
	"fmt"

	"github.com/ethpandaops/pageaudit/internal/audit/format"
	"github.com/ethpandaops/pageaudit/internal/audit/metrics"
	"github.com/sirupsen/logrus"
)

// SummaryFormatter formats summary statistics as a table.
type SummaryFormatter struct {
	log      logrus.FieldLogger
	renderer Renderer
	colors   *ColorHelper
}

// NewSummaryFormatter creates a new summary table formatter.
func NewSummaryFormatter(log logrus.FieldLogger, renderer Renderer) *SummaryFormatter {
	return &SummaryFormatter{
		log:      log.WithField("component", "table.summary_formatter"),
		renderer: renderer,
		colors:   NewColorHelper(),
	}
}

// Format converts summary metrics into a formatted table string.
func (f *SummaryFormatter) Format(summary metrics.SummaryMetric) string {
	var passRate float64
	if summary.TotalURLs > 0 {
		passRate = float64(summary.PassedURLs) / float64(summary.TotalURLs) * 100.0
	}

	passedValue := fmt.Sprintf("%d (%s)", summary.PassedURLs, f.colors.FormatPercentage(passRate))
	if summary.PassedURLs == summary.TotalURLs {
		passedValue = f.colors.Success(fmt.Sprintf("%d (%.1f%%)", summary.PassedURLs, passRate))
	}

	failedValue := fmt.Sprintf("%d (%.1f%%)", summary.FailedURLs, 100.0-passRate)
	if summary.FailedURLs > 0 {
		failedValue = f.colors.Failure(failedValue)
	} else {
		failedValue = f.colors.Success(failedValue)
	}

	erroredValue := fmt.Sprintf("%d", summary.ErroredURLs)
	if summary.ErroredURLs > 0 {
		erroredValue = f.colors.Failure(erroredValue)
	}

	checksValue := fmt.Sprintf("%s passed, %d failed, %d n/a",
		f.colors.FormatChecks(summary.ChecksPassed, summary.ChecksPassed+summary.ChecksFailed),
		summary.ChecksFailed,
		summary.ChecksNA,
	)

	var (
		headers = []string{"Metric", "Value"}
		rows    = [][]string{
			{"Total URLs", f.colors.Bold(fmt.Sprintf("%d", summary.TotalURLs))},
			{"Passed", passedValue},
			{"Failed", failedValue},
			{"Errored", erroredValue},
			{"Checks", checksValue},
			{"Total Duration", format.Duration(summary.TotalDuration)},
		}
	)

	return "\n" + f.colors.Header("▸ Summary") + "\n\n" + f.renderer.RenderToString(headers, rows, WithKind("summary"))
}
