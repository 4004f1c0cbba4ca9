package table

import (
	"fmt"
	"strings"

	"github.com/ethpandaops/pageaudit/internal/audit/format"
	"github.com/ethpandaops/pageaudit/internal/audit/metrics"
	"github.com/sirupsen/logrus"
)

const maxDetailLen = 50

// ResultsFormatter formats per-URL results as a table.
type ResultsFormatter struct {
	log      logrus.FieldLogger
	renderer Renderer
	colors   *ColorHelper
}

// NewResultsFormatter creates a new results table formatter.
func NewResultsFormatter(log logrus.FieldLogger, renderer Renderer) *ResultsFormatter {
	return &ResultsFormatter{
		log:      log.WithField("component", "table.results_formatter"),
		renderer: renderer,
		colors:   NewColorHelper(),
	}
}

// Format converts URL metrics into a table followed by failure details.
func (f *ResultsFormatter) Format(urlMetrics []metrics.URLResultMetric) string {
	if len(urlMetrics) == 0 {
		return "No URLs audited"
	}

	var (
		headers = []string{"URL", "Status", "Metrics", "Flows", "Duration", "Details"}
		rows    = make([][]string, 0, len(urlMetrics))
		failed  = make([]metrics.URLResultMetric, 0)
	)

	for _, m := range urlMetrics {
		status := f.colors.FormatStatus(m.Passed())
		if !m.Success {
			status = f.colors.FormatError()
		}

		var details string

		if !m.Passed() {
			failed = append(failed, m)

			if n := len(m.FailedChecks); n > 0 {
				details = f.colors.Failure(fmt.Sprintf("%d check(s) failed", n))
			}

			if m.ErrorMessage != "" {
				if details != "" {
					details += " - "
				}

				details += f.colors.Muted(format.Truncate(m.ErrorMessage, maxDetailLen))
			}
		}

		gated := m.MetricsPassed + m.MetricsFailed

		rows = append(rows, []string{
			m.URL,
			status,
			f.colors.FormatChecks(m.MetricsPassed, gated),
			f.colors.FormatChecks(m.FlowsPassed, m.FlowsTotal),
			format.Duration(m.Duration),
			details,
		})
	}

	output := "\n" + f.colors.Header("▸ Audit Results") + "\n\n" + f.renderer.RenderToString(headers, rows, WithKind("results"))

	if len(failed) > 0 {
		output += f.formatFailureDetails(failed)
	}

	return output
}

// formatFailureDetails lists every failed check per URL.
func (f *ResultsFormatter) formatFailureDetails(failed []metrics.URLResultMetric) string {
	var builder strings.Builder

	builder.WriteString("\n\n" + f.colors.Header("▸ Failure Details") + "\n\n")

	for i, m := range failed {
		if i > 0 {
			builder.WriteString("\n")
		}

		builder.WriteString(fmt.Sprintf("%s (%s)\n", m.URL, format.Duration(m.Duration)))

		if m.ErrorMessage != "" {
			builder.WriteString(fmt.Sprintf("  %s: %s\n", f.colors.Failure("Error"), m.ErrorMessage))
		}

		for _, check := range m.FailedChecks {
			label := "Metric"
			if check.Kind == metrics.KindFlow {
				label = "Flow"
			}

			builder.WriteString(fmt.Sprintf("  %s %s: %s\n",
				f.colors.Failure("✗"),
				f.colors.Bold(label),
				check.Name,
			))

			if check.Detail != "" {
				builder.WriteString(fmt.Sprintf("    %s\n", f.colors.Muted(check.Detail)))
			}
		}
	}

	return builder.String()
}
