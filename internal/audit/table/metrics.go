package table

import (
	"github.com/ethpandaops/pageaudit/internal/audit/format"
	"github.com/ethpandaops/pageaudit/internal/audit/record"
	"github.com/sirupsen/logrus"
)

// MetricsFormatter formats every measured metric of a run.
type MetricsFormatter struct {
	log      logrus.FieldLogger
	renderer Renderer
	colors   *ColorHelper
}

// NewMetricsFormatter creates a new metric table formatter.
func NewMetricsFormatter(log logrus.FieldLogger, renderer Renderer) *MetricsFormatter {
	return &MetricsFormatter{
		log:      log.WithField("component", "table.metrics_formatter"),
		renderer: renderer,
		colors:   NewColorHelper(),
	}
}

// Format renders one row per metric and flow, grouped by URL in request order.
func (f *MetricsFormatter) Format(rec *record.RunRecord) string {
	var (
		headers = []string{"URL", "Check", "Value", "Threshold", "Status"}
		rows    = make([][]string, 0, len(rec.Results)*8)
	)

	for _, res := range rec.Results {
		for _, m := range res.Metrics {
			threshold := "-"
			if m.Threshold != nil {
				threshold = m.Threshold.String()
			}

			rows = append(rows, []string{
				res.URL,
				m.Name,
				format.MetricValue(m.Name, m.Value),
				threshold,
				f.colors.FormatMetricStatus(m.Passed),
			})
		}

		for _, fl := range res.Flows {
			rows = append(rows, []string{
				res.URL,
				"flow:" + fl.Name,
				format.Duration(fl.Duration),
				"-",
				f.colors.FormatStatus(fl.Passed),
			})
		}
	}

	if len(rows) == 0 {
		return "No metrics recorded"
	}

	return "\n" + f.colors.Header("▸ Metrics") + "\n\n" + f.renderer.RenderToString(headers, rows, WithKind("metrics"), WithRightAligned(2))
}
