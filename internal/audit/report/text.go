package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/ethpandaops/pageaudit/internal/audit/format"
	"github.com/ethpandaops/pageaudit/internal/audit/record"
	"github.com/ethpandaops/pageaudit/internal/audit/table"
	"github.com/sirupsen/logrus"
)

// TextSink writes the console metric table, without colors, to summary.txt.
type TextSink struct {
	log     logrus.FieldLogger
	dir     string
	metrics *table.MetricsFormatter
}

// NewTextSink creates a plain-text summary sink writing into dir.
func NewTextSink(log logrus.FieldLogger, dir string, metrics *table.MetricsFormatter) *TextSink {
	return &TextSink{
		log:     log.WithField("component", "text_report"),
		dir:     dir,
		metrics: metrics,
	}
}

// Write renders rec as text and replaces any previous summary.
func (s *TextSink) Write(rec *record.RunRecord) (string, error) {
	var sb strings.Builder

	summary := rec.Summarize()

	fmt.Fprintf(&sb, "Run %s at %s (mode %s, %s)\n",
		rec.ID, rec.Timestamp.Format("2006-01-02 15:04:05 MST"), rec.Mode, format.Duration(rec.Duration))
	fmt.Fprintf(&sb, "URLs: %d, errored: %d\n", summary.URLs, summary.FailedURLs)
	fmt.Fprintf(&sb, "Metrics: %d passed, %d failed, %d n/a\n",
		summary.MetricsPassed, summary.MetricsFailed, summary.MetricsNA)
	fmt.Fprintf(&sb, "Flows: %d passed, %d failed\n", summary.FlowsPassed, summary.FlowsFailed)

	for _, res := range rec.Results {
		if res.Error != "" {
			fmt.Fprintf(&sb, "Error %s: %s\n", res.URL, res.Error)
		}
	}

	sb.WriteString(s.metrics.Format(rec))
	sb.WriteString("\n")

	path := filepath.Join(s.dir, TextFilename)
	if err := writeFile(path, []byte(stripansi.Strip(sb.String()))); err != nil {
		return "", err
	}

	s.log.WithField("path", path).Info("wrote text summary")

	return path, nil
}

// Compile-time interface compliance check
var _ Sink = (*TextSink)(nil)
