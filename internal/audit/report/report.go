// Package report writes human-readable reports of a run to disk.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/ethpandaops/pageaudit/internal/audit/format"
	"github.com/ethpandaops/pageaudit/internal/audit/record"
	"github.com/sirupsen/logrus"
)

const (
	// HTMLFilename is the HTML report written into the report directory.
	HTMLFilename = "report.html"
	// TextFilename is the plain-text summary written next to it.
	TextFilename = "summary.txt"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// Sink persists a run in some human-readable form and returns the path written.
type Sink interface {
	Write(rec *record.RunRecord) (string, error)
}

// HTMLSink renders a RunRecord into report.html.
type HTMLSink struct {
	log  logrus.FieldLogger
	dir  string
	tmpl *template.Template
}

// templateData is what report.html.tmpl renders.
type templateData struct {
	*record.RunRecord
	Summary record.Summary
}

// NewHTMLSink parses the embedded template. Reports go to dir, which is
// created on first write.
func NewHTMLSink(log logrus.FieldLogger, dir string) (*HTMLSink, error) {
	tmpl, err := template.New("report.html.tmpl").
		Funcs(templateFuncs()).
		ParseFS(templateFS, "templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing report template: %w", err)
	}

	return &HTMLSink{
		log:  log.WithField("component", "html_report"),
		dir:  dir,
		tmpl: tmpl,
	}, nil
}

// Write renders rec and replaces any previous report.
func (s *HTMLSink) Write(rec *record.RunRecord) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, templateData{RunRecord: rec, Summary: rec.Summarize()}); err != nil {
		return "", fmt.Errorf("rendering html report: %w", err)
	}

	path := filepath.Join(s.dir, HTMLFilename)
	if err := writeFile(path, buf.Bytes()); err != nil {
		return "", err
	}

	s.log.WithField("path", path).Info("wrote html report")

	return path, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDuration": format.Duration,
		"metricValue":    format.MetricValue,
		"metricClass": func(passed *bool) string {
			switch {
			case passed == nil:
				return "na"
			case *passed:
				return "pass"
			default:
				return "fail"
			}
		},
		"metricStatus": func(passed *bool) string {
			switch {
			case passed == nil:
				return "N/A"
			case *passed:
				return "PASS"
			default:
				return "FAIL"
			}
		},
	}
}

// writeFile writes data through a temp file so readers never see a partial report.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp report: %w", err)
	}

	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing report: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing report: %w", err)
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec // reports are meant to be shared
		return fmt.Errorf("setting report permissions: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing report: %w", err)
	}

	return nil
}

// Compile-time interface compliance check
var _ Sink = (*HTMLSink)(nil)
