// Package table renders audit results as console tables.
package table

import (
	"bytes"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
)

// Renderer provides table rendering utilities
type Renderer interface {
	RenderToString(headers []string, rows [][]string, opts ...RenderOption) string
	RenderToWriter(w io.Writer, headers []string, rows [][]string, opts ...RenderOption)
}

// renderer implements Renderer interface
type renderer struct {
	log logrus.FieldLogger
}

// NewRenderer creates a new table renderer
func NewRenderer(log logrus.FieldLogger) Renderer {
	return &renderer{
		log: log.WithField("component", "table.renderer"),
	}
}

// RenderOption configures table rendering
type RenderOption func(*renderConfig)

type renderConfig struct {
	kind         string
	border       bool
	rowLine      bool
	rightAligned map[int]bool
}

// WithKind names the table in debug logs.
func WithKind(kind string) RenderOption {
	return func(c *renderConfig) {
		c.kind = kind
	}
}

// WithBorder controls border visibility
func WithBorder(show bool) RenderOption {
	return func(c *renderConfig) {
		c.border = show
	}
}

// WithRowSeparator controls row separator lines
func WithRowSeparator(show bool) RenderOption {
	return func(c *renderConfig) {
		c.rowLine = show
	}
}

// WithRightAligned right-aligns the given zero-based columns, for numbers.
func WithRightAligned(columns ...int) RenderOption {
	return func(c *renderConfig) {
		for _, col := range columns {
			c.rightAligned[col] = true
		}
	}
}

func (r *renderer) RenderToString(headers []string, rows [][]string, opts ...RenderOption) string {
	buf := &bytes.Buffer{}
	r.RenderToWriter(buf, headers, rows, opts...)
	return buf.String()
}

func (r *renderer) RenderToWriter(w io.Writer, headers []string, rows [][]string, opts ...RenderOption) {
	cfg := &renderConfig{
		kind:         "table",
		border:       true,
		rightAligned: make(map[int]bool),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("│")
	table.SetRowSeparator("─")
	table.SetHeaderLine(true)
	table.SetBorder(cfg.border)
	table.SetRowLine(cfg.rowLine)
	table.SetTablePadding(" ")
	table.SetNoWhiteSpace(false)

	if len(cfg.rightAligned) > 0 {
		alignments := make([]int, len(headers))
		for i := range alignments {
			alignments[i] = tablewriter.ALIGN_LEFT
			if cfg.rightAligned[i] {
				alignments[i] = tablewriter.ALIGN_RIGHT
			}
		}

		table.SetColumnAlignment(alignments)
	} else {
		table.SetAlignment(tablewriter.ALIGN_LEFT)
	}

	table.AppendBulk(rows)
	table.Render()

	r.log.WithFields(logrus.Fields{
		"kind":    cfg.kind,
		"columns": len(headers),
		"rows":    len(rows),
	}).Debug("rendered table")
}

// Compile-time interface compliance check
var _ Renderer = (*renderer)(nil)
