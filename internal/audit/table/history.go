package table

import (
	"fmt"

	"github.com/ethpandaops/pageaudit/internal/audit/history"
	"github.com/sirupsen/logrus"
)

// HistoryFormatter formats stored runs with their trend labels.
type HistoryFormatter struct {
	log      logrus.FieldLogger
	renderer Renderer
	colors   *ColorHelper
}

// NewHistoryFormatter creates a new history table formatter.
func NewHistoryFormatter(log logrus.FieldLogger, renderer Renderer) *HistoryFormatter {
	return &HistoryFormatter{
		log:      log.WithField("component", "table.history_formatter"),
		renderer: renderer,
		colors:   NewColorHelper(),
	}
}

// Format renders one row per run, oldest first.
func (f *HistoryFormatter) Format(entries []history.Entry) string {
	if len(entries) == 0 {
		return "No saved runs"
	}

	var (
		headers = []string{"Run", "Time", "Mode", "URLs", "Passed", "Failed", "N/A", "Pass Rate", "Trend"}
		rows    = make([][]string, 0, len(entries))
	)

	for _, e := range entries {
		urls := fmt.Sprintf("%d", e.URLs)
		if e.FailedURLs > 0 {
			urls = f.colors.Failure(fmt.Sprintf("%d (%d errored)", e.URLs, e.FailedURLs))
		}

		rows = append(rows, []string{
			shortID(e.ID),
			e.Timestamp.Format("2006-01-02 15:04:05"),
			string(e.Mode),
			urls,
			fmt.Sprintf("%d", e.ChecksPass),
			fmt.Sprintf("%d", e.ChecksFail),
			fmt.Sprintf("%d", e.ChecksNA),
			f.colors.FormatPercentage(e.PassRate()),
			f.formatTrend(e),
		})
	}

	return "\n" + f.colors.Header("▸ Run History") + "\n\n" + f.renderer.RenderToString(headers, rows, WithKind("history"), WithRightAligned(3, 4, 5, 6, 7))
}

func (f *HistoryFormatter) formatTrend(e history.Entry) string {
	switch e.Trend {
	case history.TrendImproving:
		return f.colors.Success(fmt.Sprintf("%s (%+.1f)", e.Trend, e.TrendDelta))
	case history.TrendDeclining:
		return f.colors.Failure(fmt.Sprintf("%s (%+.1f)", e.Trend, e.TrendDelta))
	case history.TrendFirstRun:
		return f.colors.Info(e.Trend)
	default:
		return f.colors.Muted(e.Trend)
	}
}

// shortID trims a uuid to its first group.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}
