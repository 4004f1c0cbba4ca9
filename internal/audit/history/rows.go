package history

import (
	"time"

	"github.com/ethpandaops/pageaudit/internal/audit/record"
)

// Row kinds stored in audit_results.
const (
	KindURL    = "url"
	KindMetric = "metric"
	KindFlow   = "flow"
)

// Row statuses. They match the simple projection's vocabulary.
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
	StatusNA   = "N/A"
)

// Row is one line of the audit_results table.
type Row struct {
	RunID        string
	RunTimestamp time.Time
	Mode         string
	URL          string
	URLSuccess   uint8
	URLError     string
	Kind         string
	Name         string
	Value        float64
	ThresholdMin *float64
	ThresholdMax *float64
	Status       string
	Error        string
	DurationMs   uint64
}

// Flatten turns rec into rows: one url row per URL followed by its metric
// rows and flow rows, in recorded order.
func Flatten(rec *record.RunRecord) []Row {
	rows := make([]Row, 0, len(rec.Results)*8)

	for _, res := range rec.Results {
		base := Row{
			RunID:        rec.ID,
			RunTimestamp: rec.Timestamp,
			Mode:         string(rec.Mode),
			URL:          res.URL,
			URLError:     res.Error,
		}

		if res.Success {
			base.URLSuccess = 1
		}

		urlRow := base
		urlRow.Kind = KindURL
		urlRow.Status = statusOf(res.Success)
		urlRow.Error = res.Error
		urlRow.DurationMs = durationMs(res.Duration)
		rows = append(rows, urlRow)

		for _, m := range res.Metrics {
			row := base
			row.Kind = KindMetric
			row.Name = m.Name
			row.Value = m.Value
			row.Status = StatusNA

			if m.Threshold != nil {
				row.ThresholdMin = m.Threshold.Min
				row.ThresholdMax = m.Threshold.Max
			}

			if m.Passed != nil {
				row.Status = statusOf(*m.Passed)
			}

			rows = append(rows, row)
		}

		for _, f := range res.Flows {
			row := base
			row.Kind = KindFlow
			row.Name = f.Name
			row.Value = float64(len(f.Steps))
			row.Status = statusOf(f.Passed)
			row.Error = f.Error
			row.DurationMs = durationMs(f.Duration)
			rows = append(rows, row)
		}
	}

	return rows
}

func statusOf(passed bool) string {
	if passed {
		return StatusPass
	}

	return StatusFail
}

func durationMs(d time.Duration) uint64 {
	if d < 0 {
		return 0
	}

	return uint64(d.Milliseconds())
}
