// Package record defines the result of one pageaudit invocation.
package record

import (
	"encoding/json"
	"time"

	"github.com/ethpandaops/pageaudit/internal/audit/threshold"
)

// Mode identifies which suites a run executed.
type Mode string

const (
	// ModeFull runs the audit engines and the flow suite.
	ModeFull Mode = "full"
	// ModeFlows runs the flow suite only.
	ModeFlows Mode = "flows"
)

// RunRecord is the complete result of one invocation across all requested URLs.
// Results holds exactly one entry per URL, in request order.
type RunRecord struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Mode      Mode          `json:"mode"`
	URLs      []string      `json:"urls"`
	Results   []URLResult   `json:"results"`
	Duration  time.Duration `json:"duration"`
}

// URLResult holds everything measured for a single URL. Success is false when
// the audit engine or flow infrastructure failed for this URL; Error says why.
type URLResult struct {
	URL      string        `json:"url"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Metrics  []AuditMetric `json:"metrics"`
	Flows    []FlowResult  `json:"flows"`
	Duration time.Duration `json:"duration"`
}

// AuditMetric is one measured value. Passed is nil when no threshold applies.
type AuditMetric struct {
	Name      string           `json:"name"`
	Value     float64          `json:"value"`
	Threshold *threshold.Bound `json:"threshold,omitempty"`
	Passed    *bool            `json:"passed"`
}

// FlowResult is the outcome of one scripted browser flow.
type FlowResult struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Steps    []StepResult  `json:"steps"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// StepResult is the outcome of one flow step.
type StepResult struct {
	Name     string        `json:"name"`
	Action   string        `json:"action"`
	Passed   bool          `json:"passed"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Result returns the entry for url.
func (r *RunRecord) Result(url string) (*URLResult, bool) {
	for i := range r.Results {
		if r.Results[i].URL == url {
			return &r.Results[i], true
		}
	}

	return nil, false
}

// Summary counts outcomes across a record.
type Summary struct {
	URLs          int
	FailedURLs    int
	MetricsPassed int
	MetricsFailed int
	MetricsNA     int
	FlowsPassed   int
	FlowsFailed   int
}

// Failed reports whether anything in the run failed.
func (s Summary) Failed() bool {
	return s.FailedURLs > 0 || s.MetricsFailed > 0 || s.FlowsFailed > 0
}

// Summarize counts metric, flow and URL outcomes.
func (r *RunRecord) Summarize() Summary {
	s := Summary{URLs: len(r.Results)}

	for _, res := range r.Results {
		if !res.Success {
			s.FailedURLs++
		}

		for _, m := range res.Metrics {
			switch {
			case m.Passed == nil:
				s.MetricsNA++
			case *m.Passed:
				s.MetricsPassed++
			default:
				s.MetricsFailed++
			}
		}

		for _, f := range res.Flows {
			if f.Passed {
				s.FlowsPassed++
			} else {
				s.FlowsFailed++
			}
		}
	}

	return s
}

// MarshalVerbose renders the record as indented JSON, the full-fidelity output.
func (r *RunRecord) MarshalVerbose() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
