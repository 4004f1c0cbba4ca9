// Package simple projects a RunRecord into a flat list of named pass/fail
// results for quick scanning or CI gating.
package simple

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethpandaops/pageaudit/internal/audit/record"
)

// Status is the outcome of one projected check.
type Status string

const (
	// StatusPass is a met threshold or a passing flow.
	StatusPass Status = "PASS"
	// StatusFail is a missed threshold, a failing flow or an audit error.
	StatusFail Status = "FAIL"
	// StatusNA is a metric with no threshold. It neither passes nor fails.
	StatusNA Status = "N/A"
)

const (
	nameSeparator = "::"
	flowPrefix    = "flow:"
	auditCheck    = "audit"
)

var errUnknownStatus = errors.New("unknown status")

// Result is one projected check.
type Result struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// Project flattens rec. URLs keep request order; within a URL metrics come
// before flows, each in recorded order. A URL that errored gets one extra
// "<url>::audit" FAIL entry ahead of whatever partial results it produced.
func Project(rec *record.RunRecord) []Result {
	out := make([]Result, 0, len(rec.Results)*8)

	for _, res := range rec.Results {
		if !res.Success {
			out = append(out, Result{Name: checkName(res.URL, auditCheck), Status: StatusFail})
		}

		for _, m := range res.Metrics {
			out = append(out, Result{Name: checkName(res.URL, m.Name), Status: metricStatus(m)})
		}

		for _, f := range res.Flows {
			status := StatusFail
			if f.Passed {
				status = StatusPass
			}

			out = append(out, Result{Name: checkName(res.URL, flowPrefix+f.Name), Status: status})
		}
	}

	return out
}

// FormatJSON renders results as a JSON array of {name, status} objects.
func FormatJSON(results []Result) ([]byte, error) {
	if results == nil {
		results = []Result{}
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling simple results: %w", err)
	}

	return data, nil
}

// FormatString renders one "name: STATUS" line per result.
func FormatString(results []Result) string {
	var sb strings.Builder

	for _, r := range results {
		sb.WriteString(r.Name)
		sb.WriteString(": ")
		sb.WriteString(string(r.Status))
		sb.WriteByte('\n')
	}

	return sb.String()
}

// ParseJSON reads output produced by FormatJSON.
func ParseJSON(data []byte) ([]Result, error) {
	var results []Result
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parsing simple results: %w", err)
	}

	for _, r := range results {
		switch r.Status {
		case StatusPass, StatusFail, StatusNA:
		default:
			return nil, fmt.Errorf("%w: %q for %s", errUnknownStatus, r.Status, r.Name)
		}
	}

	return results, nil
}

func metricStatus(m record.AuditMetric) Status {
	switch {
	case m.Passed == nil:
		return StatusNA
	case *m.Passed:
		return StatusPass
	default:
		return StatusFail
	}
}

func checkName(url, check string) string {
	return url + nameSeparator + check
}
