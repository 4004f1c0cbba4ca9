package metrics

import (
	"fmt"
	"time"

	"github.com/ethpandaops/pageaudit/internal/audit/record"
)

// FromURLResult derives collector metrics from an audited URL.
func FromURLResult(res *record.URLResult) *URLResultMetric {
	m := &URLResultMetric{
		URL:          res.URL,
		Success:      res.Success,
		Duration:     res.Duration,
		MetricsTotal: len(res.Metrics),
		FlowsTotal:   len(res.Flows),
		ErrorMessage: res.Error,
		Timestamp:    time.Now(),
	}

	for _, am := range res.Metrics {
		if am.Passed == nil {
			continue
		}

		if *am.Passed {
			m.MetricsPassed++

			continue
		}

		m.MetricsFailed++
		m.FailedChecks = append(m.FailedChecks, FailedCheck{
			Name:   am.Name,
			Kind:   KindMetric,
			Detail: fmt.Sprintf("%g not within %s", am.Value, am.Threshold),
		})
	}

	for _, f := range res.Flows {
		if f.Passed {
			m.FlowsPassed++

			continue
		}

		m.FailedChecks = append(m.FailedChecks, FailedCheck{
			Name:   f.Name,
			Kind:   KindFlow,
			Detail: f.Error,
		})
	}

	return m
}
