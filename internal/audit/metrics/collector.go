// Package metrics provides audit execution metrics collection and aggregation.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CheckKind says whether a failed check was a threshold metric or a flow.
type CheckKind string

const (
	// KindMetric is a metric that missed its threshold.
	KindMetric CheckKind = "metric"
	// KindFlow is a flow that failed.
	KindFlow CheckKind = "flow"
)

// FailedCheck captures details about a single failed metric or flow
type FailedCheck struct {
	Name   string
	Kind   CheckKind
	Detail string
}

// URLResultMetric captures metrics about one audited URL
type URLResultMetric struct {
	URL           string
	Success       bool
	Duration      time.Duration
	MetricsTotal  int
	MetricsPassed int
	MetricsFailed int
	FlowsTotal    int
	FlowsPassed   int
	ErrorMessage  string // empty if the URL audited cleanly
	FailedChecks  []FailedCheck
	Timestamp     time.Time
}

// Passed reports whether the URL audited cleanly with no failed checks.
func (m URLResultMetric) Passed() bool {
	return m.Success && m.MetricsFailed == 0 && m.FlowsPassed == m.FlowsTotal
}

// SummaryMetric provides aggregate statistics across all URLs
type SummaryMetric struct {
	TotalDuration time.Duration
	TotalURLs     int
	PassedURLs    int
	FailedURLs    int
	ErroredURLs   int
	ChecksTotal   int
	ChecksPassed  int
	ChecksFailed  int
	ChecksNA      int
}

// Collector interface for metrics collection
type Collector interface {
	Start(ctx context.Context) error
	Stop() error
	RecordURLResult(metric *URLResultMetric)
	GetURLMetrics() []URLResultMetric
	GetSummary() SummaryMetric
}

// collector implements Collector interface
type collector struct {
	log        logrus.FieldLogger
	mu         sync.RWMutex
	urlMetrics []URLResultMetric
	startTime  time.Time
}

// NewCollector creates a new metrics collector
func NewCollector(log logrus.FieldLogger) Collector {
	return &collector{
		log:        log.WithField("component", "metrics_collector"),
		urlMetrics: make([]URLResultMetric, 0, 16), // capacity hint
		startTime:  time.Now(),
	}
}

func (c *collector) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()

	c.log.Debug("metrics collector started")

	return nil
}

func (c *collector) Stop() error {
	c.log.Debug("metrics collector stopped")

	return nil
}

func (c *collector) RecordURLResult(metric *URLResultMetric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urlMetrics = append(c.urlMetrics, *metric)
}

func (c *collector) GetURLMetrics() []URLResultMetric {
	c.mu.RLock()
	defer c.mu.RUnlock()
	// Return copy to avoid race conditions
	result := make([]URLResultMetric, len(c.urlMetrics))
	copy(result, c.urlMetrics)
	return result
}

func (c *collector) GetSummary() SummaryMetric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	summary := SummaryMetric{
		TotalDuration: time.Since(c.startTime),
		TotalURLs:     len(c.urlMetrics),
	}

	for _, m := range c.urlMetrics {
		switch {
		case !m.Success:
			summary.ErroredURLs++
			summary.FailedURLs++
		case m.Passed():
			summary.PassedURLs++
		default:
			summary.FailedURLs++
		}

		gated := m.MetricsPassed + m.MetricsFailed
		summary.ChecksTotal += m.MetricsTotal + m.FlowsTotal
		summary.ChecksPassed += m.MetricsPassed + m.FlowsPassed
		summary.ChecksFailed += m.MetricsFailed + (m.FlowsTotal - m.FlowsPassed)
		summary.ChecksNA += m.MetricsTotal - gated
	}

	return summary
}

// Compile-time interface compliance check
var _ Collector = (*collector)(nil)
