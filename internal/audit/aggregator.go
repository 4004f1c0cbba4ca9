// Package audit orchestrates audit engines and flows across a list of URLs
// and assembles the run record.
package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethpandaops/pageaudit/internal/audit/engine"
	"github.com/ethpandaops/pageaudit/internal/audit/metrics"
	"github.com/ethpandaops/pageaudit/internal/audit/record"
	"github.com/ethpandaops/pageaudit/internal/audit/threshold"
	"github.com/ethpandaops/pageaudit/internal/config"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	errNoURLs        = errors.New("no URLs to audit")
	errNothingToRun  = errors.New("neither an audit engine nor a flow runner is configured")
	errURLNotStarted = errors.New("run cancelled before the URL was audited")
)

// FlowRunner runs the configured flow suite against one URL.
type FlowRunner interface {
	RunAll(ctx context.Context, target string) ([]record.FlowResult, error)
}

// Config configures an Aggregator. Engine or Flows may be nil to skip that suite.
type Config struct {
	Logger      logrus.FieldLogger
	Engine      engine.Engine
	Flows       FlowRunner
	Thresholds  *threshold.Set
	Concurrency int
	Metrics     metrics.Collector // optional
	Mode        record.Mode       // defaults from which suites are configured
}

// Aggregator audits URLs independently and assembles a RunRecord.
type Aggregator struct {
	log         logrus.FieldLogger
	engine      engine.Engine
	flows       FlowRunner
	thresholds  *threshold.Set
	concurrency int
	metrics     metrics.Collector
	mode        record.Mode
	now         func() time.Time
}

// NewAggregator creates an aggregator from cfg.
func NewAggregator(cfg *Config) *Aggregator {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = config.DefaultConcurrency
	}

	mode := cfg.Mode
	if mode == "" {
		mode = record.ModeFlows
		if cfg.Engine != nil {
			mode = record.ModeFull
		}
	}

	return &Aggregator{
		log:         cfg.Logger.WithField("component", "aggregator"),
		engine:      cfg.Engine,
		flows:       cfg.Flows,
		thresholds:  cfg.Thresholds,
		concurrency: concurrency,
		metrics:     cfg.Metrics,
		mode:        mode,
		now:         time.Now,
	}
}

// ParseURLs splits a comma-separated URL list, dropping blanks and repeats.
// First occurrence order is kept.
func ParseURLs(raw string) []string {
	return dedupe(config.ParseList(raw))
}

// Run audits every URL and returns one result per URL in input order. A
// failure on one URL is recorded on its result and never affects the others;
// an error is returned only when there is nothing to run.
func (a *Aggregator) Run(ctx context.Context, urls []string) (*record.RunRecord, error) {
	if a.engine == nil && a.flows == nil {
		return nil, errNothingToRun
	}

	targets := dedupe(urls)
	if len(targets) == 0 {
		return nil, errNoURLs
	}

	started := a.now()
	rec := &record.RunRecord{
		ID:        uuid.NewString(),
		Timestamp: started.UTC(),
		Mode:      a.mode,
		URLs:      targets,
		Results:   make([]record.URLResult, len(targets)),
	}

	a.log.WithFields(logrus.Fields{
		"run_id":      rec.ID,
		"urls":        len(targets),
		"mode":        a.mode,
		"concurrency": a.concurrency,
	}).Info("starting audit run")

	g, gCtx := errgroup.WithContext(ctx)

	sem := make(chan struct{}, a.concurrency)

	// Slots are taken in request order, so URLs start in the order given.
	for i, target := range targets {
		if err := gCtx.Err(); err != nil {
			rec.Results[i] = notStarted(target, err)
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-gCtx.Done():
			rec.Results[i] = notStarted(target, gCtx.Err())
			continue
		}

		g.Go(func() error {
			defer func() { <-sem }()

			// Each goroutine writes a unique index.
			rec.Results[i] = a.auditURL(gCtx, target)

			return nil
		})
	}

	// Workers record failures on their result and never return an error.
	_ = g.Wait()

	rec.Duration = a.now().Sub(started)

	s := rec.Summarize()
	a.log.WithFields(logrus.Fields{
		"run_id":         rec.ID,
		"failed_urls":    s.FailedURLs,
		"metrics_failed": s.MetricsFailed,
		"flows_failed":   s.FlowsFailed,
		"duration":       rec.Duration,
	}).Info("audit run complete")

	return rec, nil
}

func (a *Aggregator) auditURL(ctx context.Context, target string) record.URLResult {
	log := a.log.WithField("url", target)
	start := a.now()

	res := record.URLResult{
		URL:     target,
		Success: true,
		Metrics: []record.AuditMetric{},
		Flows:   []record.FlowResult{},
	}

	var failures []string

	if a.engine != nil {
		log.WithField("engine", a.engine.Name()).Debug("running audit engine")

		measurements, err := a.engine.Audit(ctx, target)
		res.Metrics = append(res.Metrics, a.evaluate(measurements)...)

		if err != nil {
			log.WithError(err).Warn("audit engine failed")
			failures = append(failures, fmt.Sprintf("audit: %v", err))
		}
	}

	if a.flows != nil {
		log.Debug("running flows")

		flows, err := a.flows.RunAll(ctx, target)
		res.Flows = append(res.Flows, flows...)

		if err != nil {
			log.WithError(err).Warn("flow suite failed")
			failures = append(failures, fmt.Sprintf("flows: %v", err))
		}
	}

	if len(failures) > 0 {
		res.Success = false
		res.Error = strings.Join(failures, "; ")
	}

	res.Duration = a.now().Sub(start)

	if a.metrics != nil {
		a.metrics.RecordURLResult(metrics.FromURLResult(&res))
	}

	log.WithFields(logrus.Fields{
		"success":  res.Success,
		"metrics":  len(res.Metrics),
		"flows":    len(res.Flows),
		"duration": res.Duration,
	}).Info("URL audited")

	return res
}

// evaluate gates each measurement against the loaded thresholds.
func (a *Aggregator) evaluate(measurements []engine.Measurement) []record.AuditMetric {
	out := make([]record.AuditMetric, 0, len(measurements))

	for _, m := range measurements {
		bound, passed := a.thresholds.Evaluate(m.Name, m.Value)
		out = append(out, record.AuditMetric{
			Name:      m.Name,
			Value:     m.Value,
			Threshold: bound,
			Passed:    passed,
		})
	}

	return out
}

func notStarted(target string, cause error) record.URLResult {
	return record.URLResult{
		URL:     target,
		Success: false,
		Error:   fmt.Errorf("%w: %w", errURLNotStarted, cause).Error(),
		Metrics: []record.AuditMetric{},
		Flows:   []record.FlowResult{},
	}
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))

	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}

		if _, ok := seen[u]; ok {
			continue
		}

		seen[u] = struct{}{}
		out = append(out, u)
	}

	return out
}
