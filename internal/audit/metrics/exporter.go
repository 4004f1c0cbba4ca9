package metrics

import (
	"fmt"

	"github.com/ethpandaops/pageaudit/internal/audit/record"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsNamespace prefixes every exported series.
const MetricsNamespace = "pageaudit"

// Exporter turns a RunRecord into Prometheus series, for node-exporter's
// textfile collector or any other Gatherer consumer.
type Exporter struct {
	registry *prometheus.Registry

	metricValue  *prometheus.GaugeVec
	metricPassed *prometheus.GaugeVec
	flowPassed   *prometheus.GaugeVec
	urlSuccess   *prometheus.GaugeVec
	urlDuration  *prometheus.GaugeVec
	runTimestamp prometheus.Gauge
}

// NewExporter creates an exporter with its own registry.
func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		metricValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "metric_value",
			Help:      "Measured value of an audit metric",
		}, []string{"url", "metric"}),
		metricPassed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "metric_passed",
			Help:      "1 if the metric met its threshold, 0 if not. Absent when no threshold applies",
		}, []string{"url", "metric"}),
		flowPassed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "flow_passed",
			Help:      "1 if the flow passed, 0 if not",
		}, []string{"url", "flow"}),
		urlSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "url_success",
			Help:      "1 if the URL was audited without infrastructure errors",
		}, []string{"url"}),
		urlDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "url_duration_seconds",
			Help:      "Time spent auditing the URL",
		}, []string{"url"}),
		runTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "run_timestamp_seconds",
			Help:      "Unix time the run started",
		}),
	}

	e.registry.MustRegister(
		e.metricValue,
		e.metricPassed,
		e.flowPassed,
		e.urlSuccess,
		e.urlDuration,
		e.runTimestamp,
	)

	return e
}

// Observe sets gauges from rec.
func (e *Exporter) Observe(rec *record.RunRecord) {
	e.runTimestamp.Set(float64(rec.Timestamp.Unix()))

	for _, res := range rec.Results {
		e.urlSuccess.WithLabelValues(res.URL).Set(boolToFloat(res.Success))
		e.urlDuration.WithLabelValues(res.URL).Set(res.Duration.Seconds())

		for _, m := range res.Metrics {
			e.metricValue.WithLabelValues(res.URL, m.Name).Set(m.Value)

			if m.Passed != nil {
				e.metricPassed.WithLabelValues(res.URL, m.Name).Set(boolToFloat(*m.Passed))
			}
		}

		for _, f := range res.Flows {
			e.flowPassed.WithLabelValues(res.URL, f.Name).Set(boolToFloat(f.Passed))
		}
	}
}

// Gatherer exposes the exporter's registry.
func (e *Exporter) Gatherer() prometheus.Gatherer {
	return e.registry
}

// WriteTextfile writes all series in the text exposition format.
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}

	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
