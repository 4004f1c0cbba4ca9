package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethpandaops/pageaudit/internal/audit"
	"github.com/ethpandaops/pageaudit/internal/audit/engine"
	"github.com/ethpandaops/pageaudit/internal/audit/flow"
	"github.com/ethpandaops/pageaudit/internal/audit/history"
	"github.com/ethpandaops/pageaudit/internal/audit/metrics"
	"github.com/ethpandaops/pageaudit/internal/audit/output"
	"github.com/ethpandaops/pageaudit/internal/audit/record"
	"github.com/ethpandaops/pageaudit/internal/audit/report"
	"github.com/ethpandaops/pageaudit/internal/audit/simple"
	"github.com/ethpandaops/pageaudit/internal/audit/table"
	"github.com/ethpandaops/pageaudit/internal/audit/threshold"
	"github.com/ethpandaops/pageaudit/internal/config"
	"github.com/ethpandaops/pageaudit/internal/exitcodes"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	formatJSON   = "json"
	formatString = "string"
)

// auditOptions holds the root command's flags.
type auditOptions struct {
	url            string
	flowsOnly      bool
	thresholdsPath string
	save           bool
	simple         bool
	format         string

	flowsFile   string
	flowNames   []string
	report      bool
	reportDir   string
	historyFile string
	concurrency int
	timeout     time.Duration
	metricsFile string
	strict      bool
	quiet       bool
	verbose     bool
	headful     bool
}

// Constructors replaced in tests.
var (
	newEngine = func(log logrus.FieldLogger, names []string, cfg engine.Config) (engine.Engine, error) {
		m, err := engine.New(log, names, cfg)
		if err != nil {
			return nil, err
		}

		return m, nil
	}

	newSessionFactory = func(log logrus.FieldLogger, cfg flow.ChromeConfig) flow.SessionFactory {
		return flow.NewChromeSessionFactory(log, cfg)
	}

	newHistoryStore = openHistory
)

func bindAuditFlags(cmd *cobra.Command, opts *auditOptions) {
	flags := cmd.Flags()

	flags.StringVar(&opts.url, "url", "", "URL or comma-separated URLs to audit (required unless --flows)")
	flags.BoolVar(&opts.flowsOnly, "flows", false, "Run the flow suite only, against --url, TEST_URL or "+config.DefaultTestURL)
	flags.StringVar(&opts.thresholdsPath, "thresholds", "", "Path to a JSON or YAML thresholds file")
	flags.BoolVar(&opts.save, "save", false, "Append the run to the history store")
	flags.BoolVar(&opts.simple, "simple", false, "Print name + PASS/FAIL results instead of the full record")
	flags.StringVar(&opts.format, "format", formatString, "Simple output format: json or string")

	flags.StringVar(&opts.flowsFile, "flows-file", "", "YAML file with extra flow definitions")
	flags.StringSliceVar(&opts.flowNames, "flow", nil, "Run only the named flow(s)")
	flags.BoolVar(&opts.report, "report", true, "Write report.html and summary.txt to the report directory")
	flags.StringVar(&opts.reportDir, "report-dir", config.DefaultReportDir, "Report directory (overrides PAGEAUDIT_REPORT_DIR)")
	flags.StringVar(&opts.historyFile, "history-file", config.DefaultHistoryFile, "History file (overrides PAGEAUDIT_HISTORY_FILE)")
	flags.IntVar(&opts.concurrency, "concurrency", config.DefaultConcurrency, "Number of URLs audited in parallel (overrides PAGEAUDIT_CONCURRENCY)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Overall run timeout, 0 for none")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	flags.BoolVar(&opts.strict, "strict", false, "Exit non-zero when any check fails or a URL errors")
	flags.BoolVar(&opts.quiet, "quiet", false, "Suppress console tables and info logs")
	flags.BoolVar(&opts.verbose, "verbose", false, "Debug logging and per-metric tables")
	flags.BoolVar(&opts.headful, "headful", false, "Show the browser window while running flows")
}

// applyOverrides lets explicitly set flags win over environment configuration.
func applyOverrides(cmd *cobra.Command, cfg *config.AppConfig, opts *auditOptions) {
	flags := cmd.Flags()

	if flags.Changed("report-dir") {
		cfg.ReportDir = opts.reportDir
	}

	if flags.Changed("history-file") {
		cfg.HistoryFile = opts.historyFile
	}

	if flags.Changed("concurrency") {
		cfg.Concurrency = opts.concurrency
	}
}

// resolveURLs applies the URL rules: --flows falls back to TEST_URL and then
// the default URL; otherwise --url is required.
func resolveURLs(cfg *config.AppConfig, opts *auditOptions) ([]string, error) {
	raw := opts.url

	if opts.flowsOnly {
		raw = config.ResolveFlowsURL(opts.url, cfg.TestURL)
	} else if strings.TrimSpace(raw) == "" {
		return nil, usageError(errURLRequired)
	}

	urls := audit.ParseURLs(raw)
	if len(urls) == 0 {
		return nil, usageError(errNoURLs)
	}

	return urls, nil
}

func runAudit(cmd *cobra.Command, opts *auditOptions) error {
	log := newLogger(cmd.ErrOrStderr(), opts.verbose, opts.quiet)

	cfg, err := config.Load()
	if err != nil {
		return configError(err)
	}

	applyOverrides(cmd, cfg, opts)

	if opts.format != formatJSON && opts.format != formatString {
		return usageError(fmt.Errorf("%w, got %q", errBadFormat, opts.format))
	}

	urls, err := resolveURLs(cfg, opts)
	if err != nil {
		return err
	}

	// Thresholds are fatal before anything is audited.
	thresholds, err := threshold.Load(opts.thresholdsPath)
	if err != nil {
		return configError(err)
	}

	registry, err := buildRegistry(log, opts)
	if err != nil {
		return err
	}

	var eng engine.Engine

	mode := record.ModeFlows
	if !opts.flowsOnly {
		mode = record.ModeFull

		eng, err = newEngine(log, cfg.Engines, engine.Config{
			LighthouseBin: cfg.LighthouseBin,
			Pa11yBin:      cfg.Pa11yBin,
			ChromePath:    cfg.ChromePath,
		})
		if err != nil {
			return configError(fmt.Errorf("configuring audit engines: %w", err))
		}
	}

	sessions := newSessionFactory(log, flow.ChromeConfig{
		ExecPath:    cfg.ChromePath,
		Headful:     opts.headful,
		StepTimeout: cfg.StepTimeout,
	})

	log.WithFields(logrus.Fields{
		"urls":       strings.Join(urls, ", "),
		"mode":       mode,
		"thresholds": thresholds.Len(),
		"flows":      strings.Join(registry.Names(), ", "),
	}).Info("running audit")

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx := sigCtx
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(sigCtx, opts.timeout)
		defer cancel()
	}

	collector := metrics.NewCollector(log)
	if err := collector.Start(runCtx); err != nil {
		return fmt.Errorf("starting metrics collector: %w", err)
	}

	defer func() { _ = collector.Stop() }()

	aggregator := audit.NewAggregator(&audit.Config{
		Logger:      log,
		Engine:      eng,
		Flows:       flow.NewRunner(log, sessions, registry),
		Thresholds:  thresholds,
		Concurrency: cfg.Concurrency,
		Metrics:     collector,
		Mode:        mode,
	})

	rec, err := aggregator.Run(runCtx, urls)
	if err != nil {
		return fmt.Errorf("running audit: %w", err)
	}

	if sigCtx.Err() != nil {
		log.Warn("received interrupt signal, discarding partial run")
		return &exitError{code: exitcodes.Interrupted, err: errInterrupted}
	}

	if opts.save {
		saveHistory(cmd.Context(), log, cfg, rec)
	}

	if opts.report {
		writeReports(log, cfg.ReportDir, rec)
	}

	if opts.metricsFile != "" {
		exportMetrics(log, opts.metricsFile, rec)
	}

	if !opts.quiet {
		printTables(log, cmd.ErrOrStderr(), opts.verbose, collector, rec)
	}

	if err := printRecord(cmd.OutOrStdout(), rec, opts); err != nil {
		return err
	}

	if opts.strict && rec.Summarize().Failed() {
		return &exitError{code: exitcodes.TestFailure, err: errChecksFailed}
	}

	return nil
}

// buildRegistry assembles builtin and file flows, narrowed by --flow.
func buildRegistry(log logrus.FieldLogger, opts *auditOptions) (*flow.Registry, error) {
	registry := flow.DefaultRegistry()

	if opts.flowsFile != "" {
		flows, err := flow.LoadFile(log, opts.flowsFile)
		if err != nil {
			return nil, configError(err)
		}

		if err := registry.Add(flows...); err != nil {
			return nil, configError(fmt.Errorf("adding flows from %s: %w", opts.flowsFile, err))
		}
	}

	if len(opts.flowNames) == 0 {
		return registry, nil
	}

	selected, err := registry.Select(opts.flowNames)
	if err != nil {
		if flow.IsUnknownFlow(err) {
			return nil, usageError(err)
		}

		return nil, configError(err)
	}

	return selected, nil
}

// openHistory returns the JSON history store, fanned out to ClickHouse when
// a DSN is configured and reachable.
func openHistory(ctx context.Context, log logrus.FieldLogger, cfg *config.AppConfig) history.Store {
	jsonStore := history.NewJSONStore(log, cfg.HistoryFile, history.DefaultMaxRuns)

	if cfg.HistoryDSN == "" {
		return jsonStore
	}

	chStore, err := history.NewClickHouseStore(ctx, log, cfg.HistoryDSN)
	if err != nil {
		log.WithError(err).Warn("clickhouse history unavailable, using history file only")
		return jsonStore
	}

	return history.NewMulti(jsonStore, chStore)
}

func saveHistory(ctx context.Context, log logrus.FieldLogger, cfg *config.AppConfig, rec *record.RunRecord) {
	store := newHistoryStore(ctx, log, cfg)
	defer func() { _ = store.Close() }()

	if err := store.Append(ctx, rec); err != nil {
		log.WithError(err).Warn("failed to save run to history")
	}
}

func writeReports(log logrus.FieldLogger, dir string, rec *record.RunRecord) {
	htmlSink, err := report.NewHTMLSink(log, dir)
	if err != nil {
		log.WithError(err).Warn("failed to prepare html report")
	}

	renderer := table.NewRenderer(log)
	sinks := []report.Sink{report.NewTextSink(log, dir, table.NewMetricsFormatter(log, renderer))}

	if htmlSink != nil {
		sinks = append([]report.Sink{htmlSink}, sinks...)
	}

	for _, sink := range sinks {
		if _, err := sink.Write(rec); err != nil {
			log.WithError(err).Warn("failed to write report")
		}
	}
}

func exportMetrics(log logrus.FieldLogger, path string, rec *record.RunRecord) {
	exporter := metrics.NewExporter()
	exporter.Observe(rec)

	if err := exporter.WriteTextfile(path); err != nil {
		log.WithError(err).Warn("failed to write metrics textfile")
		return
	}

	log.WithField("path", path).Info("wrote metrics textfile")
}

func printTables(log logrus.FieldLogger, w io.Writer, verbose bool, collector metrics.Collector, rec *record.RunRecord) {
	renderer := table.NewRenderer(log)
	formatter := output.NewFormatter(
		w,
		verbose,
		collector,
		table.NewResultsFormatter(log, renderer),
		table.NewMetricsFormatter(log, renderer),
		table.NewSummaryFormatter(log, renderer),
	)

	formatter.PrintResults()
	formatter.PrintMetrics(rec)
	formatter.PrintSummary()
}

// printRecord writes the chosen result representation to stdout.
func printRecord(w io.Writer, rec *record.RunRecord, opts *auditOptions) error {
	if !opts.simple {
		data, err := rec.MarshalVerbose()
		if err != nil {
			return fmt.Errorf("marshaling run record: %w", err)
		}

		_, err = fmt.Fprintln(w, string(data))

		return err
	}

	results := simple.Project(rec)

	if opts.format == formatJSON {
		data, err := simple.FormatJSON(results)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(w, string(data))

		return err
	}

	_, err := io.WriteString(w, simple.FormatString(results))

	return err
}
