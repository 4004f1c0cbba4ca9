package config

import "time"

const (
	// DefaultTestURL is the target used by --flows when neither --url nor TEST_URL is set.
	DefaultTestURL = "https://example.com"
	// DefaultReportDir is where report.html and summary.txt are written.
	DefaultReportDir = "reports"
	// DefaultHistoryFile is the JSON run-history file appended to by --save.
	DefaultHistoryFile = "data/results.json"
	// DefaultConcurrency is the number of URLs audited at once.
	DefaultConcurrency = 1
	// DefaultStepTimeout bounds a single browser action.
	DefaultStepTimeout = 30 * time.Second
	// DefaultLighthouseBin is the lighthouse executable looked up on PATH.
	DefaultLighthouseBin = "lighthouse"
	// DefaultPa11yBin is the pa11y executable looked up on PATH.
	DefaultPa11yBin = "pa11y"
	// DefaultEngines lists the audit engines run for every URL, in order.
	DefaultEngines = "lighthouse,pa11y"
	// HistoryDatabase is the ClickHouse database holding run history.
	HistoryDatabase = "pageaudit"
)
