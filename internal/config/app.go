// Package config handles configuration loading and management
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds the runtime configuration loaded from environment variables.
// Command-line flags override individual fields after Load.
type AppConfig struct {
	TestURL       string
	ReportDir     string
	HistoryFile   string
	HistoryDSN    string
	Concurrency   int
	StepTimeout   time.Duration
	LighthouseBin string
	Pa11yBin      string
	ChromePath    string
	Engines       []string
}

// Load reads configuration from environment variables and .env file.
func Load() (*AppConfig, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// It's okay if the file doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &AppConfig{
		TestURL:       getEnv("TEST_URL", ""),
		ReportDir:     getEnv("PAGEAUDIT_REPORT_DIR", DefaultReportDir),
		HistoryFile:   getEnv("PAGEAUDIT_HISTORY_FILE", DefaultHistoryFile),
		HistoryDSN:    getEnv("PAGEAUDIT_HISTORY_DSN", ""),
		LighthouseBin: getEnv("LIGHTHOUSE_BIN", DefaultLighthouseBin),
		Pa11yBin:      getEnv("PA11Y_BIN", DefaultPa11yBin),
		ChromePath:    getEnv("CHROME_PATH", ""),
		Engines:       ParseList(getEnv("PAGEAUDIT_ENGINES", DefaultEngines)),
	}

	concurrency, err := strconv.Atoi(getEnv("PAGEAUDIT_CONCURRENCY", strconv.Itoa(DefaultConcurrency)))
	if err != nil {
		return nil, fmt.Errorf("invalid PAGEAUDIT_CONCURRENCY: %w", err)
	}
	cfg.Concurrency = concurrency

	stepTimeout, err := time.ParseDuration(getEnv("PAGEAUDIT_STEP_TIMEOUT", DefaultStepTimeout.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid PAGEAUDIT_STEP_TIMEOUT: %w", err)
	}
	cfg.StepTimeout = stepTimeout

	return cfg, nil
}

// ResolveFlowsURL picks the target for --flows mode: the flag value, then
// TEST_URL, then DefaultTestURL.
func ResolveFlowsURL(flagValue, envValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}

	if strings.TrimSpace(envValue) != "" {
		return envValue
	}

	return DefaultTestURL
}

func (c *AppConfig) String() string {
	testURLDisplay := c.TestURL
	if testURLDisplay == "" {
		testURLDisplay = fmt.Sprintf("(not set, flows fall back to %s)", DefaultTestURL)
	}

	historyDSNDisplay := "(not set)"
	if c.HistoryDSN != "" {
		historyDSNDisplay = redactDSN(c.HistoryDSN)
	}

	chromeDisplay := c.ChromePath
	if chromeDisplay == "" {
		chromeDisplay = "(auto-detect)"
	}

	return fmt.Sprintf(`Current Configuration:
======================
Test URL:            %s
Report Dir:          %s
History File:        %s
History DSN:         %s
Concurrency:         %d
Step Timeout:        %s
Engines:             %s
Lighthouse Binary:   %s
Pa11y Binary:        %s
Chrome Path:         %s`,
		testURLDisplay,
		c.ReportDir,
		c.HistoryFile,
		historyDSNDisplay,
		c.Concurrency,
		c.StepTimeout,
		strings.Join(c.Engines, ", "),
		c.LighthouseBin,
		c.Pa11yBin,
		chromeDisplay,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ParseList parses a comma-separated list, trimming entries and dropping empty ones.
func ParseList(s string) []string {
	if s == "" {
		return []string{}
	}

	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}

	return items
}

// redactDSN hides the password portion of a clickhouse:// DSN.
func redactDSN(dsn string) string {
	schemeEnd := strings.Index(dsn, "://")
	at := strings.LastIndex(dsn, "@")
	if schemeEnd < 0 || at < schemeEnd {
		return dsn
	}

	userinfo := dsn[schemeEnd+3 : at]
	if colon := strings.Index(userinfo, ":"); colon >= 0 {
		userinfo = userinfo[:colon] + ":********"
	}

	return dsn[:schemeEnd+3] + userinfo + dsn[at:]
}
