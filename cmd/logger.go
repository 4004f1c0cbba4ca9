package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// InitLogger initializes the shared logger from LOG_LEVEL.
func InitLogger() {
	Logger = logrus.New()
	Logger.SetOutput(os.Stderr)

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // Default to info
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid LOG_LEVEL '%s', defaulting to 'info'\n", logLevel)
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)
}

// newLogger creates a logger writing to w. verbose raises the level to debug;
// quiet lowers it to warnings.
func newLogger(w io.Writer, verbose, quiet bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)

	level := logrus.InfoLevel
	if Logger != nil {
		level = Logger.GetLevel()
	}

	switch {
	case verbose:
		level = logrus.DebugLevel
	case quiet && level > logrus.WarnLevel:
		level = logrus.WarnLevel
	}

	log.SetLevel(level)

	return log
}
