// Package format provides shared formatting utilities for human-readable output.
package format

import (
	"fmt"
	"strings"
	"time"
)

// Duration formats a duration for human-readable output.
// Handles microseconds, milliseconds, seconds, and minutes.
func Duration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.0fµs", float64(d.Microseconds()))
	}
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d.Milliseconds()))
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	return fmt.Sprintf("%.1fm", d.Minutes())
}

// timingMetrics are reported by the engines in milliseconds.
var timingMetrics = map[string]struct{}{
	"first-contentful-paint":   {},
	"largest-contentful-paint": {},
	"total-blocking-time":      {},
	"speed-index":              {},
}

// MetricValue formats a measured value according to what the metric is.
// Timings render as durations, counts as integers, everything else with
// up to three decimals.
func MetricValue(name string, value float64) string {
	if _, ok := timingMetrics[name]; ok {
		return Duration(time.Duration(value * float64(time.Millisecond)))
	}

	if strings.HasPrefix(name, "a11y-") {
		return fmt.Sprintf("%.0f", value)
	}

	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", value), "0"), ".")
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	if n <= 3 {
		return string(r[:n])
	}

	return string(r[:n-3]) + "..."
}
