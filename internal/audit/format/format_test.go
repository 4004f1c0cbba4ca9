package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 500 * time.Microsecond, want: "500µs"},
		{in: 250 * time.Millisecond, want: "250ms"},
		{in: 1500 * time.Millisecond, want: "1.5s"},
		{in: 90 * time.Second, want: "1.5m"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Duration(tt.in))
		})
	}
}

func TestMetricValue(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{name: "speed-index", value: 1234.5, want: "1.2s"},
		{name: "total-blocking-time", value: 80, want: "80ms"},
		{name: "a11y-errors", value: 3, want: "3"},
		{name: "performance", value: 0.95, want: "0.95"},
		{name: "cumulative-layout-shift", value: 0.1234, want: "0.123"},
		{name: "score", value: 1, want: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MetricValue(tt.name, tt.value))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "a long ...", Truncate("a long message here", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}
