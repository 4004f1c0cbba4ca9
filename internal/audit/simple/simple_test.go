package simple

import (
	"testing"

	"github.com/ethpandaops/pageaudit/internal/audit/record"
	"github.com/ethpandaops/pageaudit/internal/audit/threshold"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func scenarioRecord() *record.RunRecord {
	bound := &threshold.Bound{Min: ptr(0.9)}

	return &record.RunRecord{
		URLs: []string{"https://a.test", "https://b.test"},
		Results: []record.URLResult{
			{
				URL:     "https://a.test",
				Success: true,
				Metrics: []record.AuditMetric{
					{Name: "score", Value: 0.95, Threshold: bound, Passed: ptr(true)},
					{Name: "speed-index", Value: 1300},
				},
				Flows: []record.FlowResult{
					{Name: "homepage-loads", Passed: true},
					{Name: "has-title", Passed: false},
				},
			},
			{
				URL:     "https://b.test",
				Success: true,
				Metrics: []record.AuditMetric{
					{Name: "score", Value: 0.80, Threshold: bound, Passed: ptr(false)},
					{Name: "speed-index", Value: 2100},
				},
				Flows: []record.FlowResult{
					{Name: "homepage-loads", Passed: true},
					{Name: "has-title", Passed: true},
				},
			},
		},
	}
}

func TestProjectOrderAndCount(t *testing.T) {
	got := Project(scenarioRecord())

	// N metrics + M flows per URL.
	require.Len(t, got, 8)

	assert.Equal(t, []Result{
		{Name: "https://a.test::score", Status: StatusPass},
		{Name: "https://a.test::speed-index", Status: StatusNA},
		{Name: "https://a.test::flow:homepage-loads", Status: StatusPass},
		{Name: "https://a.test::flow:has-title", Status: StatusFail},
		{Name: "https://b.test::score", Status: StatusFail},
		{Name: "https://b.test::speed-index", Status: StatusNA},
		{Name: "https://b.test::flow:homepage-loads", Status: StatusPass},
		{Name: "https://b.test::flow:has-title", Status: StatusPass},
	}, got)
}

func TestProjectErroredURL(t *testing.T) {
	rec := &record.RunRecord{Results: []record.URLResult{
		{URL: "https://down.test", Success: false, Error: "audit: exit status 1"},
		{URL: "https://up.test", Success: true, Flows: []record.FlowResult{{Name: "has-title", Passed: true}}},
	}}

	assert.Equal(t, []Result{
		{Name: "https://down.test::audit", Status: StatusFail},
		{Name: "https://up.test::flow:has-title", Status: StatusPass},
	}, Project(rec))
}

func TestFormatStringScenario(t *testing.T) {
	out := FormatString(Project(scenarioRecord()))

	assert.Contains(t, out, "https://a.test::score: PASS\n")
	assert.Contains(t, out, "https://b.test::score: FAIL\n")
	assert.Contains(t, out, "https://a.test::speed-index: N/A\n")
	assert.Equal(t, "", FormatString(nil))
}

func TestJSONRoundTrip(t *testing.T) {
	want := Project(scenarioRecord())

	data, err := FormatJSON(want)
	require.NoError(t, err)

	got, err := ParseJSON(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFormatJSONEmpty(t *testing.T) {
	data, err := FormatJSON(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestParseJSONErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: "https://a.test::score: PASS"},
		{name: "wrong shape", input: `{"name": "x"}`},
		{name: "unknown status", input: `[{"name": "x", "status": "MAYBE"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.input))
			require.Error(t, err)
		})
	}
}
