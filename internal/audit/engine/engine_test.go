package engine

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lighthouseJSON = `{
  "categories": {
    "performance": {"score": 0.93},
    "accessibility": {"score": 1},
    "best-practices": {"score": null},
    "seo": {"score": 0.82}
  },
  "audits": {
    "first-contentful-paint": {"numericValue": 812.4},
    "total-blocking-time": {"numericValue": 120},
    "speed-index": {"numericValue": 1500.5},
    "unrelated-audit": {"numericValue": 1}
  }
}`

const pa11yJSON = `[
  {"code": "WCAG2AA.Principle1.Guideline1_1.1_1_1.H37", "type": "error", "message": "Img element missing an alt attribute."},
  {"code": "WCAG2AA.Principle1.Guideline1_3.1_3_1.H49.B", "type": "warning", "message": "Semantic markup should be used."},
  {"code": "WCAG2AA.Principle1.Guideline1_3.1_3_1.H42", "type": "error", "message": "Heading markup should be used."},
  {"code": "WCAG2AA.Principle2.Guideline2_4.2_4_2.H25.2", "type": "notice", "message": "Check that the title element describes the document."}
]`

func newTestLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func fixedRunner(out string, err error) CommandRunner {
	return func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return []byte(out), err
	}
}

func TestParseLighthouse(t *testing.T) {
	got, err := parseLighthouse([]byte(lighthouseJSON))
	require.NoError(t, err)

	assert.Equal(t, []Measurement{
		{Name: "performance", Value: 0.93},
		{Name: "accessibility", Value: 1},
		{Name: "seo", Value: 0.82},
		{Name: "first-contentful-paint", Value: 812.4},
		{Name: "total-blocking-time", Value: 120},
		{Name: "speed-index", Value: 1500.5},
	}, got)
}

func TestParseLighthouse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "invalid json", input: `{"categories":`},
		{name: "no categories", input: `{"audits": {}}`},
		{name: "runtime error", input: `{"runtimeError": {"code": "FAILED_DOCUMENT_REQUEST", "message": "unreachable"}, "categories": {"performance": {"score": 0}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseLighthouse([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLighthouse_Audit(t *testing.T) {
	var gotName string
	var gotArgs []string

	runner := func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args

		return []byte(lighthouseJSON), nil
	}

	e := NewLighthouse(newTestLogger(), "/opt/lighthouse", "/usr/bin/chromium", runner)
	got, err := e.Audit(context.Background(), "https://a.test")
	require.NoError(t, err)

	assert.Equal(t, "lighthouse", e.Name())
	assert.Equal(t, "/opt/lighthouse", gotName)
	assert.Equal(t, "https://a.test", gotArgs[0])
	assert.Contains(t, gotArgs, "--output=json")
	assert.Contains(t, gotArgs, "--chrome-path=/usr/bin/chromium")
	assert.Len(t, got, 6)
}

func TestLighthouse_AuditCommandFailure(t *testing.T) {
	e := NewLighthouse(newTestLogger(), "", "", fixedRunner("", &ExitError{Command: "lighthouse", Code: 1, Stderr: "Chrome not found"}))

	_, err := e.Audit(context.Background(), "https://a.test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Chrome not found")
}

func TestPa11y_Audit(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		err     error
		want    []Measurement
		wantErr bool
	}{
		{
			name: "issues found exits 2",
			out:  pa11yJSON,
			err:  &ExitError{Command: "pa11y", Code: 2},
			want: []Measurement{
				{Name: "a11y-errors", Value: 2},
				{Name: "a11y-warnings", Value: 1},
				{Name: "a11y-notices", Value: 1},
			},
		},
		{
			name: "clean page",
			out:  `[]`,
			want: []Measurement{
				{Name: "a11y-errors", Value: 0},
				{Name: "a11y-warnings", Value: 0},
				{Name: "a11y-notices", Value: 0},
			},
		},
		{
			name:    "runtime failure exits 1",
			out:     "",
			err:     &ExitError{Command: "pa11y", Code: 1, Stderr: "net::ERR_NAME_NOT_RESOLVED"},
			wantErr: true,
		},
		{
			name:    "exit 2 without output",
			out:     "",
			err:     &ExitError{Command: "pa11y", Code: 2},
			wantErr: true,
		},
		{
			name:    "garbage output",
			out:     "not json",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewPa11y(newTestLogger(), "", fixedRunner(tt.out, tt.err))

			got, err := e.Audit(context.Background(), "https://a.test")
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type stubEngine struct {
	name string
	out  []Measurement
	err  error
}

func (s *stubEngine) Name() string { return s.name }

func (s *stubEngine) Audit(_ context.Context, _ string) ([]Measurement, error) {
	return s.out, s.err
}

func TestMulti_Audit(t *testing.T) {
	m := NewMulti(newTestLogger(),
		&stubEngine{name: "one", out: []Measurement{{Name: "a", Value: 1}}},
		&stubEngine{name: "two", err: errors.New("boom")},
		&stubEngine{name: "three", out: []Measurement{{Name: "b", Value: 2}}},
	)

	got, err := m.Audit(context.Background(), "https://a.test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "two: boom")
	assert.Equal(t, []Measurement{{Name: "a", Value: 1}, {Name: "b", Value: 2}}, got)
	assert.Equal(t, "one+two+three", m.Name())
}

func TestNew(t *testing.T) {
	m, err := New(newTestLogger(), []string{"lighthouse", "pa11y"}, Config{})
	require.NoError(t, err)
	assert.Equal(t, "lighthouse+pa11y", m.Name())

	_, err = New(newTestLogger(), []string{"webpagetest"}, Config{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errUnknownEngine))
}

func TestExitError(t *testing.T) {
	assert.Equal(t, "pa11y exited with status 2", (&ExitError{Command: "pa11y", Code: 2}).Error())
	assert.Equal(t, "pa11y exited with status 1: boom", (&ExitError{Command: "pa11y", Code: 1, Stderr: "boom\n"}).Error())
}
