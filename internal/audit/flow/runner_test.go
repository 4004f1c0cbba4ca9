package flow_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ethpandaops/pageaudit/internal/audit/flow"
	"github.com/ethpandaops/pageaudit/internal/audit/flow/flowtest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func fullPage() flowtest.Page {
	return flowtest.Page{
		Title: "Example Domain",
		Texts: map[string]string{
			"body":     "Example Domain body",
			"h1":       "Example Domain",
			"#login":   "",
			"#user":    "",
			"#welcome": "Welcome back, ada",
		},
	}
}

func TestRunner_RunAll_Builtins(t *testing.T) {
	sessions := &flowtest.Factory{Page: fullPage()}
	runner := flow.NewRunner(newTestLogger(), sessions, flow.DefaultRegistry())

	results, err := runner.RunAll(context.Background(), "https://a.test")
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, name := range []string{"homepage-loads", "has-title", "has-main-heading"} {
		assert.Equal(t, name, results[i].Name)
		assert.True(t, results[i].Passed, "flow %s should pass", name)
		assert.Len(t, results[i].Steps, 2)
	}

	// One session per flow, all released.
	assert.Len(t, sessions.Sessions(), 3)
	assert.True(t, sessions.AllClosed())
}

func TestRunner_FailFastWithinFlow(t *testing.T) {
	tests := []struct {
		name       string
		failAt     int // 1-based position of the failing step
		steps      []flow.Step
		wantErrSub string
	}{
		{
			name:   "first step fails",
			failAt: 1,
			steps: []flow.Step{
				{Action: flow.ActionClick, Selector: "#missing"},
				{Action: flow.ActionWaitVisible, Selector: "body"},
				{Action: flow.ActionWaitVisible, Selector: "h1"},
			},
			wantErrSub: "element not found",
		},
		{
			name:   "assertion in the middle fails",
			failAt: 3,
			steps: []flow.Step{
				{Action: flow.ActionNavigate, Value: "/login"},
				{Action: flow.ActionType, Selector: "#user", Value: "ada"},
				{Action: flow.ActionAssertText, Selector: "#welcome", Value: "Goodbye"},
				{Action: flow.ActionClick, Selector: "#login"},
			},
			wantErrSub: "assertion failed",
		},
		{
			name:   "last step fails",
			failAt: 2,
			steps: []flow.Step{
				{Action: flow.ActionNavigate},
				{Action: flow.ActionAssertURL, Value: "/dashboard"},
			},
			wantErrSub: "location is",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry, err := flow.NewRegistry(flow.Flow{Name: "journey", Steps: tt.steps})
			require.NoError(t, err)

			sessions := &flowtest.Factory{Page: fullPage()}
			runner := flow.NewRunner(newTestLogger(), sessions, registry)

			result, err := runner.Run(context.Background(), "https://a.test", "journey")
			require.NoError(t, err)

			assert.False(t, result.Passed)
			require.Len(t, result.Steps, tt.failAt)
			for i := 0; i < tt.failAt-1; i++ {
				assert.True(t, result.Steps[i].Passed)
			}

			last := result.Steps[tt.failAt-1]
			assert.False(t, last.Passed)
			assert.Contains(t, last.Error, tt.wantErrSub)
			assert.Contains(t, result.Error, "step")

			// Steps after the failure never reached the browser.
			require.Len(t, sessions.Sessions(), 1)
			assert.Len(t, sessions.Sessions()[0].Calls(), tt.failAt)
			assert.True(t, sessions.AllClosed())
		})
	}
}

func TestRunner_IndependentFlowsAllRun(t *testing.T) {
	registry, err := flow.NewRegistry(
		flow.Flow{Name: "broken", Steps: []flow.Step{{Action: flow.ActionWaitVisible, Selector: "#nope"}}},
		flow.Flow{Name: "fine", Steps: []flow.Step{{Action: flow.ActionAssertTitle, Value: "Example"}}},
	)
	require.NoError(t, err)

	runner := flow.NewRunner(newTestLogger(), &flowtest.Factory{Page: fullPage()}, registry)

	results, err := runner.RunAll(context.Background(), "https://a.test")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].Passed)
	assert.True(t, results[1].Passed)
}

func TestRunner_SessionFailureIsHardError(t *testing.T) {
	sessions := &flowtest.Factory{Err: errors.New("chrome not installed")}
	runner := flow.NewRunner(newTestLogger(), sessions, flow.DefaultRegistry())

	results, err := runner.RunAll(context.Background(), "https://a.test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chrome not installed")
	assert.Empty(t, results)
}

func TestRunner_NavigateResolvesRelativeURLs(t *testing.T) {
	registry, err := flow.NewRegistry(flow.Flow{Name: "nav", Steps: []flow.Step{
		{Action: flow.ActionNavigate, Value: "/pricing?plan=pro"},
		{Action: flow.ActionAssertURL, Value: "https://a.test/pricing"},
		{Action: flow.ActionNavigate, Value: "https://other.test/"},
	}})
	require.NoError(t, err)

	sessions := &flowtest.Factory{Page: fullPage()}
	runner := flow.NewRunner(newTestLogger(), sessions, registry)

	result, err := runner.Run(context.Background(), "https://a.test/home", "nav")
	require.NoError(t, err)
	assert.True(t, result.Passed, result.Error)

	calls := sessions.Sessions()[0].Calls()
	assert.Equal(t, []string{
		"navigate https://a.test/pricing?plan=pro",
		"location",
		"navigate https://other.test/",
	}, calls)
}

func TestRunner_UnreachablePageFailsFlow(t *testing.T) {
	page := fullPage()
	page.Unreachable = map[string]bool{"https://down.test": true}

	runner := flow.NewRunner(newTestLogger(), &flowtest.Factory{Page: page}, flow.DefaultRegistry())

	results, err := runner.RunAll(context.Background(), "https://down.test")
	require.NoError(t, err)
	require.Len(t, results, 3)

	for _, res := range results {
		assert.False(t, res.Passed)
		assert.Len(t, res.Steps, 1)
	}
}

func TestRunner_EmptyTitleFails(t *testing.T) {
	page := fullPage()
	page.Title = "   "

	runner := flow.NewRunner(newTestLogger(), &flowtest.Factory{Page: page}, flow.DefaultRegistry())

	result, err := runner.Run(context.Background(), "https://a.test", "has-title")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Error, "title is empty")
}

func TestRunner_RunUnknownFlow(t *testing.T) {
	runner := flow.NewRunner(newTestLogger(), &flowtest.Factory{}, flow.DefaultRegistry())

	_, err := runner.Run(context.Background(), "https://a.test", "checkout")
	require.Error(t, err)
	assert.True(t, flow.IsUnknownFlow(err))
}
