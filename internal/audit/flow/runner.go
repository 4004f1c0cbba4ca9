package flow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ethpandaops/pageaudit/internal/audit/record"
	"github.com/sirupsen/logrus"
)

var errAssertionFailed = errors.New("assertion failed")

// Runner executes registered flows against a target URL.
type Runner struct {
	sessions SessionFactory
	registry *Registry
	log      logrus.FieldLogger
}

// NewRunner creates a flow runner over registry, acquiring browser sessions from sessions.
func NewRunner(log logrus.FieldLogger, sessions SessionFactory, registry *Registry) *Runner {
	return &Runner{
		sessions: sessions,
		registry: registry,
		log:      log.WithField("component", "flow_runner"),
	}
}

// Flows returns the names of the flows RunAll executes, in order.
func (r *Runner) Flows() []string {
	return r.registry.Names()
}

// RunAll executes every registered flow sequentially, each in its own session.
// Step failures are recorded in the results. An error is returned only when a
// session cannot be acquired; results gathered before that point are returned with it.
func (r *Runner) RunAll(ctx context.Context, target string) ([]record.FlowResult, error) {
	flows := r.registry.All()
	results := make([]record.FlowResult, 0, len(flows))

	for _, f := range flows {
		result, err := r.runFlow(ctx, target, f)
		if err != nil {
			return results, err
		}

		results = append(results, result)
	}

	passed := 0
	for _, res := range results {
		if res.Passed {
			passed++
		}
	}

	r.log.WithFields(logrus.Fields{
		"url":    target,
		"flows":  len(results),
		"passed": passed,
		"failed": len(results) - passed,
	}).Info("flows complete")

	return results, nil
}

// Run executes a single named flow.
func (r *Runner) Run(ctx context.Context, target, name string) (record.FlowResult, error) {
	f, err := r.registry.Get(name)
	if err != nil {
		return record.FlowResult{}, err
	}

	return r.runFlow(ctx, target, f)
}

// runFlow executes one flow in a fresh session, stopping at the first failing step.
func (r *Runner) runFlow(ctx context.Context, target string, f Flow) (record.FlowResult, error) {
	var (
		start  = time.Now()
		log    = r.log.WithFields(logrus.Fields{"url": target, "flow": f.Name})
		result = record.FlowResult{
			Name:   f.Name,
			Passed: true,
			Steps:  make([]record.StepResult, 0, len(f.Steps)),
		}
	)

	session, err := r.sessions.NewSession(ctx)
	if err != nil {
		return record.FlowResult{}, fmt.Errorf("acquiring browser session for flow %s: %w", f.Name, err)
	}

	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("failed to close browser session")
		}
	}()

	for i, step := range f.Steps {
		stepStart := time.Now()
		stepErr := r.execute(ctx, session, target, step)

		stepResult := record.StepResult{
			Name:     step.DisplayName(),
			Action:   string(step.Action),
			Passed:   stepErr == nil,
			Duration: time.Since(stepStart),
		}

		if stepErr != nil {
			stepResult.Error = stepErr.Error()
			result.Steps = append(result.Steps, stepResult)
			result.Passed = false
			result.Error = fmt.Sprintf("step %d (%s): %v", i+1, step.DisplayName(), stepErr)

			log.WithError(stepErr).WithField("step", step.DisplayName()).Debug("flow step failed, aborting flow")

			break
		}

		result.Steps = append(result.Steps, stepResult)
	}

	result.Duration = time.Since(start)

	log.WithFields(logrus.Fields{
		"passed":   result.Passed,
		"steps":    len(result.Steps),
		"duration": result.Duration,
	}).Debug("flow executed")

	return result, nil
}

// execute performs one step against the session.
//
//nolint:gocyclo // one case per action.
func (r *Runner) execute(ctx context.Context, session Session, target string, step Step) error {
	switch step.Action {
	case ActionNavigate:
		dest, err := resolveURL(target, step.Value)
		if err != nil {
			return err
		}

		return session.Navigate(ctx, dest)

	case ActionClick:
		return session.Click(ctx, step.Selector)

	case ActionType:
		return session.Type(ctx, step.Selector, step.Value)

	case ActionWaitVisible:
		return session.WaitVisible(ctx, step.Selector)

	case ActionAssertText:
		text, err := session.Text(ctx, step.Selector)
		if err != nil {
			return fmt.Errorf("reading text of %s: %w", step.Selector, err)
		}

		if !strings.Contains(text, step.Value) {
			return fmt.Errorf("%w: text of %s is %q, want it to contain %q", errAssertionFailed, step.Selector, text, step.Value)
		}

		return nil

	case ActionAssertTitle:
		title, err := session.Title(ctx)
		if err != nil {
			return fmt.Errorf("reading title: %w", err)
		}

		if step.Value == "" {
			if strings.TrimSpace(title) == "" {
				return fmt.Errorf("%w: page title is empty", errAssertionFailed)
			}

			return nil
		}

		if !strings.Contains(title, step.Value) {
			return fmt.Errorf("%w: title is %q, want it to contain %q", errAssertionFailed, title, step.Value)
		}

		return nil

	case ActionAssertURL:
		location, err := session.Location(ctx)
		if err != nil {
			return fmt.Errorf("reading location: %w", err)
		}

		if !strings.Contains(location, step.Value) {
			return fmt.Errorf("%w: location is %q, want it to contain %q", errAssertionFailed, location, step.Value)
		}

		return nil

	default:
		return fmt.Errorf("%w: '%s'", errStepInvalidAction, step.Action)
	}
}

// resolveURL resolves ref against target; an empty ref is the target itself.
func resolveURL(target, ref string) (string, error) {
	if ref == "" {
		return target, nil
	}

	base, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parsing target url: %w", err)
	}

	rel, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing navigate value: %w", err)
	}

	return base.ResolveReference(rel).String(), nil
}

// IsAssertionFailure reports whether err is a failed check rather than an action error.
func IsAssertionFailure(err error) bool {
	return errors.Is(err, errAssertionFailed)
}
