// Package flow runs scripted end-to-end browser flows against a target URL.
package flow

import (
	"errors"
	"fmt"
)

// Action is a browser interaction a step performs.
type Action string

const (
	// ActionNavigate loads Value, resolved against the target URL. Empty Value loads the target.
	ActionNavigate Action = "navigate"
	// ActionClick clicks the first element matching Selector.
	ActionClick Action = "click"
	// ActionType sends Value as keystrokes to Selector.
	ActionType Action = "type"
	// ActionWaitVisible waits until Selector is visible.
	ActionWaitVisible Action = "wait_visible"
	// ActionAssertText checks that the text of Selector contains Value.
	ActionAssertText Action = "assert_text"
	// ActionAssertTitle checks the page title contains Value, or is non-empty when Value is empty.
	ActionAssertTitle Action = "assert_title"
	// ActionAssertURL checks the current location contains Value.
	ActionAssertURL Action = "assert_url"
)

var (
	errFlowMissingName     = errors.New("flow missing name")
	errFlowMissingSteps    = errors.New("flow has no steps")
	errDuplicateFlow       = errors.New("duplicate flow name")
	errStepMissingAction   = errors.New("step missing action")
	errStepInvalidAction   = errors.New("step has invalid action")
	errStepMissingSelector = errors.New("step missing selector")
	errStepMissingValue    = errors.New("step missing value")
	errUnknownFlow         = errors.New("unknown flow")
)

// Step is a single named browser action.
type Step struct {
	Name     string `yaml:"name"`
	Action   Action `yaml:"action"`
	Selector string `yaml:"selector,omitempty"`
	Value    string `yaml:"value,omitempty"`
}

// Flow is a named, ordered sequence of steps representing a user journey.
type Flow struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// DisplayName returns the step name, falling back to its action.
func (s Step) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}

	return string(s.Action)
}

// Validate checks the flow and each of its steps.
func (f *Flow) Validate() error {
	if f.Name == "" {
		return errFlowMissingName
	}

	if len(f.Steps) == 0 {
		return fmt.Errorf("%w: %s", errFlowMissingSteps, f.Name)
	}

	for i, step := range f.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("flow %s, step %d: %w", f.Name, i, err)
		}
	}

	return nil
}

func (s Step) validate() error {
	needsSelector := false
	needsValue := false

	switch s.Action {
	case "":
		return errStepMissingAction
	case ActionNavigate, ActionAssertTitle:
	case ActionClick, ActionWaitVisible:
		needsSelector = true
	case ActionType, ActionAssertText:
		needsSelector = true
		needsValue = true
	case ActionAssertURL:
		needsValue = true
	default:
		return fmt.Errorf("%w: '%s' (must be one of: navigate, click, type, wait_visible, assert_text, assert_title, assert_url)",
			errStepInvalidAction, s.Action)
	}

	if needsSelector && s.Selector == "" {
		return fmt.Errorf("%w for %s", errStepMissingSelector, s.Action)
	}

	if needsValue && s.Value == "" {
		return fmt.Errorf("%w for %s", errStepMissingValue, s.Action)
	}

	return nil
}

// Registry is an ordered set of flows, unique by name.
type Registry struct {
	flows []Flow
	index map[string]int
}

// NewRegistry validates flows and returns them as a registry in the given order.
func NewRegistry(flows ...Flow) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(flows))}

	if err := r.Add(flows...); err != nil {
		return nil, err
	}

	return r, nil
}

// Add appends flows, rejecting invalid definitions and duplicate names.
func (r *Registry) Add(flows ...Flow) error {
	for _, f := range flows {
		if err := f.Validate(); err != nil {
			return err
		}

		if _, exists := r.index[f.Name]; exists {
			return fmt.Errorf("%w: %s", errDuplicateFlow, f.Name)
		}

		r.index[f.Name] = len(r.flows)
		r.flows = append(r.flows, f)
	}

	return nil
}

// All returns every flow in declaration order.
func (r *Registry) All() []Flow {
	out := make([]Flow, len(r.flows))
	copy(out, r.flows)

	return out
}

// Get returns the named flow.
func (r *Registry) Get(name string) (Flow, error) {
	i, ok := r.index[name]
	if !ok {
		return Flow{}, fmt.Errorf("%w: %s", errUnknownFlow, name)
	}

	return r.flows[i], nil
}

// Select returns a registry restricted to names, keeping declaration order.
// An empty names list selects everything.
func (r *Registry) Select(names []string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := r.index[name]; !ok {
			return nil, fmt.Errorf("%w: %s", errUnknownFlow, name)
		}

		wanted[name] = true
	}

	selected := make([]Flow, 0, len(wanted))
	for _, f := range r.flows {
		if wanted[f.Name] {
			selected = append(selected, f)
		}
	}

	return NewRegistry(selected...)
}

// Names returns flow names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.flows))
	for _, f := range r.flows {
		names = append(names, f.Name)
	}

	return names
}

// IsUnknownFlow reports whether err came from selecting a flow that is not registered.
func IsUnknownFlow(err error) bool {
	return errors.Is(err, errUnknownFlow)
}
