// Package threshold loads pass/fail bounds for audit metrics and evaluates
// measured values against them.
package threshold

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	errNotMapping     = errors.New("thresholds must be a mapping of metric name to bound")
	errEmptyName      = errors.New("threshold has an empty metric name")
	errNoDirection    = errors.New("bound must set min, max or both")
	errNotNumeric     = errors.New("bound value is not numeric")
	errUnknownField   = errors.New("unknown bound field")
	errInvertedBounds = errors.New("min is greater than max")
)

// ConfigError reports a thresholds file that could not be read or parsed.
// It is fatal for the whole invocation.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid thresholds: %v", e.Err)
	}

	return fmt.Sprintf("invalid thresholds file %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Bound is the pass condition for one metric. Min is a "minimum score" bound
// (value >= Min), Max a "maximum count" bound (value <= Max). Both may be set.
type Bound struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Passes reports whether value satisfies every direction set on the bound.
func (b Bound) Passes(value float64) bool {
	if b.Min != nil && value < *b.Min {
		return false
	}

	if b.Max != nil && value > *b.Max {
		return false
	}

	return true
}

func (b Bound) String() string {
	switch {
	case b.Min != nil && b.Max != nil:
		return fmt.Sprintf("%g..%g", *b.Min, *b.Max)
	case b.Min != nil:
		return fmt.Sprintf(">= %g", *b.Min)
	case b.Max != nil:
		return fmt.Sprintf("<= %g", *b.Max)
	default:
		return "-"
	}
}

// Set maps metric names to bounds. The zero value and a nil *Set gate nothing.
// A Set is never modified after it is built.
type Set struct {
	bounds map[string]Bound
}

// NewSet builds a Set from a copy of bounds.
func NewSet(bounds map[string]Bound) *Set {
	copied := make(map[string]Bound, len(bounds))
	for name, b := range bounds {
		copied[name] = b
	}

	return &Set{bounds: copied}
}

// Lookup returns the bound for a metric, if any.
func (s *Set) Lookup(name string) (Bound, bool) {
	if s == nil {
		return Bound{}, false
	}

	b, ok := s.bounds[name]

	return b, ok
}

// Evaluate returns the bound applied to a metric and whether value passed it.
// Both are nil when no bound exists for name.
func (s *Set) Evaluate(name string, value float64) (*Bound, *bool) {
	b, ok := s.Lookup(name)
	if !ok {
		return nil, nil
	}

	passed := b.Passes(value)

	return &b, &passed
}

// Len returns the number of gated metrics.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}

	return len(s.bounds)
}

// Names returns the gated metric names in sorted order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}

	names := make([]string, 0, len(s.bounds))
	for name := range s.bounds {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Load reads a thresholds file. An empty path yields an empty Set.
// Metric names are not validated against any known list.
func Load(path string) (*Set, error) {
	if path == "" {
		return NewSet(nil), nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator's --thresholds flag
	if err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("reading file: %w", err)}
	}

	set, err := Parse(data)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Path = path
		}

		return nil, err
	}

	return set, nil
}

// Parse decodes JSON or YAML threshold content. Each entry is either a bare
// number (a minimum) or a mapping with "min" and/or "max".
func Parse(data []byte) (*Set, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("parsing: %w", err)}
	}

	// Empty document.
	if len(root.Content) == 0 {
		return NewSet(nil), nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, &ConfigError{Err: errNotMapping}
	}

	bounds := make(map[string]Bound, len(doc.Content)/2)

	for i := 0; i+1 < len(doc.Content); i += 2 {
		name := doc.Content[i].Value
		if name == "" {
			return nil, &ConfigError{Err: errEmptyName}
		}

		b, err := parseBound(doc.Content[i+1])
		if err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("metric %q: %w", name, err)}
		}

		bounds[name] = b
	}

	return &Set{bounds: bounds}, nil
}

func parseBound(node *yaml.Node) (Bound, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		v, err := parseNumber(node)
		if err != nil {
			return Bound{}, err
		}

		return Bound{Min: &v}, nil

	case yaml.MappingNode:
		var b Bound

		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value

			v, err := parseNumber(node.Content[i+1])
			if err != nil {
				return Bound{}, fmt.Errorf("%s: %w", key, err)
			}

			switch key {
			case "min", "minimum":
				b.Min = &v
			case "max", "maximum":
				b.Max = &v
			default:
				return Bound{}, fmt.Errorf("%w: %s", errUnknownField, key)
			}
		}

		if b.Min == nil && b.Max == nil {
			return Bound{}, errNoDirection
		}

		if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
			return Bound{}, errInvertedBounds
		}

		return b, nil

	default:
		return Bound{}, errNoDirection
	}
}

func parseNumber(node *yaml.Node) (float64, error) {
	if node.Kind != yaml.ScalarNode {
		return 0, errNotNumeric
	}

	if node.Tag == "!!null" {
		return 0, fmt.Errorf("%w: null", errNotNumeric)
	}

	var v float64
	if err := node.Decode(&v); err != nil {
		return 0, fmt.Errorf("%w: %q", errNotNumeric, node.Value)
	}

	if math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %q", errNotNumeric, node.Value)
	}

	return v, nil
}
