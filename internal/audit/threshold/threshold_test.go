package threshold

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 {
	return &v
}

func TestBound_Passes(t *testing.T) {
	tests := []struct {
		name     string
		bound    Bound
		value    float64
		expected bool
	}{
		{name: "min met", bound: Bound{Min: ptr(0.9)}, value: 0.95, expected: true},
		{name: "min equal", bound: Bound{Min: ptr(0.9)}, value: 0.9, expected: true},
		{name: "min missed", bound: Bound{Min: ptr(0.9)}, value: 0.8, expected: false},
		{name: "max met", bound: Bound{Max: ptr(300)}, value: 120, expected: true},
		{name: "max equal", bound: Bound{Max: ptr(0)}, value: 0, expected: true},
		{name: "max exceeded", bound: Bound{Max: ptr(0)}, value: 1, expected: false},
		{name: "range inside", bound: Bound{Min: ptr(1), Max: ptr(5)}, value: 3, expected: true},
		{name: "range below", bound: Bound{Min: ptr(1), Max: ptr(5)}, value: 0.5, expected: false},
		{name: "range above", bound: Bound{Min: ptr(1), Max: ptr(5)}, value: 6, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.bound.Passes(tt.value))
		})
	}
}

func TestBound_PassesMatchesDirection(t *testing.T) {
	values := []float64{-10, 0, 0.1, 0.5, 0.89, 0.9, 0.91, 1, 250, 300, 301}
	bounds := []float64{0, 0.5, 0.9, 300}

	for _, b := range bounds {
		for _, v := range values {
			assert.Equal(t, v >= b, Bound{Min: ptr(b)}.Passes(v), "min %g value %g", b, v)
			assert.Equal(t, v <= b, Bound{Max: ptr(b)}.Passes(v), "max %g value %g", b, v)
		}
	}
}

func TestParse(t *testing.T) {
	t.Run("json object bounds", func(t *testing.T) {
		set, err := Parse([]byte(`{"score": {"min": 0.9}, "total-blocking-time": {"max": 300}}`))
		require.NoError(t, err)
		require.Equal(t, 2, set.Len())

		b, ok := set.Lookup("score")
		require.True(t, ok)
		require.NotNil(t, b.Min)
		assert.InDelta(t, 0.9, *b.Min, 1e-9)
		assert.Nil(t, b.Max)

		b, ok = set.Lookup("total-blocking-time")
		require.True(t, ok)
		require.NotNil(t, b.Max)
		assert.InDelta(t, 300, *b.Max, 1e-9)
	})

	t.Run("yaml with bare number and range", func(t *testing.T) {
		set, err := Parse([]byte("performance: 0.8\na11y-errors:\n  min: 0\n  max: 2\n"))
		require.NoError(t, err)

		b, ok := set.Lookup("performance")
		require.True(t, ok)
		require.NotNil(t, b.Min)
		assert.InDelta(t, 0.8, *b.Min, 1e-9)

		b, ok = set.Lookup("a11y-errors")
		require.True(t, ok)
		assert.Equal(t, ">= 0", Bound{Min: b.Min}.String())
		assert.Equal(t, "0..2", b.String())
	})

	t.Run("empty document", func(t *testing.T) {
		set, err := Parse([]byte(""))
		require.NoError(t, err)
		assert.Equal(t, 0, set.Len())
	})

	t.Run("unknown metric names accepted", func(t *testing.T) {
		set, err := Parse([]byte(`{"never-measured": {"min": 1}}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"never-measured"}, set.Names())
	})
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "malformed json", input: `{"score": {"min": 0.9}`},
		{name: "top-level list", input: `[1, 2, 3]`},
		{name: "top-level scalar", input: `not thresholds`},
		{name: "non-numeric bare value", input: `{"score": "high"}`},
		{name: "non-numeric min", input: `{"score": {"min": "high"}}`},
		{name: "empty bound", input: `{"score": {}}`},
		{name: "unknown field", input: `{"score": {"above": 1}}`},
		{name: "inverted range", input: `{"score": {"min": 5, "max": 1}}`},
		{name: "list bound", input: `{"score": [1]}`},
		{name: "null bare value", input: "score: null"},
		{name: "tilde bare value", input: "score: ~"},
		{name: "empty bare value", input: "score:"},
		{name: "null min", input: "score: {min: null}"},
		{name: "null max json", input: `{"score": {"max": null}}`},
		{name: "nan bare value", input: "score: .nan"},
		{name: "nan max", input: "score: {max: .NaN}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)

			var cfgErr *ConfigError
			assert.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %T", err)
		})
	}
}

func TestSet_Evaluate(t *testing.T) {
	set := NewSet(map[string]Bound{"score": {Min: ptr(0.9)}})

	applied, passed := set.Evaluate("score", 0.95)
	require.NotNil(t, applied)
	require.NotNil(t, passed)
	assert.True(t, *passed)

	_, passed = set.Evaluate("score", 0.8)
	require.NotNil(t, passed)
	assert.False(t, *passed)

	applied, passed = set.Evaluate("seo", 0.1)
	assert.Nil(t, applied)
	assert.Nil(t, passed)

	var nilSet *Set
	applied, passed = nilSet.Evaluate("score", 1)
	assert.Nil(t, applied)
	assert.Nil(t, passed)
}

func TestNewSet_CopiesInput(t *testing.T) {
	input := map[string]Bound{"score": {Min: ptr(0.5)}}
	set := NewSet(input)

	delete(input, "score")

	_, ok := set.Lookup("score")
	assert.True(t, ok)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty path", func(t *testing.T) {
		set, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 0, set.Len())
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "thresholds.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"score": {"min": 0.9}}`), 0o600))

		set, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 1, set.Len())
	})

	t.Run("malformed file carries path", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"score":`), 0o600))

		_, err := Load(path)
		require.Error(t, err)

		var cfgErr *ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, path, cfgErr.Path)
		assert.Contains(t, err.Error(), path)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "absent.json"))
		require.Error(t, err)

		var cfgErr *ConfigError
		assert.True(t, errors.As(err, &cfgErr))
	})
}
