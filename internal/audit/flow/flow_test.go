package flow

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowValidate(t *testing.T) {
	tests := []struct {
		name    string
		flow    Flow
		wantErr error
	}{
		{
			name: "valid",
			flow: Flow{Name: "ok", Steps: []Step{{Action: ActionNavigate}, {Action: ActionClick, Selector: "a"}}},
		},
		{name: "missing name", flow: Flow{Steps: []Step{{Action: ActionNavigate}}}, wantErr: errFlowMissingName},
		{name: "no steps", flow: Flow{Name: "empty"}, wantErr: errFlowMissingSteps},
		{name: "missing action", flow: Flow{Name: "f", Steps: []Step{{Name: "x"}}}, wantErr: errStepMissingAction},
		{name: "invalid action", flow: Flow{Name: "f", Steps: []Step{{Action: "hover"}}}, wantErr: errStepInvalidAction},
		{name: "click without selector", flow: Flow{Name: "f", Steps: []Step{{Action: ActionClick}}}, wantErr: errStepMissingSelector},
		{name: "type without value", flow: Flow{Name: "f", Steps: []Step{{Action: ActionType, Selector: "#q"}}}, wantErr: errStepMissingValue},
		{name: "assert_url without value", flow: Flow{Name: "f", Steps: []Step{{Action: ActionAssertURL}}}, wantErr: errStepMissingValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.flow.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"homepage-loads", "has-title", "has-main-heading"}, r.Names())

	err := r.Add(Flow{Name: "has-title", Steps: []Step{{Action: ActionNavigate}}})
	assert.True(t, errors.Is(err, errDuplicateFlow))

	selected, err := r.Select([]string{"has-main-heading", "homepage-loads"})
	require.NoError(t, err)
	assert.Equal(t, []string{"homepage-loads", "has-main-heading"}, selected.Names())

	all, err := r.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all.All(), 3)

	_, err = r.Select([]string{"checkout"})
	assert.True(t, IsUnknownFlow(err))
}

func TestParse(t *testing.T) {
	data := []byte(`
flows:
  - name: search
    steps:
      - name: open
        action: navigate
      - action: type
        selector: "input[name=q]"
        value: "go"
      - action: assert_text
        selector: "#results"
        value: "go"
`)

	flows, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.Equal(t, "search", flows[0].Name)
	require.Len(t, flows[0].Steps, 3)
	assert.Equal(t, "open", flows[0].Steps[0].DisplayName())
	assert.Equal(t, "type", flows[0].Steps[1].DisplayName())
	assert.Equal(t, ActionAssertText, flows[0].Steps[2].Action)

	_, err = Parse([]byte("flows:\n  - name: bad\n    steps:\n      - action: teleport\n"))
	assert.True(t, errors.Is(err, errStepInvalidAction))

	_, err = Parse([]byte("flows: [unterminated"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.yaml")
	require.NoError(t, os.WriteFile(path, []byte("flows:\n  - name: home\n    steps:\n      - action: navigate\n"), 0o600))

	flows, err := LoadFile(logrus.New(), path)
	require.NoError(t, err)
	require.Len(t, flows, 1)

	_, err = LoadFile(logrus.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolveURL(t *testing.T) {
	got, err := resolveURL("https://a.test/x/y", "")
	require.NoError(t, err)
	assert.Equal(t, "https://a.test/x/y", got)

	got, err = resolveURL("https://a.test/x/y", "z")
	require.NoError(t, err)
	assert.Equal(t, "https://a.test/x/z", got)

	got, err = resolveURL("https://a.test/x/y", "/root")
	require.NoError(t, err)
	assert.Equal(t, "https://a.test/root", got)
}
