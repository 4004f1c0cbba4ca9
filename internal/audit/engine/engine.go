// Package engine produces performance and accessibility measurements for a URL
// by driving external auditing tools.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

var errUnknownEngine = errors.New("unknown audit engine")

// Measurement is a raw metric value reported by an engine.
type Measurement struct {
	Name  string
	Value float64
}

// Engine audits a single URL.
type Engine interface {
	Name() string
	Audit(ctx context.Context, url string) ([]Measurement, error)
}

// ExitError is returned by a CommandRunner when the process exits non-zero.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
	}

	return fmt.Sprintf("%s exited with status %d: %s", e.Command, e.Code, stderr)
}

// CommandRunner runs an external command and returns its stdout. On a non-zero
// exit it returns whatever stdout was produced together with an *ExitError.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // G204: binaries come from operator config
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), &ExitError{Command: name, Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}

		return nil, fmt.Errorf("running %s: %w", name, err)
	}

	return stdout.Bytes(), nil
}

// Config selects binaries for the CLI-backed engines.
type Config struct {
	LighthouseBin string
	Pa11yBin      string
	ChromePath    string
	Runner        CommandRunner
}

// New builds the named engines, in order, wrapped in a Multi.
func New(log logrus.FieldLogger, names []string, cfg Config) (*Multi, error) {
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner
	}

	engines := make([]Engine, 0, len(names))

	for _, name := range names {
		switch name {
		case lighthouseName:
			engines = append(engines, NewLighthouse(log, cfg.LighthouseBin, cfg.ChromePath, cfg.Runner))
		case pa11yName:
			engines = append(engines, NewPa11y(log, cfg.Pa11yBin, cfg.Runner))
		default:
			return nil, fmt.Errorf("%w: %s (must be one of: %s, %s)", errUnknownEngine, name, lighthouseName, pa11yName)
		}
	}

	return NewMulti(log, engines...), nil
}

// Multi runs several engines in order and concatenates their measurements.
type Multi struct {
	engines []Engine
	log     logrus.FieldLogger
}

// NewMulti combines engines.
func NewMulti(log logrus.FieldLogger, engines ...Engine) *Multi {
	return &Multi{
		engines: engines,
		log:     log.WithField("component", "audit_engine"),
	}
}

// Name lists the combined engine names.
func (m *Multi) Name() string {
	names := make([]string, 0, len(m.engines))
	for _, e := range m.engines {
		names = append(names, e.Name())
	}

	return strings.Join(names, "+")
}

// Audit runs every engine. Measurements from engines that succeeded are
// returned even when another engine failed; the failures are joined into err.
func (m *Multi) Audit(ctx context.Context, url string) ([]Measurement, error) {
	var (
		measurements []Measurement
		errs         []error
	)

	for _, e := range m.engines {
		log := m.log.WithFields(logrus.Fields{"engine": e.Name(), "url": url})
		log.Debug("running audit engine")

		got, err := e.Audit(ctx, url)
		if err != nil {
			log.WithError(err).Warn("audit engine failed")
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))

			continue
		}

		log.WithField("metrics", len(got)).Debug("audit engine finished")
		measurements = append(measurements, got...)
	}

	return measurements, errors.Join(errs...)
}

// Compile-time interface compliance check
var _ Engine = (*Multi)(nil)
