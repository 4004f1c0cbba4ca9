package flow

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of a flow definitions file.
type File struct {
	Flows []Flow `yaml:"flows"`
}

// LoadFile reads and validates flow definitions from a YAML file.
func LoadFile(log logrus.FieldLogger, path string) ([]Flow, error) {
	log = log.WithField("component", "flow_loader")

	data, err := os.ReadFile(path) //nolint:gosec // G304: reading flow definitions from an operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	flows, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading flows from %s: %w", path, err)
	}

	log.WithFields(logrus.Fields{
		"path":  path,
		"flows": len(flows),
	}).Debug("loaded flow definitions")

	return flows, nil
}

// Parse decodes and validates flow definitions.
func Parse(data []byte) ([]Flow, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	for i := range file.Flows {
		if err := file.Flows[i].Validate(); err != nil {
			return nil, err
		}
	}

	return file.Flows, nil
}
