package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// tableFile is the YAML shape of an on-disk model table.
type tableFile struct {
	Models []Entry `yaml:"models"`
}

// LoadTable reads a model table from a YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from config
	if err != nil {
		return nil, fmt.Errorf("read model table %s: %w", path, err)
	}

	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse model table %s: %w", path, err)
	}

	t, err := NewTable(f.Models)
	if err != nil {
		return nil, fmt.Errorf("model table %s: %w", path, err)
	}
	return t, nil
}
