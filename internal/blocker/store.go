package blocker

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads relations from a YAML state file. A missing file is an
// empty set, not an error.
func LoadFile(path string) ([]Relation, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading blocker state: %w", err)
	}
	var rels []Relation
	if err := yaml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("parsing blocker state %s: %w", path, err)
	}
	return rels, nil
}

// SaveFile writes relations to a YAML state file.
func SaveFile(path string, rels []Relation) error {
	data, err := yaml.Marshal(rels)
	if err != nil {
		return fmt.Errorf("encoding blocker state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing blocker state: %w", err)
	}
	return nil
}
