package yaml

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadYAML decodes the file at path into target. Unknown fields are rejected.
func LoadYAML(path string, target interface{}) error {
	if path == "" {
		return fmt.Errorf("yaml path cannot be empty")
	}
	if target == nil {
		return fmt.Errorf("target cannot be nil")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read yaml file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("failed to unmarshal yaml file %s: %w", path, err)
	}
	return nil
}

// SaveYAML writes data to path, creating parent directories as needed.
func SaveYAML(path string, data interface{}) error {
	yamlData, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal to yaml: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, yamlData, 0644); err != nil {
		return fmt.Errorf("failed to write yaml file %s: %w", path, err)
	}
	return nil
}
