package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const yamlIndent = 2

// WriteYAML writes cfg as a YAML document that LoadConfig accepts.
func WriteYAML(w io.Writer, cfg Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(yamlIndent)

	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush config: %w", err)
	}

	return nil
}
