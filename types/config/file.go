package config

import (
	"bytes"
	"fmt"
	"os"

	yaml "go.yaml.in/yaml/v3"
)

// WithFile overlays values from a YAML file. An empty path is a no-op.
// Unknown keys are rejected.
func WithFile(path string) Option {
	return func(c *CronfireConfig) error {
		if path == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		return nil
	}
}

// Load builds the process configuration: defaults, then the file named by
// CONFIG_FILE (if any), then environment variables, then extra options.
func Load(lookup LookupFunc, extra ...Option) (*CronfireConfig, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	path, _ := lookup(EnvConfigFile)
	opts := append([]Option{WithFile(path), WithEnv(lookup)}, extra...)
	return NewCronfireConfig(opts...)
}
