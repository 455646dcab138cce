package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WriteDefaultConfig writes the default configuration to path as YAML. It
// refuses to overwrite an existing file unless force is set.
func WriteDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
	}

	data, err := MarshalYAML(Default())
	if err != nil {
		return err
	}
	header := "# Makeplus API configuration.\n# Every key can be overridden with MAKEPLUS_<SECTION>_<KEY>, e.g. MAKEPLUS_AUTH_JWT_SECRET.\n\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// MarshalYAML renders cfg as YAML. Durations are written in their string
// form ("15m0s").
func MarshalYAML(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}
