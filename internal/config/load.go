package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file Load looks for.
const FileName = "lod.yaml"

// Load builds the effective configuration: defaults, then the config file,
// then command-line flags. The file is the -config path when one is given,
// otherwise the first FileName found in the working directory or in
// ConfigDir. No file at all is not an error. The result is validated.
func Load() (*Config, error) {
	cfg := Default()

	if path := resolveFile(); path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// resolveFile returns the config file Load should read, or "".
func resolveFile() string {
	if path := ConfigPath(); path != "" {
		return path
	}
	for _, path := range []string{FileName, DefaultPath()} {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user directory for midgard-lod settings under
// os.UserConfigDir. Platforms without one fall back to the working directory.
func ConfigDir() string {
	root, err := os.UserConfigDir()
	if err != nil {
		root, _ = filepath.Abs(".")
	}
	return filepath.Join(root, "midgard-lod")
}

// DefaultPath is where Save writes and the last place Load looks.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), FileName)
}

// loadFromFile overlays the YAML file at path onto cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
