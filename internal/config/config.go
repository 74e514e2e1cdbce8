// Package config loads optional user defaults for minipip.
//
// minipip is usually pointed at a mounted MicroPython device over and over;
// a small YAML file saves retyping the same flags. Flags always override
// whatever the file says.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the file-provided defaults. The zero value means "no
// defaults", which is also what a missing file yields.
type Config struct {
	IndexURLs []string `yaml:"index_urls"`
	TargetDir string   `yaml:"target_dir"`
	Python    string   `yaml:"python"`
}

// DefaultPath returns the per-user config file location,
// e.g. ~/.config/minipip/config.yaml on Linux.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "minipip", "config.yaml"), nil
}

// Load reads the config file at path. A missing file is not an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}
