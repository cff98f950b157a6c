// Package config loads loomvault configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultService is the platform secret-store namespace used when the
// config file does not set one.
const DefaultService = "com.loomchat.app"

// DefaultProviders is the provider set used when the config file does not
// set one.
var DefaultProviders = []string{"openrouter", "gemini"}

// Config holds persistent configuration loaded from ~/.loomvault/config.yaml.
type Config struct {
	// Service is the secret-store namespace all credentials live under.
	Service string `yaml:"service"`
	// Providers is the set of provider ids the aggregate operations cover.
	Providers []string `yaml:"providers"`
	// APIAddr is an optional TCP address for the daemon API, in addition
	// to the Unix socket.
	APIAddr string `yaml:"api_addr"`
}

// DefaultPath returns the default config file path: ~/.loomvault/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".loomvault", "config.yaml")
}

// Load reads a YAML config file from path. If the file does not exist, the
// defaults are returned with no error. Missing fields are filled with
// defaults; a present but invalid field is an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	default:
		return nil, err
	}

	if cfg.Service == "" {
		cfg.Service = DefaultService
	}
	if len(cfg.Providers) == 0 {
		cfg.Providers = append([]string(nil), DefaultProviders...)
	}
	for _, p := range cfg.Providers {
		if p == "" {
			return nil, fmt.Errorf("config %s: empty provider id", path)
		}
	}
	return cfg, nil
}
