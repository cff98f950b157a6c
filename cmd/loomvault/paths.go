package main

import (
	"os"
	"path/filepath"

	"github.com/loomchat/loomvault/internal/config"
)

// loomHome returns the path to the loomvault home directory (~/.loomvault).
func loomHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".loomvault"), nil
}

func defaultSocketPath() string {
	home, err := loomHome()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "loomvault.sock")
}

func auditLogPath() string {
	home, err := loomHome()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "audit.log")
}

// resolveConfigPath honors the --config flag, falling back to the default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}
