package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// ConfigPath returns the location of the config file (~/.trubot/config.json).
func ConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".trubot", "config.json"), nil
}

// Load reads the config file if present, then applies environment overrides
// (prefix TRUBOT, plus the bare GEMINI_API_KEY / GOOGLE_API_KEY fallbacks).
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := envconfig.Process("trubot", cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	// The Gemini key is commonly set without the TRUBOT prefix.
	if cfg.Providers.Gemini.APIKey == "" {
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			cfg.Providers.Gemini.APIKey = v
		} else if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
			cfg.Providers.Gemini.APIKey = v
		}
	}

	cfg.Paths.StateDir = ExpandPath(cfg.Paths.StateDir)
	if cfg.Paths.RulesFile == "" {
		cfg.Paths.RulesFile = filepath.Join(cfg.Paths.StateDir, "rules.txt")
	} else {
		cfg.Paths.RulesFile = ExpandPath(cfg.Paths.RulesFile)
	}

	return cfg, nil
}

// Save writes the config to the config file, creating the directory if needed.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}

// EnsureDir creates the directory if it does not exist.
func EnsureDir(path string) error {
	return os.MkdirAll(ExpandPath(path), 0755)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
