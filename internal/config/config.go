// Package config loads application settings from the user's config directory
// with environment-variable overrides.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// DBPath is the SQLite database file. Empty means in-memory only.
	DBPath string `yaml:"db_path"`

	// DemoMode runs every operation as the synthetic demo user.
	DemoMode bool `yaml:"demo_mode"`

	// PollIntervalMS drives the in-memory repository's re-notification tick.
	// Zero disables polling.
	PollIntervalMS int `yaml:"poll_interval_ms"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DemoMode:       true,
		PollIntervalMS: 0,
	}
}

// Load loads config from the user's config directory, falling back to
// defaults when the file is absent. Environment variables KANSO_DB_PATH,
// KANSO_DEMO_MODE, and KANSO_POLL_INTERVAL_MS override file values.
func Load() (*Config, error) {
	config := Default()

	configPath, err := getConfigPath()
	if err == nil {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, err
			}
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// Save writes the config to the user's config directory.
func (c *Config) Save() error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0o644)
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv("KANSO_DB_PATH"); v != "" {
		config.DBPath = v
	}
	if v := os.Getenv("KANSO_DEMO_MODE"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			config.DemoMode = parsed
		}
	}
	if v := os.Getenv("KANSO_POLL_INTERVAL_MS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			config.PollIntervalMS = parsed
		}
	}
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "kanso", "config.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "kanso", "config.yaml"), nil
}
