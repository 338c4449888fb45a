package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nishad/encode-audit/internal/paths"
	"github.com/nishad/encode-audit/internal/query"
	"gopkg.in/yaml.v3"
)

// Config represents the encode-audit configuration
type Config struct {
	Server         string        `yaml:"server"`          // Overrides the keyfile server when set
	Keyfile        string        `yaml:"keyfile"`         // ENCODE keypairs.json
	Key            string        `yaml:"key"`             // Keypair name inside the keyfile
	Outfile        string        `yaml:"outfile"`         // Report destination
	DefaultAssays  []string      `yaml:"default_assays"`  // Columns when --all is not given
	RequestTimeout int           `yaml:"request_timeout"` // in seconds, 0 disables
	History        HistoryConfig `yaml:"history"`
}

// HistoryConfig contains run ledger settings
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Keyfile:        paths.GetKeyfilePath(),
		Key:            "default",
		Outfile:        "Error_Count.xlsx",
		DefaultAssays:  append([]string(nil), query.DefaultAssays...),
		RequestTimeout: 60,
		History: HistoryConfig{
			Enabled: false,
			Path:    paths.GetHistoryPath(),
		},
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// Return defaults if file doesn't exist
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.Keyfile = expandPath(config.Keyfile)
	config.History.Path = expandPath(config.History.Path)

	if len(config.DefaultAssays) == 0 {
		config.DefaultAssays = append([]string(nil), query.DefaultAssays...)
	}
	if config.RequestTimeout < 0 {
		return nil, fmt.Errorf("request_timeout must not be negative, got %d", config.RequestTimeout)
	}

	return config, nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	if path := os.Getenv("ENCODE_AUDIT_CONFIG"); path != "" {
		return path
	}

	if _, err := os.Stat("encode-audit.yaml"); err == nil {
		return "encode-audit.yaml"
	}

	p := paths.GetPaths()
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) == 0 {
		return path
	}

	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}

	return path
}
