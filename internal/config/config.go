// Package config handles XDG configuration directory and file paths.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "kudos"

	// SettingsFile is the optional settings filename.
	SettingsFile = "settings.yaml"

	// ServiceAccountFile is the service-account credential filename.
	ServiceAccountFile = "service_account.json"

	// CacheFile is the local cache database filename.
	CacheFile = "kudos.db"
)

// Settings is the operator-supplied configuration surface. Every field is
// optional; a missing field degrades the corresponding feature to a no-op or
// local-only fallback.
type Settings struct {
	// GoogleClientID is unrelated identity config, passed through to clients
	// that embed a sign-in surface.
	GoogleClientID string `yaml:"google_client_id"`

	// ChatSpace targets the authenticated Chat API transport.
	ChatSpace string `yaml:"chat_space"`

	// ChatWebhookURL is the preferred notification transport.
	ChatWebhookURL string `yaml:"chat_webhook_url"`

	// AppURL is the deep link used on notification cards.
	AppURL string `yaml:"app_url"`

	// SyncDir points the file-backed remote store at a shared directory.
	// Empty means no remote store: local-only mode.
	SyncDir string `yaml:"sync_dir"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Settings are the parsed optional settings.
	Settings Settings
}

// New creates a new Config with the default or specified config directory and
// reads settings.yaml when present.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}

	data, err := os.ReadFile(cfg.SettingsPath())
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg.Settings); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SettingsPath returns the path to the settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// ServiceAccountPath returns the path to the service-account credential file.
func (c *Config) ServiceAccountPath() string {
	return filepath.Join(c.Dir, ServiceAccountFile)
}

// CachePath returns the path to the local cache database.
func (c *Config) CachePath() string {
	return filepath.Join(c.Dir, CacheFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasServiceAccount checks if the credential file exists.
func (c *Config) HasServiceAccount() bool {
	_, err := os.Stat(c.ServiceAccountPath())
	return err == nil
}

// ReadServiceAccount returns the raw credential JSON, or nil when absent.
func (c *Config) ReadServiceAccount() ([]byte, error) {
	data, err := os.ReadFile(c.ServiceAccountPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ServiceAccountFile, err)
	}
	return data, nil
}
