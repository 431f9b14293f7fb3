// Package config loads the petadm configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/petadm/internal/credstore"
)

// APIURLEnvVarName overrides api_url.
const APIURLEnvVarName = "PETADM_API_URL"

// Config represents the CLI configuration
type Config struct {
	// Pet Manager API base URL
	APIURL string `yaml:"api_url,omitempty"`

	// Default output format (text, json, table, yaml)
	Output string `yaml:"output,omitempty"`

	// Default color mode (auto, always, never)
	Color string `yaml:"color,omitempty"`

	// Log handler format (text, json)
	LogFormat string `yaml:"log_format,omitempty"`

	// HTTP timeout, as a Go duration string
	Timeout string `yaml:"timeout,omitempty"`

	CredentialStore CredentialStoreConfig `yaml:"credential_store,omitempty"`
}

// CredentialStoreConfig selects where session credentials are kept.
type CredentialStoreConfig struct {
	// keyring (default), file or memory
	Backend string `yaml:"backend,omitempty"`

	// Database path for the file backend
	Path string `yaml:"path,omitempty"`
}

// configPathFunc is the function used to get the default config path
// It can be overridden for testing
var configPathFunc = defaultConfigPath

// SetConfigPathFunc sets the config path function for testing.
// Returns the original function so it can be restored.
func SetConfigPathFunc(fn func() (string, error)) func() (string, error) {
	orig := configPathFunc
	configPathFunc = fn
	return orig
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "petadm", "config.yaml"), nil
}

// DefaultConfigPath returns ~/.config/petadm/config.yaml
func DefaultConfigPath() (string, error) {
	return configPathFunc()
}

// Load loads config from the default path, returns empty config if not found.
// Environment overrides are applied.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		cfg := &Config{}
		cfg.applyEnv()
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path and applies environment
// overrides.
func LoadFromPath(path string) (*Config, error) {
	cfg, err := ReadFromPath(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// ReadFromPath loads and validates the file at path without environment
// overrides, for callers that write the config back.
func ReadFromPath(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(APIURLEnvVarName)); v != "" {
		c.APIURL = v
	}
}

// Validate checks enumerated and duration fields.
func (c *Config) Validate() error {
	switch c.CredentialStore.Backend {
	case "", credstore.BackendKeyring, credstore.BackendFile, credstore.BackendMemory:
	default:
		return fmt.Errorf("credential_store.backend %q must be keyring, file or memory", c.CredentialStore.Backend)
	}
	switch c.Color {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("color %q must be auto, always or never", c.Color)
	}
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
		}
	}
	return nil
}

// Save saves config to the default path
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveToPath(path)
}

// SaveToPath saves config to a specific path
func (c *Config) SaveToPath(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// GetOutput returns the effective output format (config default or empty)
func (c *Config) GetOutput() string {
	return c.Output
}

// GetColor returns the effective color mode (config default or empty)
func (c *Config) GetColor() string {
	return c.Color
}

// GetTimeout returns the HTTP timeout, or def when unset.
func (c *Config) GetTimeout(def time.Duration) time.Duration {
	if c.Timeout == "" {
		return def
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
