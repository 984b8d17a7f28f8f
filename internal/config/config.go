package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Backend names accepted in the backend field.
const (
	BackendKeychain = "keychain"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Config holds persistent configuration loaded from ~/.settingskit/config.yaml.
type Config struct {
	// Service is the default keychain service. Empty means the host module.
	Service     string `yaml:"service"`
	AccessGroup string `yaml:"access_group"`
	// Backend selects the secure item store: keychain, sqlite or memory.
	Backend         string `yaml:"backend"`
	DatabasePath    string `yaml:"database_path"`
	PreferencesPath string `yaml:"preferences_path"`
	AuditLog        string `yaml:"audit_log"`
}

// Home returns the settingskit home directory: ~/.settingskit.
func Home() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".settingskit")
}

// DefaultPath returns the default config file path: ~/.settingskit/config.yaml.
func DefaultPath() string {
	dir := Home()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads a YAML config file from path. If the file does not exist,
// it returns a Config with defaults applied and no error. An empty or
// all-comment file behaves the same way.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendKeychain
	}
	home := Home()
	if c.DatabasePath == "" && home != "" {
		c.DatabasePath = filepath.Join(home, "items.db")
	}
	if c.PreferencesPath == "" && home != "" {
		c.PreferencesPath = filepath.Join(home, "preferences.yaml")
	}
}

// Validate reports every problem found, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendKeychain, BackendSQLite, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("config: backend must be one of [keychain, sqlite, memory], got %q", c.Backend))
	}
	if c.Backend == BackendSQLite && c.DatabasePath == "" {
		errs = append(errs, errors.New("config: database_path is required for the sqlite backend"))
	}
	if c.PreferencesPath == "" {
		errs = append(errs, errors.New("config: preferences_path must not be empty"))
	}
	return errors.Join(errs...)
}
