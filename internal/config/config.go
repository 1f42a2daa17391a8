// Package config loads the pwm configuration file.
//
// The file is YAML and is located by, in order: the --config flag, the
// PWM_CONFIG environment variable, or $HOME/.pwm/config.yaml. A missing file
// yields the defaults; a malformed one is an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pwm/internal/encoding"
	"github.com/roach88/pwm/internal/record"
)

// EnvVar names the environment variable that overrides the config path.
const EnvVar = "PWM_CONFIG"

// DefaultDatabaseName is the database file created next to the config file
// when no database is configured.
const DefaultDatabaseName = "db.sqlite"

// Config is the pwm configuration.
type Config struct {
	// Database is the path to the SQLite store. Relative paths are resolved
	// against the directory of the config file.
	Database string `yaml:"database"`

	// Defaults apply to records created without explicit options.
	Defaults Defaults `yaml:"defaults"`

	// path is the file this config was loaded from.
	path string
}

// Defaults holds the creation defaults for new records.
type Defaults struct {
	// Alphabet is a preset name or literal alphabet.
	// Default: full
	Alphabet string `yaml:"alphabet"`

	// KeyLength is the number of symbols in derived keys.
	// Default: 16
	KeyLength int `yaml:"key_length"`
}

// DefaultPath returns the config path from PWM_CONFIG, or
// $HOME/.pwm/config.yaml.
func DefaultPath() (string, error) {
	if path := os.Getenv(EnvVar); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".pwm", "config.yaml"), nil
}

// Default returns the configuration used when no file exists at path.
func Default(path string) *Config {
	return &Config{
		Database: filepath.Join(filepath.Dir(path), DefaultDatabaseName),
		Defaults: Defaults{
			Alphabet:  encoding.DefaultAlphabet,
			KeyLength: record.DefaultKeyLength,
		},
		path: path,
	}
}

// Load reads the configuration at path. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default(path)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Database == "" {
		cfg.Database = DefaultDatabaseName
	}
	if !filepath.IsAbs(cfg.Database) {
		cfg.Database = filepath.Join(filepath.Dir(path), cfg.Database)
	}
	if cfg.Defaults.Alphabet == "" {
		cfg.Defaults.Alphabet = encoding.DefaultAlphabet
	}
	if cfg.Defaults.KeyLength == 0 {
		cfg.Defaults.KeyLength = record.DefaultKeyLength
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Database == "" {
		return errors.New("database path is empty")
	}
	if c.Defaults.KeyLength <= 0 {
		return fmt.Errorf("defaults.key_length must be positive, got %d", c.Defaults.KeyLength)
	}
	if c.Defaults.Alphabet == "" {
		return errors.New("defaults.alphabet is empty")
	}
	return nil
}

// Path returns the file the configuration belongs to.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration to its path, creating the directory if
// needed. The file is readable only by its owner.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("save config: no path")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// RecordOptions returns the creation options implied by the defaults.
func (c *Config) RecordOptions() record.Options {
	return record.Options{
		Alphabet:  c.Defaults.Alphabet,
		KeyLength: c.Defaults.KeyLength,
	}
}
