// Package config loads contractdesk settings from an optional YAML file,
// CONTRACTDESK_* environment variables and built-in defaults, in that
// order of increasing precedence below command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageJSON   = "json"
	StorageSQLite = "sqlite"
)

// DefaultPath is the config file read when none is given explicitly.
const DefaultPath = "contractdesk.yaml"

// Config holds every runtime setting.
type Config struct {
	ContractsFile    string        `yaml:"contracts_file"`
	Storage          string        `yaml:"storage"`
	SQLiteDSN        string        `yaml:"sqlite_dsn"`
	KeyFile          string        `yaml:"key_file"`
	PasswordFile     string        `yaml:"password_file"`
	FontFile         string        `yaml:"font_file"`
	StampFile        string        `yaml:"stamp_file"`
	PrintCommand     string        `yaml:"print_command"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
	LogLevel         string        `yaml:"log_level"`
	LogPretty        bool          `yaml:"log_pretty"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		ContractsFile:    "contracts_history.json",
		Storage:          StorageJSON,
		SQLiteDSN:        "contracts.db",
		KeyFile:          "secret.key",
		PasswordFile:     "password.enc",
		PrintCommand:     "lp",
		ProgressInterval: 500 * time.Millisecond,
		LogLevel:         "warn",
		LogPretty:        true,
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is an error only when required is true.
func Load(path string, required bool) (Config, error) {
	cfg := Default()

	if path != "" {
		// #nosec G304 -- path comes from the operator
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !required:
		default:
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"CONTRACTDESK_CONTRACTS_FILE": &cfg.ContractsFile,
		"CONTRACTDESK_STORAGE":        &cfg.Storage,
		"CONTRACTDESK_SQLITE_DSN":     &cfg.SQLiteDSN,
		"CONTRACTDESK_KEY_FILE":       &cfg.KeyFile,
		"CONTRACTDESK_PASSWORD_FILE":  &cfg.PasswordFile,
		"CONTRACTDESK_FONT_FILE":      &cfg.FontFile,
		"CONTRACTDESK_STAMP_FILE":     &cfg.StampFile,
		"CONTRACTDESK_PRINT_COMMAND":  &cfg.PrintCommand,
		"CONTRACTDESK_LOG_LEVEL":      &cfg.LogLevel,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("CONTRACTDESK_PROGRESS_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CONTRACTDESK_PROGRESS_INTERVAL: %w", err)
		}
		cfg.ProgressInterval = d
	}
	if v, ok := os.LookupEnv("CONTRACTDESK_LOG_PRETTY"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CONTRACTDESK_LOG_PRETTY: %w", err)
		}
		cfg.LogPretty = b
	}
	return nil
}

// Validate returns an error if any setting is unusable.
func (c Config) Validate() error {
	switch c.Storage {
	case StorageJSON:
		if c.ContractsFile == "" {
			return fmt.Errorf("contracts_file must be set for json storage")
		}
	case StorageSQLite:
		if c.SQLiteDSN == "" {
			return fmt.Errorf("sqlite_dsn must be set for sqlite storage")
		}
	default:
		return fmt.Errorf("storage must be %s or %s, got %q", StorageJSON, StorageSQLite, c.Storage)
	}
	if c.KeyFile == "" || c.PasswordFile == "" {
		return fmt.Errorf("key_file and password_file must be set")
	}
	if c.PrintCommand == "" {
		return fmt.Errorf("print_command must be set")
	}
	if c.ProgressInterval < 0 {
		return fmt.Errorf("progress_interval must be >= 0, got %s", c.ProgressInterval)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, error or disabled, got %q", c.LogLevel)
	}
	return nil
}
