package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contractdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad_MissingOptionalFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingRequiredFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
	assert.Error(t, err)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
contracts_file: /data/history.json
storage: sqlite
sqlite_dsn: /data/contracts.db
progress_interval: 100ms
log_level: debug
`)
	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "/data/history.json", cfg.ContractsFile)
	assert.Equal(t, StorageSQLite, cfg.Storage)
	assert.Equal(t, 100*time.Millisecond, cfg.ProgressInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "secret.key", cfg.KeyFile, "unset keys keep defaults")
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "print_command: lpr\n")
	t.Setenv("CONTRACTDESK_PRINT_COMMAND", "lp -d office")
	t.Setenv("CONTRACTDESK_PROGRESS_INTERVAL", "0s")
	t.Setenv("CONTRACTDESK_LOG_PRETTY", "false")

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "lp -d office", cfg.PrintCommand)
	assert.Equal(t, time.Duration(0), cfg.ProgressInterval)
	assert.False(t, cfg.LogPretty)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("CONTRACTDESK_PROGRESS_INTERVAL", "soon")
	_, err := Load("", false)
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "storage: [json\n")
	_, err := Load(path, true)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown storage":   func(c *Config) { c.Storage = "postgres" },
		"no contracts file": func(c *Config) { c.ContractsFile = "" },
		"no dsn":            func(c *Config) { c.Storage = StorageSQLite; c.SQLiteDSN = "" },
		"no key file":       func(c *Config) { c.KeyFile = "" },
		"no print command":  func(c *Config) { c.PrintCommand = "" },
		"negative interval": func(c *Config) { c.ProgressInterval = -time.Second },
		"bad log level":     func(c *Config) { c.LogLevel = "verbose" },
	}
	for name, edit := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			edit(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
