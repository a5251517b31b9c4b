// Package config loads pdbench settings with the usual precedence: CLI
// flags override environment variables override the settings file override
// defaults. Flags are applied by the cmd layer; this package resolves the
// rest.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Backend names accepted by the storage.backend setting.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Settings are the resolved application settings.
type Settings struct {
	Backend      string `mapstructure:"backend"`
	DataDir      string `mapstructure:"data_dir"`
	APIBaseURL   string `mapstructure:"api_base_url"`
	LogStreamURL string `mapstructure:"log_stream_url"`
	QuotaBytes   int64  `mapstructure:"quota_bytes"`
	Debug        bool   `mapstructure:"debug"`
	MaxLogFiles  int    `mapstructure:"max_log_files"`
}

// Load reads settings.toml from the config directory (if present), applies
// PDBENCH_* environment variables, and fills defaults.
func Load() (*Settings, error) {
	v := viper.New()
	v.SetConfigName("settings")
	v.SetConfigType("toml")
	if dir, err := ConfigDir(); err == nil {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix("PDBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("backend", BackendFile)
	v.SetDefault("data_dir", "")
	v.SetDefault("api_base_url", "http://localhost:8000")
	v.SetDefault("log_stream_url", "ws://localhost:8000/ws/logs")
	v.SetDefault("quota_bytes", int64(5<<20))
	v.SetDefault("debug", false)
	v.SetDefault("max_log_files", 1000)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	if s.Backend != BackendFile && s.Backend != BackendSQLite {
		return nil, fmt.Errorf("unknown storage backend %q (want %q or %q)",
			s.Backend, BackendFile, BackendSQLite)
	}

	if s.DataDir == "" {
		dir, err := DataDir()
		if err != nil {
			return nil, err
		}
		s.DataDir = dir
	}
	s.DataDir = ExpandPath(s.DataDir)

	return &s, nil
}

// StorePath returns the store location for the selected backend.
func (s *Settings) StorePath() string {
	if s.Backend == BackendSQLite {
		return filepath.Join(s.DataDir, "pdbench.db")
	}
	return filepath.Join(s.DataDir, "store.json")
}

// ConfigDir returns ~/.config/pdbench (or XDG_CONFIG_HOME).
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pdbench"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "pdbench"), nil
}

// DataDir returns ~/.local/share/pdbench (or XDG_DATA_HOME).
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "pdbench"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "pdbench"), nil
}

// ExpandPath expands a leading ~ to the home directory.
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
