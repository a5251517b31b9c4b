package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendFile, s.Backend)
	assert.Equal(t, "http://localhost:8000", s.APIBaseURL)
	assert.Equal(t, "ws://localhost:8000/ws/logs", s.LogStreamURL)
	assert.Equal(t, int64(5<<20), s.QuotaBytes)
	assert.False(t, s.Debug)
	assert.NotEmpty(t, s.DataDir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("PDBENCH_BACKEND", "sqlite")
	t.Setenv("PDBENCH_API_BASE_URL", "http://compute:9000")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, s.Backend)
	assert.Equal(t, "http://compute:9000", s.APIBaseURL)
}

func TestLoad_SettingsFile(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	dir := filepath.Join(configHome, "pdbench")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.toml"), []byte(
		"backend = \"sqlite\"\nquota_bytes = 1048576\n"), 0644))

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, s.Backend)
	assert.Equal(t, int64(1<<20), s.QuotaBytes)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("PDBENCH_BACKEND", "redis")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

func TestStorePath_FollowsBackend(t *testing.T) {
	s := &Settings{Backend: BackendFile, DataDir: "/data"}
	assert.Equal(t, filepath.Join("/data", "store.json"), s.StorePath())

	s.Backend = BackendSQLite
	assert.Equal(t, filepath.Join("/data", "pdbench.db"), s.StorePath())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "data"), ExpandPath("~/data"))
	assert.Equal(t, "/abs/path", ExpandPath("/abs/path"))
}
