package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "Home", cfg.DefaultWorkspace)
	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "fathom.db"), cfg.DatabasePath())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"data_dir: /tmp/fathom-test\ndefault_workspace: Scratch\nlog_level: debug\n",
	), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/fathom-test", cfg.DataDir)
	assert.Equal(t, "Scratch", cfg.DefaultWorkspace)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Unset fields keep their defaults.
	assert.Equal(t, 100, cfg.HistoryLimit)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: [broken"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_BadLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: chatty\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNewLogger_Level(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "warn"
	log := cfg.NewLogger(io.Discard)
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
}
