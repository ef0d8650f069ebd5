// Package config loads the fathom configuration file: a small YAML
// document controlling where the database lives, the bootstrap
// workspace name, the undo depth, and log verbosity. A missing file
// is not an error; every field has a usable default.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the parsed configuration.
type Config struct {
	// DataDir holds the SQLite database. Defaults to ~/.fathom.
	DataDir string `yaml:"data_dir"`

	// DefaultWorkspace names the workspace bootstrapped on first run.
	DefaultWorkspace string `yaml:"default_workspace"`

	// HistoryLimit bounds the undo/redo stack.
	HistoryLimit int `yaml:"history_limit"`

	// LogLevel is a zerolog level name: trace, debug, info, warn,
	// error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:          defaultDataDir(),
		DefaultWorkspace: "Home",
		HistoryLimit:     100,
		LogLevel:         "info",
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fathom"
	}
	return filepath.Join(home, ".fathom")
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}

// Load reads the file at path, or DefaultPath when path is empty,
// layering it over Default. A missing file yields the defaults; a
// present but malformed file is an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("config %s: log_level: %w", path, err)
	}
	if cfg.HistoryLimit < 0 {
		return Config{}, fmt.Errorf("config %s: history_limit must not be negative", path)
	}
	return cfg, nil
}

// DatabasePath is the SQLite file inside DataDir.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "fathom.db")
}

// NewLogger builds the process logger at the configured level.
func (c Config) NewLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
