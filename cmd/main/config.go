package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/natefinch/atomic"
)

const (
	// defaultFixedSeed is the seed used in "fixed" mode unless overridden.
	defaultFixedSeed uint64 = 20
	// defaultMaxSteps bounds generation from the command line. The library
	// itself has no bound unless asked for one.
	defaultMaxSteps = 100000
)

// Config is the top-level configuration read from the TOML config file.
type Config struct {
	LogLevel string         `toml:"log_level"`
	Generate GenerateConfig `toml:"generate"`
	History  HistoryConfig  `toml:"history"`
}

// GenerateConfig holds defaults for the generation command.
type GenerateConfig struct {
	FixedSeed uint64 `toml:"fixed_seed"`
	MaxSteps  int    `toml:"max_steps"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled      bool   `toml:"enabled"`
	DatabasePath string `toml:"database_path"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Generate: GenerateConfig{
			FixedSeed: defaultFixedSeed,
			MaxSteps:  defaultMaxSteps,
		},
		History: HistoryConfig{
			Enabled:      false,
			DatabasePath: DefaultDBPath(),
		},
	}
}

// LoadConfig reads the configuration from a TOML file at the given path.
// Values missing from the file keep their defaults, and a missing file is not
// an error.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// WriteDefaultConfig writes the default configuration to path. An existing
// file is only replaced when force is set.
func WriteDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config file: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# charkov configuration. Command-line flags override these values.\n\n")
	if err := toml.NewEncoder(&buf).Encode(DefaultConfig()); err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// xdgHome returns the value of the XDG variable env, or home/fallback.
func xdgHome(env string, fallback ...string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

// DefaultConfigPath returns CHARKOV_CONFIG, or the config file under the XDG
// config home.
func DefaultConfigPath() string {
	if v := os.Getenv("CHARKOV_CONFIG"); v != "" {
		return v
	}
	return filepath.Join(xdgHome("XDG_CONFIG_HOME", ".config"), "charkov", "config.toml")
}

// DefaultDBPath returns CHARKOV_DB, or the history database under the XDG data
// home.
func DefaultDBPath() string {
	if v := os.Getenv("CHARKOV_DB"); v != "" {
		return v
	}
	return filepath.Join(xdgHome("XDG_DATA_HOME", ".local", "share"), "charkov", "history.db")
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", level)
	}
}
