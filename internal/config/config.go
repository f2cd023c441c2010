// Package config loads the small set of application-level knobs that sit
// outside the user-facing Settings contract (§6.3 of the engine spec):
// things that govern the process itself rather than a particular
// notebook's editing experience. Grounded on the teacher's
// LoadWithEnv(getenv)-injectable loader so tests never touch the real
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds process-wide knobs as read by Load/LoadWithEnv. The
// fernanda binary does not call Load; it uses only UserDataDir.
type Config struct {
	// DevMenu holds a default for the developer menu. The --dev flag in
	// internal/cmd does not consult it.
	DevMenu bool `yaml:"dev_menu"`

	Session SessionConfig `yaml:"session"`
	Codec   CodecConfig   `yaml:"codec"`
	Log     LogConfig     `yaml:"log"`
}

// SessionConfig governs the startup orphan-working-directory sweep
// described as optional housekeeping in §9's Design Notes.
type SessionConfig struct {
	// OrphanSweepThreshold is how old an abandoned working directory
	// (one whose owning process is no longer alive) must be before a
	// sweep removes it. Nothing in this module passes it to
	// session.SweepOrphans.
	OrphanSweepThreshold time.Duration `yaml:"orphan_sweep_threshold"`
}

// CodecConfig holds an override for the Archive Layer's 7z/7zz codec
// executable (§4.1).
type CodecConfig struct {
	// Path is the configured codec path. archive.Codec does not read it:
	// it always searches PATH and the standard install locations.
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the configuration used when no config file exists
// and no environment override is set.
func DefaultConfig() *Config {
	return &Config{
		DevMenu: false,
		Session: SessionConfig{
			OrphanSweepThreshold: 24 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration using the real environment.
func Load() (*Config, error) {
	return LoadWithEnv(os.Getenv)
}

// LoadWithEnv loads configuration using the provided environment lookup
// function. This allows tests to provide isolated environment values.
func LoadWithEnv(getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPathWithEnv(getenv)
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if codec := getenv("FERNANDA_CODEC_PATH"); codec != "" {
		cfg.Codec.Path = codec
	}
	if getenv("FERNANDA_DEV") != "" {
		cfg.DevMenu = true
	}

	return cfg, nil
}

func getConfigPath() string {
	return getConfigPathWithEnv(os.Getenv)
}

func getConfigPathWithEnv(getenv func(string) string) string {
	if xdgConfig := getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "fernanda", "config.yaml")
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fernanda", "config.yaml")
}

// UserDataDir returns the platform-appropriate directory for per-user
// application state that is not a notebook: the start-cop lock file, the
// session registry database, and a bundled codec copy on platforms where
// one is carried (§4.1).
func UserDataDir(getenv func(string) string) string {
	if xdg := getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "fernanda")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "fernanda")
}
