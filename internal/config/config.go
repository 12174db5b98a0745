// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for tkonverter.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.tkonverter/config.toml
//   - ~/.tkonverter/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Loganavter/Tkonverter/internal/cost"
	"github.com/Loganavter/Tkonverter/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete tkonverter configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Source   SourceConfig   `toml:"source" json:"source"`
	Analysis AnalysisConfig `toml:"analysis" json:"analysis"`
	Storage  StorageConfig  `toml:"storage" json:"storage"`
	Export   ExportConfig   `toml:"export" json:"export"`
}

// SourceConfig describes where the chat export lives and how to read it.
type SourceConfig struct {
	// Path is the Telegram export file (result.json).
	Path string `toml:"path" json:"path"`
	// Timezone is the IANA name used to bucket timestamps into calendar
	// days (e.g. "Europe/Moscow"). "Local" uses the system timezone.
	Timezone string `toml:"timezone" json:"timezone"`
	// WatchDebounceMs is how long a changed export must stay quiet before a
	// reload fires. Clamped to 100-5000.
	WatchDebounceMs int `toml:"watch_debounce_ms" json:"watch_debounce_ms"`
}

// AnalysisConfig selects the cost strategy for the aggregation tree.
type AnalysisConfig struct {
	// Strategy is "chars" or "tokens".
	Strategy string `toml:"strategy" json:"strategy"`
	// TokenModel is the tokenizer model ID for the "tokens" strategy.
	TokenModel string `toml:"token_model" json:"token_model"`
}

// StorageConfig locates the toggle database.
type StorageConfig struct {
	// DatabasePath is the SQLite file holding excluded record IDs.
	// Empty means ~/.tkonverter/toggles.db.
	DatabasePath string `toml:"database_path" json:"database_path"`
}

// ExportConfig controls the filtered export output.
type ExportConfig struct {
	// OutputDir is where filtered exports are written. Default: ".".
	OutputDir string `toml:"output_dir" json:"output_dir"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Source: SourceConfig{
			Timezone:        "Local",
			WatchDebounceMs: 500,
		},
		Analysis: AnalysisConfig{
			Strategy:   cost.StrategyChars,
			TokenModel: "gpt2",
		},
		Export: ExportConfig{
			OutputDir: ".",
		},
	}
}

// ConfigDir returns the tkonverter configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".tkonverter"), nil
}

// DefaultDatabasePath returns the toggle database location used when the
// config leaves it empty.
func DefaultDatabasePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "toggles.db"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load loads configuration from ~/.tkonverter. Tries TOML first, then JSON,
// and falls back to defaults. Environment overrides apply last.
func Load() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}

	for _, name := range []string{"config.toml", "config.json"} {
		path := filepath.Join(dir, name)
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		return LoadFromPath(path)
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific TOML or JSON file, applies
// environment overrides, and validates.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode JSON config: %w", err)
		}
	} else {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode TOML config: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies TKONVERTER_* environment variables on top of the
// loaded values.
func (c *Config) ApplyEnvOverrides() {
	if path := os.Getenv("TKONVERTER_EXPORT"); path != "" {
		c.Source.Path = path
	}
	if tz := os.Getenv("TKONVERTER_TIMEZONE"); tz != "" {
		c.Source.Timezone = tz
	}
	if strategy := os.Getenv("TKONVERTER_STRATEGY"); strategy != "" {
		c.Analysis.Strategy = strategy
	}
	if model := os.Getenv("TKONVERTER_TOKEN_MODEL"); model != "" {
		c.Analysis.TokenModel = model
	}
	if db := os.Getenv("TKONVERTER_DB"); db != "" {
		c.Storage.DatabasePath = db
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration, clamping recoverable values and
// rejecting the rest.
func (c *Config) Validate() error {
	switch c.Analysis.Strategy {
	case cost.StrategyChars, cost.StrategyTokens:
	default:
		return fmt.Errorf("%w: %q", cost.ErrUnknownStrategy, c.Analysis.Strategy)
	}

	if c.Analysis.Strategy == cost.StrategyTokens {
		if _, err := cost.NewTokenCount(c.Analysis.TokenModel); err != nil {
			return err
		}
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Source.Timezone, err)
	}

	// Clamp the debounce window to something usable.
	if c.Source.WatchDebounceMs < 100 {
		c.Source.WatchDebounceMs = 100
	}
	if c.Source.WatchDebounceMs > 5000 {
		c.Source.WatchDebounceMs = 5000
	}

	if c.Export.OutputDir == "" {
		c.Export.OutputDir = "."
	}

	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Source.Timezone == "" || strings.EqualFold(c.Source.Timezone, "Local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Source.Timezone)
}

// WatchDebounce returns the debounce window as a duration.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Source.WatchDebounceMs) * time.Millisecond
}

// Provider builds the configured cost provider.
func (c *Config) Provider() (cost.Provider, error) {
	return cost.ForStrategy(c.Analysis.Strategy, c.Analysis.TokenModel)
}

// DatabasePath resolves the toggle database path, falling back to the
// default under ~/.tkonverter.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.DatabasePath != "" {
		return c.Storage.DatabasePath, nil
	}
	return DefaultDatabasePath()
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to ~/.tkonverter/config.toml.
func Save(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, filepath.Join(dir, "config.toml"))
}

// SaveTOML saves the configuration to a TOML file atomically.
func SaveTOML(cfg *Config, path string) error {
	var buf strings.Builder
	buf.WriteString("# tkonverter configuration file\n")
	buf.WriteString("# Generated by tkonverter - edit with care\n\n")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
