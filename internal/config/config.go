// Package config holds the engine configuration file handling.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
)

// Config is the operator-facing engine configuration.
type Config struct {
	// StateDir is where all persisted engine state lives.
	StateDir string `json:"stateDir"`

	LogLevel string `json:"logLevel"`

	// MaxMetrics bounds the active metrics store (FIFO eviction).
	MaxMetrics int `json:"maxMetrics"`

	// ExcerptLimit caps stored diagnostic excerpts, in bytes.
	ExcerptLimit int `json:"excerptLimit"`

	// ArchiveEvicted mirrors evicted metrics into the SQLite archive.
	ArchiveEvicted bool `json:"archiveEvicted"`

	// RulesPath optionally overrides the built-in error taxonomy with
	// an ordered TOML rules file.
	RulesPath string `json:"rulesPath,omitempty"`

	Watch WatchConfig `json:"watch,omitempty"`
}

// WatchConfig controls the optional watch daemon.
type WatchConfig struct {
	// ResultsDir is the drop directory scanned for new workflow
	// result files.
	ResultsDir string `json:"resultsDir"`

	// ReportSchedule is a cron expression for periodic report
	// regeneration. Empty disables the scheduled refresh.
	ReportSchedule string `json:"reportSchedule,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		StateDir:       "data/learning",
		LogLevel:       "info",
		MaxMetrics:     1000,
		ExcerptLimit:   500,
		ArchiveEvicted: true,
		Watch: WatchConfig{
			ResultsDir:     "data/results",
			ReportSchedule: "0 * * * *",
		},
	}
}

// Load reads configuration from a JSON file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if c.StateDir == "" {
		return fmt.Errorf("stateDir is required")
	}
	if c.MaxMetrics < 0 {
		return fmt.Errorf("maxMetrics must not be negative")
	}
	if c.Watch.ReportSchedule != "" {
		if _, err := cron.ParseStandard(c.Watch.ReportSchedule); err != nil {
			return fmt.Errorf("invalid report schedule: %w", err)
		}
	}
	return nil
}

// ArchivePath returns the archive database location under the state
// directory.
func (c *Config) ArchivePath() string {
	return filepath.Join(c.StateDir, "archive.db")
}
