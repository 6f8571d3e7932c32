// Package config provides configuration loading and management for pcforge.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is pcforge's complete runtime configuration.
type Config struct {
	Source SourceConfig `yaml:"source"`
	Watch  WatchConfig  `yaml:"watch"`
	NATS   NATSConfig   `yaml:"nats"`
	CRDT   CRDTConfig   `yaml:"crdt"`
	Dev    DevConfig    `yaml:"dev"`
}

// SourceConfig configures where .pc sources live.
type SourceConfig struct {
	// Root is the directory tree containing .pc source files.
	Root string `yaml:"root"`
}

// WatchConfig configures the file watcher.
type WatchConfig struct {
	// DebounceDelay is the watcher's flush interval: changes collected
	// during one interval are emitted together, one event per changed file.
	DebounceDelay time.Duration `yaml:"debounce_delay"`
	// ExcludeDirs are directory names the watcher never descends into.
	ExcludeDirs []string `yaml:"exclude_dirs"`
}

// NATSConfig configures the NATS connection used for preview, mutation, and
// audit transport.
type NATSConfig struct {
	// URL is the NATS server URL (empty = use an embedded server).
	URL string `yaml:"url"`
	// Embedded indicates whether to start an embedded NATS server.
	Embedded bool `yaml:"embedded"`
}

// CRDTConfig configures the collaborative-editing layer.
type CRDTConfig struct {
	// SnapshotInterval is loaded, defaulted, and merged, but no pcforge
	// component reads it: a Document appends its CRDT changes to the
	// storage.Log per accepted edit, and no periodic snapshot runs.
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
}

// DevConfig configures author-facing diagnostics that are useful while
// authoring but noisy in production, such as index-fallback repeat-key
// warnings.
type DevConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{Root: "."},
		Watch: WatchConfig{
			DebounceDelay: 100 * time.Millisecond,
			ExcludeDirs:   []string{"node_modules", "vendor"},
		},
		NATS: NATSConfig{
			URL:      "",
			Embedded: true,
		},
		CRDT: CRDTConfig{
			SnapshotInterval: 30 * time.Second,
		},
		Dev: DevConfig{Enabled: false},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Source.Root == "" {
		return fmt.Errorf("source.root is required")
	}
	if c.Watch.DebounceDelay <= 0 {
		return fmt.Errorf("watch.debounce_delay must be positive")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file, layered over
// DefaultConfig so a partial file only overrides what it sets.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a YAML file, creating parent
// directories as needed.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Merge merges other into c, with other taking precedence for any
// non-zero field.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Source.Root != "" {
		c.Source.Root = other.Source.Root
	}

	if other.Watch.DebounceDelay != 0 {
		c.Watch.DebounceDelay = other.Watch.DebounceDelay
	}
	if len(other.Watch.ExcludeDirs) > 0 {
		c.Watch.ExcludeDirs = other.Watch.ExcludeDirs
	}

	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
		c.NATS.Embedded = false
	}

	if other.CRDT.SnapshotInterval != 0 {
		c.CRDT.SnapshotInterval = other.CRDT.SnapshotInterval
	}

	if other.Dev.Enabled {
		c.Dev.Enabled = true
	}
}
