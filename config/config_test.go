package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Source.Root != "." {
		t.Errorf("expected default source root '.', got %s", cfg.Source.Root)
	}
	if cfg.Watch.DebounceDelay != 100*time.Millisecond {
		t.Errorf("expected default debounce 100ms, got %v", cfg.Watch.DebounceDelay)
	}
	if !cfg.NATS.Embedded {
		t.Error("expected embedded NATS by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "valid default config", modify: func(c *Config) {}, wantErr: false},
		{name: "missing source root", modify: func(c *Config) { c.Source.Root = "" }, wantErr: true},
		{name: "zero debounce", modify: func(c *Config) { c.Watch.DebounceDelay = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
source:
  root: "/test/path"
watch:
  debounce_delay: 200ms
  exclude_dirs:
    - build
nats:
  url: "nats://test:4222"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Source.Root != "/test/path" {
		t.Errorf("expected source root /test/path, got %s", cfg.Source.Root)
	}
	if cfg.Watch.DebounceDelay != 200*time.Millisecond {
		t.Errorf("expected debounce 200ms, got %v", cfg.Watch.DebounceDelay)
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
	if len(cfg.Watch.ExcludeDirs) != 1 || cfg.Watch.ExcludeDirs[0] != "build" {
		t.Errorf("expected exclude_dirs [build], got %v", cfg.Watch.ExcludeDirs)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Source: SourceConfig{Root: "/override/path"},
	}

	base.Merge(override)

	if base.Source.Root != "/override/path" {
		t.Errorf("expected source root /override/path, got %s", base.Source.Root)
	}
	if base.Watch.DebounceDelay != 100*time.Millisecond {
		t.Errorf("expected debounce to remain default, got %v", base.Watch.DebounceDelay)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Source.Root = "/saved/path"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Source.Root != "/saved/path" {
		t.Errorf("expected source root /saved/path, got %s", loaded.Source.Root)
	}
}
