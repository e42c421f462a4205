package config

import (
	"testing"

	"sift/internal/paths"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
	if cfg.Engine.Mode != "sequential" {
		t.Errorf("default mode = %q, want sequential", cfg.Engine.Mode)
	}
	if !cfg.Engine.Incremental {
		t.Error("incremental caching should default on")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Version = %d, want default 1", cfg.Version)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	if _, err := paths.EnsureSiftDir(root); err != nil {
		t.Fatalf("Failed to create state dir: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Engine.Mode = "parallel"
	cfg.Engine.WorkerCount = 8
	cfg.Engine.TimeoutMs = 500
	cfg.Scan.Exclude = []string{"vendor"}
	cfg.Techniques = map[string]bool{"long-line": false}
	cfg.Logging.Level = "debug"

	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if loaded.Engine.Mode != "parallel" || loaded.Engine.WorkerCount != 8 {
		t.Errorf("engine settings lost: %+v", loaded.Engine)
	}
	if loaded.Engine.TimeoutMs != 500 {
		t.Errorf("TimeoutMs = %d, want 500", loaded.Engine.TimeoutMs)
	}
	if len(loaded.Scan.Exclude) != 1 || loaded.Scan.Exclude[0] != "vendor" {
		t.Errorf("scan excludes lost: %+v", loaded.Scan.Exclude)
	}
	if on, listed := loaded.Techniques["long-line"]; !listed || on {
		t.Errorf("technique enable map lost: %+v", loaded.Techniques)
	}
	if loaded.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", loaded.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad version", func(c *Config) { c.Version = 99 }},
		{"bad mode", func(c *Config) { c.Engine.Mode = "turbo" }},
		{"negative timeout", func(c *Config) { c.Engine.TimeoutMs = -1 }},
		{"negative workers", func(c *Config) { c.Engine.WorkerCount = -2 }},
		{"zero history", func(c *Config) { c.Engine.HistoryMax = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() passed, want error")
			}
		})
	}
}
