package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Database.LoadOnStart {
		t.Error("Expected Database.LoadOnStart=true")
	}
	if !cfg.Database.SaveOnExit {
		t.Error("Expected Database.SaveOnExit=true")
	}
	if filepath.Base(cfg.Database.SnapshotPath) != "rdbms.snap" {
		t.Errorf("Expected snapshot file named rdbms.snap, got %s", cfg.Database.SnapshotPath)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected Level=info, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Expected Format=console, got %s", cfg.Logging.Format)
	}
	if cfg.Database.FsyncOnSave {
		t.Error("Expected Database.FsyncOnSave=false")
	}
	if !cfg.Query.LikeStrict {
		t.Error("Expected Query.LikeStrict=true")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		expectErr bool
	}{
		{name: "valid config", modify: func(c *Config) {}, expectErr: false},
		{
			name:      "empty snapshot path",
			modify:    func(c *Config) { c.Database.SnapshotPath = "" },
			expectErr: true,
		},
		{
			name:      "invalid logging level",
			modify:    func(c *Config) { c.Logging.Level = "invalid" },
			expectErr: true,
		},
		{
			name:      "invalid logging format",
			modify:    func(c *Config) { c.Logging.Format = "invalid" },
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.expectErr && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd) //nolint:errcheck
	_ = os.Chdir(tmpDir)

	oldHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", oldHome)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error with missing config, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected config, got nil")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default level info, got %s", cfg.Logging.Level)
	}
}

func TestLoadConfig_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
database:
  snapshot_path: /tmp/test.snap
  load_on_start: false
  save_on_exit: false
  fsync_on_save: true
logging:
  level: debug
  format: json
query:
  like_strict: false
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd) //nolint:errcheck
	_ = os.Chdir(tmpDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.SnapshotPath != "/tmp/test.snap" {
		t.Errorf("Expected snapshot_path=/tmp/test.snap, got %s", cfg.Database.SnapshotPath)
	}
	if cfg.Database.LoadOnStart {
		t.Error("Expected LoadOnStart=false, got true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level=debug, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format=json, got %s", cfg.Logging.Format)
	}
	if !cfg.Database.FsyncOnSave {
		t.Error("Expected FsyncOnSave=true, got false")
	}
	if cfg.Query.LikeStrict {
		t.Error("Expected LikeStrict=false, got true")
	}
}

func TestEnsureConfigDir(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{
		Database: DatabaseConfig{
			SnapshotPath: filepath.Join(tmpDir, "subdir", "rdbms.snap"),
		},
	}

	if err := cfg.EnsureConfigDir(); err != nil {
		t.Fatalf("EnsureConfigDir failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "subdir")); os.IsNotExist(err) {
		t.Error("Config directory was not created")
	}
}

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	if path == "" {
		t.Error("ConfigPath returned empty string")
	}
	homeDir, _ := os.UserHomeDir()
	expected := filepath.Join(homeDir, ".rdbms")
	if path != expected {
		t.Errorf("Expected %s, got %s", expected, path)
	}
}
