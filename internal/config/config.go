package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the engine's runtime configuration: where its snapshot
// lives, how it logs, and query-evaluator knobs.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Query    QueryConfig    `mapstructure:"query"`
}

// DatabaseConfig names the snapshot file Database.Save/Load read and
// write, whether a snapshot is loaded automatically at startup, and
// whether a save fsyncs the file before closing it (engine.Database.SaveFile).
type DatabaseConfig struct {
	SnapshotPath string `mapstructure:"snapshot_path"`
	LoadOnStart  bool   `mapstructure:"load_on_start"`
	SaveOnExit   bool   `mapstructure:"save_on_exit"`
	FsyncOnSave  bool   `mapstructure:"fsync_on_save"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console, json
}

// QueryConfig holds query-evaluator knobs. LikeStrict governs
// engine.SetLikeStrict: true (the default) makes LIKE case-sensitive;
// false relaxes it to case-insensitive matching.
type QueryConfig struct {
	LikeStrict bool `mapstructure:"like_strict"`
}

// DefaultConfig returns configuration with the engine's defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			SnapshotPath: filepath.Join(ConfigPath(), "rdbms.snap"),
			LoadOnStart:  true,
			SaveOnExit:   true,
			FsyncOnSave:  false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Query: QueryConfig{
			LikeStrict: true,
		},
	}
}

// Load loads configuration from YAML file with fallback to defaults.
// Searches in multiple locations:
// 1. ./config.yaml (current directory)
// 2. ~/.rdbms/config.yaml (user home)
// 3. /etc/rdbms (system-wide)
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	v.AddConfigPath(ConfigPath())
	v.AddConfigPath("/etc/rdbms")

	v.SetEnvPrefix("RDBMS")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.snapshot_path", filepath.Join(ConfigPath(), "rdbms.snap"))
	v.SetDefault("database.load_on_start", true)
	v.SetDefault("database.save_on_exit", true)
	v.SetDefault("database.fsync_on_save", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("query.like_strict", true)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Database.SnapshotPath == "" {
		return fmt.Errorf("database.snapshot_path is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: console, json")
	}

	return nil
}

// EnsureConfigDir creates the snapshot's parent directory if missing.
func (c *Config) EnsureConfigDir() error {
	dir := filepath.Dir(c.Database.SnapshotPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// ConfigPath returns the path to the configuration directory.
func ConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".rdbms")
}
