package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"sift/internal/paths"
)

// Config represents the complete sift configuration (v1 schema)
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Engine     EngineConfig    `json:"engine" mapstructure:"engine"`
	Scan       ScanConfig      `json:"scan" mapstructure:"scan"`
	Techniques map[string]bool `json:"techniques" mapstructure:"techniques"`
	Logging    LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// EngineConfig controls how techniques are executed
type EngineConfig struct {
	Mode            string `json:"mode" mapstructure:"mode"`
	TimeoutMs       int    `json:"timeoutMs" mapstructure:"timeoutMs"`
	GlobalTimeoutMs int    `json:"globalTimeoutMs" mapstructure:"globalTimeoutMs"`
	WorkerCount     int    `json:"workerCount" mapstructure:"workerCount"`
	Incremental     bool   `json:"incremental" mapstructure:"incremental"`
	Metrics         bool   `json:"metrics" mapstructure:"metrics"`
	HistoryMax      int    `json:"historyMax" mapstructure:"historyMax"`
}

// ScanConfig controls repository traversal
type ScanConfig struct {
	Exclude          []string `json:"exclude" mapstructure:"exclude"`
	MaxFileSizeBytes int      `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		RepoRoot: ".",
		Engine: EngineConfig{
			Mode:            "sequential",
			TimeoutMs:       2000,
			GlobalTimeoutMs: 10000,
			WorkerCount:     0, // 0 means one worker per CPU
			Incremental:     true,
			Metrics:         true,
			HistoryMax:      100,
		},
		Scan: ScanConfig{
			Exclude:          []string{"node_modules", "vendor", "build", "dist", "target", "out"},
			MaxFileSizeBytes: 1000000,
		},
		Techniques: map[string]bool{},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .sift/config.json
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("version", 1)
	v.SetDefault("repoRoot", ".")

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(paths.SiftDir(repoRoot))

	// Environment overrides, e.g. SIFT_ENGINE_MODE=parallel
	v.SetEnvPrefix("SIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// If config doesn't exist, return default config
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	// Unmarshal into config struct
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to .sift/config.json
func (c *Config) Save(repoRoot string) error {
	configPath := filepath.Join(paths.SiftDir(repoRoot), "config.json")

	// Marshal to JSON with indentation
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	// Write to file
	return os.WriteFile(configPath, data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	switch c.Engine.Mode {
	case "sequential", "parallel":
	default:
		return &ConfigError{Field: "engine.mode", Message: "must be sequential or parallel"}
	}
	if c.Engine.TimeoutMs < 0 || c.Engine.GlobalTimeoutMs < 0 {
		return &ConfigError{Field: "engine", Message: "timeouts cannot be negative"}
	}
	if c.Engine.WorkerCount < 0 {
		return &ConfigError{Field: "engine.workerCount", Message: "cannot be negative"}
	}
	if c.Engine.HistoryMax < 1 {
		return &ConfigError{Field: "engine.historyMax", Message: "must be at least 1"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
