package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Storage   StorageConfig   `json:"storage"`
	Logging   LoggingConfig   `json:"logging"`
	Responder ResponderConfig `json:"responder"`
	Resources ResourcesConfig `json:"resources"`
}

// ServerConfig controls the HTTP server
type ServerConfig struct {
	Port        int    `json:"port"`
	BindAddress string `json:"bind_address"`
}

// StorageConfig locates the persistent files
type StorageConfig struct {
	UserDBPath   string `json:"user_db_path"`  // flat JSON user database
	ActivityPath string `json:"activity_path"` // sqlite activity log
	WatchUserDB  bool   `json:"watch_user_db"` // reload on external edits
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level        string `json:"level"`         // "debug", "info", "warn", "error"
	DebugEnabled bool   `json:"debug_enabled"` // Enable debug file logging
	File         string `json:"file"`          // Debug log file path
	MaxSizeMB    int    `json:"max_size_mb"`   // Max file size before rotation
	MaxBackups   int    `json:"max_backups"`   // Number of backup files to keep
}

// ResponderConfig tunes the reply engine
type ResponderConfig struct {
	ThinkDelayMS int    `json:"think_delay_ms"`
	RulesFile    string `json:"rules_file"` // optional extra rules, JSON
}

// ResourcesConfig controls documentation lookups
type ResourcesConfig struct {
	Enabled      bool     `json:"enabled"`
	AllowedHosts []string `json:"allowed_hosts"`
}

// Load reads configuration from file and environment. A missing file
// is created with defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		var fileCfg Config
		if err := json.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}

		// Booleans absent from the file default to true
		var raw map[string]json.RawMessage
		json.Unmarshal(data, &raw)
		if !hasField(raw, "logging", "debug_enabled") {
			fileCfg.Logging.DebugEnabled = true
		}
		if !hasField(raw, "storage", "watch_user_db") {
			fileCfg.Storage.WatchUserDB = true
		}
		if !hasField(raw, "resources", "enabled") {
			fileCfg.Resources.Enabled = true
		}

		cfg = &fileCfg
		applyDefaults(cfg)
	} else {
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8501,
			BindAddress: "127.0.0.1",
		},
		Storage: StorageConfig{
			UserDBPath:   "user_data.json",
			ActivityPath: "activity.db",
			WatchUserDB:  true,
		},
		Logging: LoggingConfig{
			Level:        "info",
			DebugEnabled: true,
			File:         "debug.log",
			MaxSizeMB:    10,
			MaxBackups:   3,
		},
		Responder: ResponderConfig{
			ThinkDelayMS: 1000,
		},
		Resources: ResourcesConfig{
			Enabled:      true,
			AllowedHosts: []string{"mathworks.com"},
		},
	}
}

// applyDefaults fills fields the file left empty
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8501
	}
	if cfg.Server.BindAddress == "" {
		cfg.Server.BindAddress = "127.0.0.1"
	}
	if cfg.Storage.UserDBPath == "" {
		cfg.Storage.UserDBPath = "user_data.json"
	}
	if cfg.Storage.ActivityPath == "" {
		cfg.Storage.ActivityPath = "activity.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = "debug.log"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 10
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 3
	}
	if cfg.Responder.ThinkDelayMS == 0 {
		cfg.Responder.ThinkDelayMS = 1000
	}
	if len(cfg.Resources.AllowedHosts) == 0 {
		cfg.Resources.AllowedHosts = []string{"mathworks.com"}
	}
}

// hasField reports whether section.field appears in the raw JSON
func hasField(raw map[string]json.RawMessage, section, field string) bool {
	sec, ok := raw[section]
	if !ok {
		return false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(sec, &fields); err != nil {
		return false
	}
	_, ok = fields[field]
	return ok
}

// Save writes the configuration to disk
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MATBOT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("MATBOT_BIND_ADDRESS"); v != "" {
		c.Server.BindAddress = v
	}
	if v := os.Getenv("MATBOT_USER_DB"); v != "" {
		c.Storage.UserDBPath = v
	}
	if v := os.Getenv("MATBOT_ACTIVITY_DB"); v != "" {
		c.Storage.ActivityPath = v
	}
	if v := os.Getenv("MATBOT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("MATBOT_DEBUG_ENABLED"); v != "" {
		if v == "true" {
			c.Logging.DebugEnabled = true
		} else if v == "false" {
			c.Logging.DebugEnabled = false
		}
	}
	if v := os.Getenv("MATBOT_THINK_DELAY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Responder.ThinkDelayMS = ms
		}
	}
	if v := os.Getenv("MATBOT_RULES_FILE"); v != "" {
		c.Responder.RulesFile = v
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Server.Port < 1024 && os.Geteuid() != 0 {
		return fmt.Errorf("privileged port %d requires root", c.Server.Port)
	}
	if c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	if c.Responder.ThinkDelayMS < 0 {
		return fmt.Errorf("think delay must not be negative")
	}

	if c.Storage.UserDBPath == "" {
		return fmt.Errorf("user database path is required")
	}
	return nil
}
