// Package config loads the server configuration from a YAML file, with
// ${ENV_VAR} placeholder expansion and sensible defaults for anything
// left unset.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`

	Workers struct {
		ProtectedFields []string `yaml:"protected_fields"`
	} `yaml:"workers"`

	Admin struct {
		Token string `yaml:"token"`
	} `yaml:"admin"`

	Rollover struct {
		Enabled            bool `yaml:"enabled"`
		CheckIntervalHours int  `yaml:"check_interval_hours"`
	} `yaml:"rollover"`
}

// Load reads path (default configs/config.yaml). A missing file yields
// an all-defaults configuration so the binary runs out of the box.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	var cfg Config
	cfg.Rollover.Enabled = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		// Support ${ENV_VAR} placeholders in YAML config.
		data = []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/absence.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if dir := filepath.Dir(cfg.Database.Path); dir != "." && cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// RolloverCheckInterval returns the scheduler check interval, defaulting
// to one hour.
func (c *Config) RolloverCheckInterval() time.Duration {
	if c.Rollover.CheckIntervalHours <= 0 {
		return time.Hour
	}
	return time.Duration(c.Rollover.CheckIntervalHours) * time.Hour
}
