// Package config provides YAML-based configuration loading for fdebot.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level fdebot configuration, loaded from fdebot.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Slack    SlackConfig    `yaml:"slack"`
	AI       AIConfig       `yaml:"ai"`
	Grouping GroupingConfig `yaml:"grouping"`
	Cache    CacheConfig    `yaml:"cache"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig holds connection settings for MySQL or SQLite.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "mysql" or "sqlite"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Path     string `yaml:"path"` // sqlite file path
}

// SlackConfig holds Slack API credentials.
type SlackConfig struct {
	BotToken      string `yaml:"bot_token"`
	SigningSecret string `yaml:"signing_secret"`
}

// AIConfig selects and configures the classification/embedding provider.
type AIConfig struct {
	Provider       string `yaml:"provider"` // "gemini" or "openai"
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model"`
	BaseURL        string `yaml:"base_url"` // override for tests/proxies
}

// GroupingConfig tunes the similarity matcher.
type GroupingConfig struct {
	WindowHours int                `yaml:"window_hours"`
	Thresholds  map[string]float64 `yaml:"thresholds"`
}

// CacheConfig controls the periodic cache sweep.
type CacheConfig struct {
	SweepInterval string `yaml:"sweep_interval"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Window returns the similarity candidate window as a duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.Grouping.WindowHours) * time.Hour
}

// SweepEvery returns the parsed cache sweep interval.
func (c *Config) SweepEvery() time.Duration {
	d, err := time.ParseDuration(c.Cache.SweepInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Name == "" {
		c.Database.Name = "fdebot"
	}
	if c.Database.Path == "" {
		c.Database.Path = "fdebot.db"
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "gemini"
	}
	if c.AI.Model == "" {
		switch c.AI.Provider {
		case "openai":
			c.AI.Model = "gpt-4o-mini"
		default:
			c.AI.Model = "gemini-2.0-flash"
		}
	}
	if c.AI.EmbeddingModel == "" {
		switch c.AI.Provider {
		case "openai":
			c.AI.EmbeddingModel = "text-embedding-3-small"
		default:
			c.AI.EmbeddingModel = "text-embedding-004"
		}
	}
	if c.Grouping.WindowHours == 0 {
		c.Grouping.WindowHours = 24
	}
	if c.Cache.SweepInterval == "" {
		c.Cache.SweepInterval = "1h"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (mysql, sqlite)", c.Database.Driver))
	}
	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Sprintf("ai.provider %q is not supported (gemini, openai)", c.AI.Provider))
	}
	if c.Cache.SweepInterval != "" {
		if _, err := time.ParseDuration(c.Cache.SweepInterval); err != nil {
			errs = append(errs, fmt.Sprintf("cache.sweep_interval %q is not a duration", c.Cache.SweepInterval))
		}
	}
	if c.Grouping.WindowHours < 0 {
		errs = append(errs, "grouping.window_hours must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
