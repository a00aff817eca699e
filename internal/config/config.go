// Package config provides YAML-based configuration loading for TreinoAI.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level TreinoAI configuration, loaded from treinoai.yaml.
type Config struct {
	Owner     string          `yaml:"owner"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Feed      FeedConfig      `yaml:"feed"`
	Assistant AssistantConfig `yaml:"assistant"`
	Outbound  OutboundConfig  `yaml:"outbound"`
	Digest    DigestConfig    `yaml:"digest"`
}

// ServerConfig holds HTTP listener settings. The webhook port is the public
// surface the workflow engine posts to; the ops port serves the monitoring API.
type ServerConfig struct {
	WebhookPort int `yaml:"webhook_port"`
	OpsPort     int `yaml:"ops_port"`
}

// DatabaseConfig holds connection settings for the coaching database.
// Driver is "mysql" (host/port/database) or "sqlite" (path).
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Path     string `yaml:"path"`
}

// FeedConfig tunes the change-feed poller and the notification ring.
type FeedConfig struct {
	PollIntervalSec int `yaml:"poll_interval_sec"`
	RingCapacity    int `yaml:"ring_capacity"`
}

// AssistantConfig configures reply generation.
type AssistantConfig struct {
	Model        string `yaml:"model"`
	APIKeyEnv    string `yaml:"api_key_env"`
	HistoryTurns int    `yaml:"history_turns"`
	MaxTokens    int    `yaml:"max_tokens"`
	SystemPrompt string `yaml:"system_prompt"`
	FallbackText string `yaml:"fallback_text"`
}

// OutboundConfig points at the workflow engine endpoint that forwards
// replies to WhatsApp.
type OutboundConfig struct {
	URL        string `yaml:"url"`
	Token      string `yaml:"token"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// DigestConfig controls the daily operational digest.
type DigestConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Cron      string `yaml:"cron"`
	Recipient string `yaml:"recipient"`
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

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.WebhookPort == 0 {
		c.Server.WebhookPort = 8080
	}
	if c.Server.OpsPort == 0 {
		c.Server.OpsPort = 8081
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Database == "" && c.Owner != "" {
		c.Database.Database = "treinoai_" + c.Owner
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Feed.PollIntervalSec == 0 {
		c.Feed.PollIntervalSec = 5
	}
	if c.Feed.RingCapacity == 0 {
		c.Feed.RingCapacity = 5
	}
	if c.Assistant.Model == "" {
		c.Assistant.Model = "gemini-2.5-flash"
	}
	if c.Assistant.APIKeyEnv == "" {
		c.Assistant.APIKeyEnv = "GEMINI_API_KEY"
	}
	if c.Assistant.HistoryTurns == 0 {
		c.Assistant.HistoryTurns = 5
	}
	if c.Assistant.MaxTokens == 0 {
		c.Assistant.MaxTokens = 1024
	}
	if c.Assistant.FallbackText == "" {
		c.Assistant.FallbackText = "Recebi sua mensagem! Em instantes seu treinador responde por aqui."
	}
	if c.Outbound.TimeoutSec == 0 {
		c.Outbound.TimeoutSec = 10
	}
	if c.Digest.Cron == "" {
		c.Digest.Cron = "0 7 * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Owner == "" {
		errs = append(errs, "owner is required")
	}
	switch c.Database.Driver {
	case "mysql":
		if c.Database.Database == "" {
			errs = append(errs, "database.database is required for mysql")
		}
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for sqlite")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver must be mysql or sqlite, got %q", c.Database.Driver))
	}
	if c.Outbound.URL == "" {
		errs = append(errs, "outbound.url is required")
	}
	if c.Digest.Enabled && c.Digest.Recipient == "" {
		errs = append(errs, "digest.recipient is required when digest is enabled")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
