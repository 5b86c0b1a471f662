package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when no -config flag is given.
const DefaultConfigPath = "config.yaml"

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int            `yaml:"port"`
	DSN            string         `yaml:"dsn"` // MySQL DSN
	Database       DatabaseConfig `yaml:"database"`
	RedisURL       string         `yaml:"redis_url"`
	Env            string         `yaml:"env"` // "development" | "production"
	AllowedOrigins []string       `yaml:"allowed_origins"`
	JWTSecret      string         `yaml:"jwt_secret"`
	AI             AIConfig       `yaml:"ai"`
	Backup         BackupConfig   `yaml:"backup"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// AIConfig configures the explanation provider chain. Providers are tried in
// list order; disabled or key-less entries are skipped.
type AIConfig struct {
	Providers      []AIProvider `yaml:"providers"`
	TimeoutSeconds int          `yaml:"timeout_seconds"`
}

type AIProvider struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Type         string `yaml:"type"` // openai | anthropic | openai-compatible
	APIKey       string `yaml:"api_key"`
	Endpoint     string `yaml:"endpoint,omitempty"`
	DefaultModel string `yaml:"default_model"`
	Enabled      bool   `yaml:"enabled"`
}

// BackupConfig controls the S3 dump of the question bank and leaderboard.
type BackupConfig struct {
	Enable          bool   `yaml:"enable"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	PathStyleAccess bool   `yaml:"path_style_access"`
	Prefix          string `yaml:"prefix"`
}

// Load reads the YAML config file and applies defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	if cfg.DSN == "" {
		return nil, fmt.Errorf("config: dsn or database section is required")
	}
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = 3000
	}
	if c.Env == "" {
		c.Env = "production"
	}
	if c.RedisURL == "" {
		c.RedisURL = "redis://localhost:6379/0"
	}
	if c.DSN == "" {
		c.DSN = c.Database.buildDSN()
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = 5
	}
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "development") ||
		strings.EqualFold(strings.TrimSpace(c.Env), "dev")
}

// ExplainTimeout is the per-provider-call deadline.
func (c *AppConfig) ExplainTimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

func (d DatabaseConfig) buildDSN() string {
	if d.Host == "" || d.Name == "" {
		return ""
	}
	port := d.Port
	if port == 0 {
		port = 3306
	}
	user := d.User
	if user == "" {
		user = "root"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, d.Password, d.Host, port, d.Name)
}

// HasUsableKey reports whether the provider carries a real API key. Keys left
// as documentation placeholders ("your_openai_api_key_here" and friends) are
// treated as unset, so the provider is skipped without a network call.
func (p AIProvider) HasUsableKey() bool {
	key := strings.TrimSpace(p.APIKey)
	if key == "" {
		return false
	}
	lower := strings.ToLower(key)
	if strings.HasPrefix(lower, "your_") && strings.HasSuffix(lower, "_here") {
		return false
	}
	return lower != "changeme"
}
