package etl

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/ecfr/etl/internal/fetch"
)

// Config holds the full application configuration.
type Config struct {
	BaseURL        string     `yaml:"base_url"`
	DBPath         string     `yaml:"db_path"`
	Listen         string     `yaml:"listen"`
	UserAgent      string     `yaml:"user_agent"`
	TimeoutSeconds int        `yaml:"timeout_seconds"`
	MaxAttempts    int        `yaml:"max_attempts"`
	Titles         TitleRange `yaml:"titles"`
}

// TitleRange selects which CFR titles the orchestrator ingests. Titles in
// Skip are left out; the source deliberately skips title 35, which is policy
// carried here as configuration, not a core rule.
type TitleRange struct {
	From int   `yaml:"from"`
	To   int   `yaml:"to"`
	Skip []int `yaml:"skip"`
}

// Includes reports whether title n falls inside the range and is not skipped.
func (t TitleRange) Includes(n int) bool {
	if n < t.From || n > t.To {
		return false
	}
	for _, s := range t.Skip {
		if s == n {
			return false
		}
	}
	return true
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        fetch.DefaultBaseURL,
		DBPath:         "data/cfr.db",
		Listen:         ":8089",
		TimeoutSeconds: 30,
		MaxAttempts:    3,
		Titles:         TitleRange{From: 1, To: 50, Skip: []int{35}},
	}
}

// LoadConfig reads and parses a YAML config file. Returns DefaultConfig
// merged with the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be > 0")
	}
	if c.Titles.From <= 0 || c.Titles.To < c.Titles.From {
		return fmt.Errorf("titles range %d..%d is invalid", c.Titles.From, c.Titles.To)
	}
	return nil
}

func (c *Config) fetchConfig() fetch.Config {
	return fetch.Config{
		Timeout:     time.Duration(c.TimeoutSeconds) * time.Second,
		UserAgent:   c.UserAgent,
		MaxAttempts: c.MaxAttempts,
	}
}
