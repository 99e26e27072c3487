// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	Token     string `yaml:"token"`      // static bearer token (dev/testing)
	TokenFile string `yaml:"token_file"` // read at call time; deleting it signs out
}

type PollConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type ThumbnailConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Width         int           `yaml:"width"`
	Height        int           `yaml:"height"`
	Quality       int           `yaml:"quality"`
	RenderTimeout time.Duration `yaml:"render_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type Config struct {
	API       APIConfig       `yaml:"api"`
	Auth      AuthConfig      `yaml:"auth"`
	Poll      PollConfig      `yaml:"poll"`
	Thumbnail ThumbnailConfig `yaml:"thumbnail"`
	Log       LogConfig       `yaml:"log"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// env override so tokens stay out of config files
	if t := os.Getenv("COURSEGEN_TOKEN"); t != "" {
		cfg.Auth.Token = t
	}
	if u := os.Getenv("COURSEGEN_API_URL"); u != "" {
		cfg.API.BaseURL = u
	}

	applyDefaults(&cfg)

	// Minimal validation
	if cfg.API.BaseURL == "" {
		return nil, errors.New("api.base_url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.Poll.Interval <= 0 {
		cfg.Poll.Interval = 5 * time.Second
	}
	if cfg.Poll.MaxAttempts <= 0 {
		cfg.Poll.MaxAttempts = 120
	}
	if cfg.Thumbnail.Width <= 0 {
		cfg.Thumbnail.Width = 800
	}
	if cfg.Thumbnail.Height <= 0 {
		cfg.Thumbnail.Height = 600
	}
	if cfg.Thumbnail.Quality <= 0 || cfg.Thumbnail.Quality > 100 {
		cfg.Thumbnail.Quality = 85
	}
	if cfg.Thumbnail.RenderTimeout <= 0 {
		cfg.Thumbnail.RenderTimeout = 20 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}
