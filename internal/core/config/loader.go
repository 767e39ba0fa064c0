package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/queryproxy/internal/cache"
	"github.com/vietddude/queryproxy/internal/retry"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Auth.TokenLifetimeMinutes == 0 {
		cfg.Auth.TokenLifetimeMinutes = 30
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = cache.DefaultTTL
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = retry.DefaultConfig.MaxAttempts
	}
	if cfg.Retry.InitialDelay == 0 {
		cfg.Retry.InitialDelay = retry.DefaultConfig.InitialDelay
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = retry.DefaultConfig.MaxDelay
	}
	if cfg.Retry.BackoffMultiple == 0 {
		cfg.Retry.BackoffMultiple = retry.DefaultConfig.BackoffMultiple
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required")
	}
	if c.Auth.Username == "" || c.Auth.PasswordHash == "" {
		return fmt.Errorf("auth.username and auth.password_hash are required")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	return nil
}
