package config

import (
	"github.com/vietddude/queryproxy/internal/cache"
	"github.com/vietddude/queryproxy/internal/executor"
	"github.com/vietddude/queryproxy/internal/retry"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig    `yaml:"server"`
	Auth     AuthConfig      `yaml:"auth"`
	Database executor.Config `yaml:"database"`
	Cache    cache.Config    `yaml:"cache"`
	Retry    retry.Config    `yaml:"retry"`
	History  HistoryConfig   `yaml:"history"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// AuthConfig holds the signing key, token lifetime and the single principal.
type AuthConfig struct {
	Secret               string `yaml:"secret"`
	TokenLifetimeMinutes int    `yaml:"token_lifetime_minutes"`
	Username             string `yaml:"username"`
	PasswordHash         string `yaml:"password_hash"` // bcrypt
}

// HistoryConfig controls the query history log.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
