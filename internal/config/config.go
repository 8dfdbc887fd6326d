// Package config loads application configuration from the environment, with
// an optional YAML file override for deployments that ship a config file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string `env:"SERVER_HOST,default=0.0.0.0" yaml:"host"`
	Port            int    `env:"SERVER_PORT,default=8080" yaml:"port"`
	ReadTimeout     int    `env:"SERVER_READ_TIMEOUT,default=15" yaml:"read_timeout"`
	WriteTimeout    int    `env:"SERVER_WRITE_TIMEOUT,default=15" yaml:"write_timeout"`
	IdleTimeout     int    `env:"SERVER_IDLE_TIMEOUT,default=60" yaml:"idle_timeout"`
	ShutdownTimeout int    `env:"SERVER_SHUTDOWN_TIMEOUT,default=10" yaml:"shutdown_timeout"`
}

// DatabaseConfig controls the SQL connection pool.
type DatabaseConfig struct {
	Driver          string `env:"DATABASE_DRIVER,default=postgres" yaml:"driver"`
	DSN             string `env:"DATABASE_DSN" yaml:"dsn"`
	MaxOpenConns    int    `env:"DATABASE_MAX_OPEN_CONNS,default=25" yaml:"max_open_conns"`
	MaxIdleConns    int    `env:"DATABASE_MAX_IDLE_CONNS,default=5" yaml:"max_idle_conns"`
	ConnMaxLifetime int    `env:"DATABASE_CONN_MAX_LIFETIME,default=300" yaml:"conn_max_lifetime"`
	AutoMigrate     bool   `env:"DATABASE_AUTO_MIGRATE,default=false" yaml:"auto_migrate"`
}

// AuthConfig controls token issuance. Lifetimes are minutes for access
// tokens and hours for refresh tokens.
type AuthConfig struct {
	Secret           string `env:"AUTH_SECRET" yaml:"secret"`
	AccessTTLMinutes int    `env:"AUTH_ACCESS_TTL_MINUTES,default=60" yaml:"access_ttl_minutes"`
	RefreshTTLHours  int    `env:"AUTH_REFRESH_TTL_HOURS,default=72" yaml:"refresh_ttl_hours"`
	BcryptCost       int    `env:"AUTH_BCRYPT_COST,default=10" yaml:"bcrypt_cost"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level      string `env:"LOG_LEVEL,default=info" yaml:"level"`
	Format     string `env:"LOG_FORMAT,default=json" yaml:"format"`
	Output     string `env:"LOG_OUTPUT,default=stdout" yaml:"output"`
	FilePrefix string `env:"LOG_FILE_PREFIX,default=delivery" yaml:"file_prefix"`
}

// RateLimitConfig controls the per-client request limiter.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED,default=true" yaml:"enabled"`
	RequestsPerSecond int  `env:"RATE_LIMIT_RPS,default=20" yaml:"requests_per_second"`
	Burst             int  `env:"RATE_LIMIT_BURST,default=40" yaml:"burst"`
}

// CORSConfig controls browser cross-origin access.
type CORSConfig struct {
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS,default=*" yaml:"allowed_origins"`
}

// Origins returns the configured origins as a slice.
func (c CORSConfig) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// Load reads configuration from the environment. If CONFIG_FILE points at a
// YAML file, values present in the file override the environment.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envdecode.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.Secret == "" {
		return fmt.Errorf("AUTH_SECRET is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Auth.AccessTTLMinutes <= 0 {
		return fmt.Errorf("access token lifetime must be positive")
	}
	if c.Auth.RefreshTTLHours <= 0 {
		return fmt.Errorf("refresh token lifetime must be positive")
	}
	return nil
}
