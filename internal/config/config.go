package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"gopkg.in/yaml.v3"

	"github.com/restro-hq/restro-server/pkg/crypto"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	License  LicenseConfig  `yaml:"license"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"` // development | production
}

// APIConfig represents API configuration
type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// NATSConfig represents NATS configuration
type NATSConfig struct {
	URL               string        `yaml:"url"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	MaxReconnects     int           `yaml:"max_reconnects"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

// JWTConfig represents JWT configuration
type JWTConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SeedKey is a product key pre-seeded into the database with its plan tier
type SeedKey struct {
	Key  string `yaml:"key"`
	Plan string `yaml:"plan"`
}

// LicenseConfig represents product key licensing configuration.
// ValidKeys is the allow-list consulted before any database lookup;
// Seed lists keys inserted at startup together with their plan tiers.
type LicenseConfig struct {
	ValidKeys []string  `yaml:"valid_keys"`
	Seed      []SeedKey `yaml:"seed"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Allow secrets to come from the environment
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.setDefaults()

	return cfg, nil
}

// setDefaults fills in default values
func (c *Config) setDefaults() {
	if c.Server.Name == "" {
		c.Server.Name = "restro-server"
	}
	if c.Server.Environment == "" {
		c.Server.Environment = "development"
	}
	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 5 * time.Minute
	}
	if c.NATS.MaxReconnects == 0 {
		c.NATS.MaxReconnects = 10
	}
	if c.NATS.ReconnectInterval == 0 {
		c.NATS.ReconnectInterval = 5 * time.Second
	}
	if c.JWT.TokenTTL == 0 {
		c.JWT.TokenTTL = 7 * 24 * time.Hour
	}
	if c.JWT.Secret == "" {
		// A random secret keeps the server usable but invalidates
		// every session on restart
		secret, err := crypto.GenerateRandomString(32)
		if err == nil {
			c.JWT.Secret = secret
			log.Warn().Msg("JWT secret not configured, generated a random one")
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// IsProduction reports whether the server runs in production mode.
// Controls the Secure flag on session cookies.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
