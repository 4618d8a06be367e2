// Package config provides the configuration for the fitauth service.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (explicit path, FITAUTH_CONFIG, ./config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import (
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the fitauth service.
type Config struct {
	Environment string         `yaml:"environment"` // default: "development"
	Server      ServerConfig   `yaml:"server"`
	Auth        AuthConfig     `yaml:"auth"`
	Database    DatabaseConfig `yaml:"database"`
	Log         LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`             // default: ""
	Port            int           `yaml:"port"`             // default: 5000
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
}

// AuthConfig holds token settings.
type AuthConfig struct {
	// Secret is the HS256 signing secret. Leaving it empty is allowed, every
	// authenticated request then fails as a server configuration error.
	Secret        string            `yaml:"secret"`
	SecretFile    string            `yaml:"secret_file"`  // _file variant for secret
	SigningKeys   map[string]string `yaml:"signing_keys"` // kid -> secret, for rotation
	Issuer        string            `yaml:"issuer"`
	Audience      []string          `yaml:"audience"`
	TokenTTL      time.Duration     `yaml:"token_ttl"`      // default: 24h
	LookupTimeout time.Duration     `yaml:"lookup_timeout"` // default: 5s
	TokenLookup   string            `yaml:"token_lookup"`   // default: "header:Authorization"
	AuthScheme    string            `yaml:"auth_scheme"`    // default: "Bearer"
	// HashUserIDs derives new user ids from the email instead of a random uuid
	HashUserIDs bool `yaml:"hash_user_ids"`
}

// DatabaseConfig holds the user store connection settings.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // "sqlite" or "postgres", default: "sqlite"
	DSN             string        `yaml:"dsn"`
	DSNFile         string        `yaml:"dsn_file"` // _file variant for dsn
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	PingTimeout     time.Duration `yaml:"ping_timeout"` // default: 5s
	MigrateOnStart  bool          `yaml:"migrate_on_start"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error. default: info
	Format string `yaml:"format"` // text or json. default: text
}

// Defaults returns a Config populated with built-in defaults.
func Defaults() Config {
	return Config{
		Environment: "development",
		Server: ServerConfig{
			Port:            5000,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL:      24 * time.Hour,
			LookupTimeout: 5 * time.Second,
			TokenLookup:   "header:Authorization",
			AuthScheme:    "Bearer",
		},
		Database: DatabaseConfig{
			Driver:         "sqlite",
			DSN:            "file:fitauth.db?cache=shared",
			MaxOpenConns:   10,
			MaxIdleConns:   5,
			PingTimeout:    5 * time.Second,
			MigrateOnStart: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// IsProduction reports whether internal error details must be hidden
func (c *Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "production", "prod":
		return true
	default:
		return false
	}
}

// Addr is the listen address
func (s ServerConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}
