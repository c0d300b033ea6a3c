package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the admin auth service.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host      string              `yaml:"host"`
	Port      int                 `yaml:"port"`
	LoginPath string              `yaml:"login_path"`
	Timeouts  ServerTimeoutConfig `yaml:"timeouts"`
	CORS      CORSConfig          `yaml:"cors"`
}

// ServerTimeoutConfig contains HTTP timeout settings, in seconds.
type ServerTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// RedisConfig contains the connection settings for the remember-me token store.
// When disabled, an in-memory store is used instead.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig contains the RSA key pair and token lifetimes.
//
// Keys may be given inline as PEM blocks (PrivateKey/PublicKey) or as file
// paths (PrivateKeyFile/PublicKeyFile). Inline values win when both are set.
type JWTConfig struct {
	PrivateKey     string `yaml:"private_key"`
	PublicKey      string `yaml:"public_key"`
	PrivateKeyFile string `yaml:"private_key_file"`
	PublicKeyFile  string `yaml:"public_key_file"`

	// AccessTokenTTL is the access token lifetime in seconds.
	AccessTokenTTL int64 `yaml:"access_token_ttl"`

	// RefreshTokenTTL is the refresh token lifetime in seconds. Any request
	// inside this window can mint a fresh pair, so sessions roll forward
	// indefinitely while active.
	RefreshTokenTTL int64 `yaml:"refresh_token_ttl"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ADMINAUTH_SECTION_KEY
// For example: ADMINAUTH_DATABASE_PATH, ADMINAUTH_REDIS_ADDR
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default token lifetimes, matching the admin backend's session policy.
const (
	defaultAccessTokenTTL  = 30 * 60           // 30 minutes
	defaultRefreshTokenTTL = 7 * 24 * 60 * 60  // 7 days
)

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			LoginPath: "/api/v1/auth/login",
			Timeouts: ServerTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/adminauth.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
		},
		JWT: JWTConfig{
			AccessTokenTTL:  defaultAccessTokenTTL,
			RefreshTokenTTL: defaultRefreshTokenTTL,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ADMINAUTH_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("ADMINAUTH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("ADMINAUTH_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("ADMINAUTH_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("ADMINAUTH_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	// Keys are secrets: environment wins over anything in the file.
	if v := os.Getenv("ADMINAUTH_JWT_PRIVATE_KEY"); v != "" {
		cfg.JWT.PrivateKey = v
	}
	if v := os.Getenv("ADMINAUTH_JWT_PUBLIC_KEY"); v != "" {
		cfg.JWT.PublicKey = v
	}
	if v := os.Getenv("ADMINAUTH_JWT_PRIVATE_KEY_FILE"); v != "" {
		cfg.JWT.PrivateKeyFile = v
	}
	if v := os.Getenv("ADMINAUTH_JWT_PUBLIC_KEY_FILE"); v != "" {
		cfg.JWT.PublicKeyFile = v
	}
}

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if !strings.HasPrefix(c.Server.LoginPath, "/") {
		errs = append(errs, "server.login_path must start with /")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis.addr is required when redis is enabled")
	}

	// The RSA key pair is REQUIRED. Without it no token can be issued or
	// verified, and a missing key must never degrade into unsigned tokens.
	if c.JWT.PrivateKey == "" && c.JWT.PrivateKeyFile == "" {
		errs = append(errs, "jwt.private_key or jwt.private_key_file is required")
	}
	if c.JWT.PublicKey == "" && c.JWT.PublicKeyFile == "" {
		errs = append(errs, "jwt.public_key or jwt.public_key_file is required")
	}

	if c.JWT.AccessTokenTTL <= 0 {
		errs = append(errs, "jwt.access_token_ttl must be positive")
	}
	if c.JWT.RefreshTokenTTL <= 0 {
		errs = append(errs, "jwt.refresh_token_ttl must be positive")
	}
	if c.JWT.RefreshTokenTTL < c.JWT.AccessTokenTTL {
		errs = append(errs, "jwt.refresh_token_ttl must not be shorter than jwt.access_token_ttl")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// PrivateKeyPEM returns the PEM-encoded private key, reading the key file
// when no inline value is configured.
func (c *JWTConfig) PrivateKeyPEM() ([]byte, error) {
	return keyPEM(c.PrivateKey, c.PrivateKeyFile, "private")
}

// PublicKeyPEM returns the PEM-encoded public key, reading the key file
// when no inline value is configured.
func (c *JWTConfig) PublicKeyPEM() ([]byte, error) {
	return keyPEM(c.PublicKey, c.PublicKeyFile, "public")
}

func keyPEM(inline, file, kind string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s key file: %w", kind, err)
	}
	return data, nil
}

// GetReadTimeout returns the server read timeout as a Duration.
func (c ServerConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the server write timeout as a Duration.
func (c ServerConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the server idle timeout as a Duration.
func (c ServerConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
