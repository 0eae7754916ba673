// FILE: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Dev       bool   `yaml:"dev"`
	RateLimit int    `yaml:"rate_limit"` // requests per second per IP
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite3 or postgres
	DSN    string `yaml:"dsn"`
}

type CacheConfig struct {
	Backend  string        `yaml:"backend"` // memory or redis
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

type CleanupConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Retention time.Duration `yaml:"retention"`
}

// Config is the server configuration. Values come from defaults, then an
// optional YAML file, then TTT_* environment variables.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
	Cleanup CleanupConfig `yaml:"cleanup"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "localhost",
			Port:      8080,
			RateLimit: 10,
		},
		Storage: StorageConfig{
			Driver: "sqlite3",
			DSN:    "tictactoe.db",
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     30 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Cleanup: CleanupConfig{
			Interval:  time.Hour,
			Retention: 30 * 24 * time.Hour,
		},
	}
}

// Load reads path (skipped when empty) and applies environment overrides
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error

	setString(&c.Server.Host, "TTT_HOST")
	errs = append(errs, setInt(&c.Server.Port, "TTT_PORT"))
	errs = append(errs, setBool(&c.Server.Dev, "TTT_DEV"))
	errs = append(errs, setInt(&c.Server.RateLimit, "TTT_RATE_LIMIT"))

	setString(&c.Storage.Driver, "TTT_STORAGE_DRIVER")
	setString(&c.Storage.DSN, "TTT_STORAGE_DSN")
	if v := getenv("DATABASE_URL"); v != "" && getenv("TTT_STORAGE_DSN") == "" {
		c.Storage.Driver = "postgres"
		c.Storage.DSN = v
	}

	setString(&c.Cache.Backend, "TTT_CACHE_BACKEND")
	setString(&c.Cache.RedisURL, "TTT_REDIS_URL")
	errs = append(errs, setDuration(&c.Cache.TTL, "TTT_CACHE_TTL"))

	setString(&c.Auth.JWTSecret, "TTT_JWT_SECRET")
	errs = append(errs, setDuration(&c.Auth.TokenTTL, "TTT_TOKEN_TTL"))

	setString(&c.Log.Level, "TTT_LOG_LEVEL")
	setString(&c.Log.Format, "TTT_LOG_FORMAT")

	errs = append(errs, setDuration(&c.Cleanup.Interval, "TTT_CLEANUP_INTERVAL"))
	errs = append(errs, setDuration(&c.Cleanup.Retention, "TTT_RETENTION"))

	return errors.Join(errs...)
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit must be positive"))
	}

	switch c.Storage.Driver {
	case "sqlite", "sqlite3", "postgres":
	default:
		errs = append(errs, fmt.Errorf("storage.driver unsupported: %q", c.Storage.Driver))
	}
	if strings.TrimSpace(c.Storage.DSN) == "" {
		errs = append(errs, fmt.Errorf("storage.dsn is required"))
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Cache.RedisURL) == "" {
			errs = append(errs, fmt.Errorf("cache.redis_url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend unsupported: %q", c.Cache.Backend))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive"))
	}

	if !c.Server.Dev && c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least 32 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be positive"))
	}

	if c.Cleanup.Interval <= 0 || c.Cleanup.Retention <= 0 {
		errs = append(errs, fmt.Errorf("cleanup interval and retention must be positive"))
	}

	return errors.Join(errs...)
}

// Addr returns host:port for the API listener
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getenv(k string) string {
	return strings.TrimSpace(os.Getenv(k))
}

func setString(dst *string, key string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
