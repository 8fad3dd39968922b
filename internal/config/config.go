package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultFile = "config.yaml"

type Config struct {
	HTTPAddr     string         `yaml:"http_addr"`
	GRPCAddr     string         `yaml:"grpc_addr"`
	Database     DatabaseConfig `yaml:"database"`
	Redis        RedisConfig    `yaml:"redis"`
	Auth         AuthConfig     `yaml:"auth"`
	ViewCacheTTL time.Duration  `yaml:"view_cache_ttl"`
	CORSOrigins  []string       `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type AuthConfig struct {
	Secret       string        `yaml:"secret"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		GRPCAddr: ":50051",
		Database: DatabaseConfig{
			Driver:          "mysql",
			URL:             "root:root@tcp(localhost:3306)/invoices?parseTime=true",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 20,
		},
		Auth: AuthConfig{
			SessionTTL: 24 * time.Hour,
		},
		ViewCacheTTL: 5 * time.Minute,
		CORSOrigins:  []string{"http://localhost:3000"},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (CONFIG_FILE or config.yaml when path is empty; a missing file is skipped),
// then .env and the process environment. It does not validate the result.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] failed to load .env: %v", err)
	}

	if path == "" {
		path = getenvDefault("CONFIG_FILE", defaultFile)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.GRPCAddr = getenvDefault("GRPC_ADDR", cfg.GRPCAddr)
	cfg.Database.Driver = getenvDefault("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.URL = getenvDefault("DATABASE_URL", cfg.Database.URL)
	cfg.Redis.Addr = getenvDefault("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getenvDefault("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Auth.Secret = getenvDefault("AUTH_SECRET", cfg.Auth.Secret)

	var err error
	if cfg.Auth.SessionTTL, err = durationEnv("SESSION_TTL", cfg.Auth.SessionTTL); err != nil {
		return err
	}
	if cfg.ViewCacheTTL, err = durationEnv("VIEW_CACHE_TTL", cfg.ViewCacheTTL); err != nil {
		return err
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		cfg.Auth.SecureCookie = secure
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	return nil
}

// Validate checks what the server needs to start.
func (c Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "mysql", "postgres", "postgresql", "pgx":
	default:
		return fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Auth.Secret == "" {
		return errors.New("auth.secret is required (AUTH_SECRET)")
	}
	if c.HTTPAddr == "" {
		return errors.New("http_addr is required")
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
