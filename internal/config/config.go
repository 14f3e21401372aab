package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// devJWTSecret signs tokens in dev/test when JWT_SECRET is unset, so the API
// and clocktrackctl agree without extra setup.
const devJWTSecret = "clocktrack-dev-secret"

type Config struct {
	Env      string `yaml:"env"`
	Port     int    `yaml:"port"`
	Store    string `yaml:"store"`     // postgres|memory
	LogLevel string `yaml:"log_level"` // empty: debug in dev, info elsewhere

	DBURL      string `yaml:"db_url"`
	DBMaxConns int32  `yaml:"db_max_conns"`

	JWTSecret           string `yaml:"jwt_secret"`
	JWTAccessTTLMinutes int    `yaml:"jwt_access_ttl_minutes"`

	RedisAddr              string `yaml:"redis_addr"`
	RedisPassword          string `yaml:"redis_password"`
	RedisDB                int    `yaml:"redis_db"`
	RunningCacheTTLSeconds int    `yaml:"running_cache_ttl_seconds"`

	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
	MaxBodyBytes       int64    `yaml:"max_body_bytes"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	OTelEnabled     bool    `yaml:"otel_enabled"`
	OTelEndpoint    string  `yaml:"otel_endpoint"`
	OTelSampleRatio float64 `yaml:"otel_sample_ratio"`

	MigrateOnStart bool `yaml:"migrate_on_start"`

	SeedUserEmail    string `yaml:"seed_user_email"`
	SeedUserPassword string `yaml:"seed_user_password"`
	SeedUserName     string `yaml:"seed_user_name"`
}

func Default() Config {
	return Config{
		Env:                    "dev",
		Port:                   8080,
		Store:                  "postgres",
		DBMaxConns:             5,
		JWTAccessTTLMinutes:    60,
		RunningCacheTTLSeconds: 5,
		RateLimitPerMinute:     120,
		MaxBodyBytes:           1 << 20,
		OTelEndpoint:           "localhost:4317",
		MigrateOnStart:         true,
		SeedUserName:           "Demo User",
	}
}

// Load layers configuration: defaults, then the YAML file named by
// CONFIG_FILE, then environment variables (a .env file is loaded first).
func Load() (Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()

	if cfg.JWTSecret == "" && cfg.IsLocal() {
		slog.Warn("config: JWT_SECRET not set, using the local development secret")
		cfg.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	return nil
}

func (c *Config) applyEnv() {
	c.Env = getEnv("APP_ENV", c.Env)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Port = getEnvInt("PORT", c.Port)
	c.Store = getEnv("STORE", c.Store)

	c.DBURL = getEnv("DATABASE_URL", c.DBURL)
	if c.DBURL == "" || os.Getenv("DB_HOST") != "" {
		c.DBURL = buildDBURL()
	}
	c.DBMaxConns = int32(getEnvInt("DB_MAX_CONNS", int(c.DBMaxConns)))

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTAccessTTLMinutes = getEnvInt("JWT_ACCESS_TTL_MINUTES", c.JWTAccessTTLMinutes)

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.RunningCacheTTLSeconds = getEnvInt("RUNNING_CACHE_TTL_SECONDS", c.RunningCacheTTLSeconds)

	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(c.MaxBodyBytes)))
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORSAllowedOrigins = splitList(v)
	}

	c.OTelEnabled = getEnvBool("OTEL_ENABLED", c.OTelEnabled)
	c.OTelEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTelEndpoint)
	c.OTelSampleRatio = getEnvFloat("OTEL_TRACES_SAMPLER_ARG", c.OTelSampleRatio)

	c.MigrateOnStart = getEnvBool("MIGRATE_ON_START", c.MigrateOnStart)

	c.SeedUserEmail = getEnv("SEED_USER_EMAIL", c.SeedUserEmail)
	c.SeedUserPassword = getEnv("SEED_USER_PASSWORD", c.SeedUserPassword)
	c.SeedUserName = getEnv("SEED_USER_NAME", c.SeedUserName)
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}

	switch c.Store {
	case "postgres", "memory":
	default:
		return fmt.Errorf("store must be postgres or memory, got %q", c.Store)
	}

	if c.JWTSecret == "" && !c.IsLocal() {
		return errors.New("JWT_SECRET is required outside dev/test")
	}

	if c.JWTAccessTTLMinutes <= 0 {
		return errors.New("jwt access ttl must be positive")
	}

	if c.RateLimitPerMinute < 0 || c.MaxBodyBytes <= 0 {
		return errors.New("rate limit and max body bytes must not be negative")
	}

	if c.OTelSampleRatio < 0 || c.OTelSampleRatio > 1 {
		return fmt.Errorf("otel sample ratio %v outside [0, 1]", c.OTelSampleRatio)
	}

	return nil
}

func (c Config) IsLocal() bool {
	return c.Env == "dev" || c.Env == "test"
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c Config) RunningCacheTTL() time.Duration {
	return time.Duration(c.RunningCacheTTLSeconds) * time.Second
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "clocktrack")
	pass := getEnv("DB_PASSWORD", "clocktrack")
	name := getEnv("DB_NAME", "clocktrack")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

// WithTimeoutFrom bounds a request-scoped context, keeping its values and span.
func WithTimeoutFrom(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("config: ignoring non-integer value", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("config: ignoring non-numeric value", "key", key, "value", v)
			return fallback
		}
		return f
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("config: ignoring non-boolean value", "key", key, "value", v)
			return fallback
		}
		return b
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
