package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Google      GoogleConfig
	Provider    ProviderConfig
	Quota       QuotaConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Log         LogConfig
	Tracing     TracingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig holds session token configuration
type AuthConfig struct {
	JWTSecret     string
	TokenLifetime time.Duration
}

// GoogleConfig holds identity provider configuration
type GoogleConfig struct {
	ClientID string
}

// ProviderConfig holds generation provider configuration
type ProviderConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// QuotaConfig holds daily quota configuration
type QuotaConfig struct {
	DailyLimit int
	// RetentionDays controls how long settled usage rows are kept
	// before the retention sweeper prunes them. Zero disables pruning.
	RetentionDays int
}

// RateLimitConfig holds transport-level rate limit configuration
type RateLimitConfig struct {
	GlobalRequests   int
	GlobalWindow     time.Duration
	OptimizeRequests int
	OptimizeWindow   time.Duration
	AuthRPS          int
	AuthBurst        int
}

// CORSConfig holds allowed origin configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// TracingConfig holds Jaeger tracing configuration
type TracingConfig struct {
	Enabled        bool
	JaegerEndpoint string
}

// Required configuration keys; a missing value is a fatal startup error.
var required = []string{
	"auth.jwt_secret",
	"google.client_id",
	"provider.api_key",
	"database.dbname",
	"database.user",
	"database.password",
}

// Load reads configuration from the environment, with an optional
// yaml file layered underneath.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	for _, key := range required {
		if v.GetString(key) == "" {
			return nil, fmt.Errorf("missing required configuration: %s", strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
		}
	}

	cfg := &Config{
		Environment: v.GetString("environment"),
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			Host:            v.GetString("server.host"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			DBName:   v.GetString("database.dbname"),
			SSLMode:  v.GetString("database.sslmode"),
			MaxConns: v.GetInt("database.max_conns"),
			MinConns: v.GetInt("database.min_conns"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("auth.jwt_secret"),
			TokenLifetime: v.GetDuration("auth.token_lifetime"),
		},
		Google: GoogleConfig{
			ClientID: v.GetString("google.client_id"),
		},
		Provider: ProviderConfig{
			APIKey:    v.GetString("provider.api_key"),
			BaseURL:   v.GetString("provider.base_url"),
			Model:     v.GetString("provider.model"),
			MaxTokens: v.GetInt("provider.max_tokens"),
			Timeout:   v.GetDuration("provider.timeout"),
		},
		Quota: QuotaConfig{
			DailyLimit:    v.GetInt("quota.daily_limit"),
			RetentionDays: v.GetInt("quota.retention_days"),
		},
		RateLimit: RateLimitConfig{
			GlobalRequests:   v.GetInt("ratelimit.global_requests"),
			GlobalWindow:     v.GetDuration("ratelimit.global_window"),
			OptimizeRequests: v.GetInt("ratelimit.optimize_requests"),
			OptimizeWindow:   v.GetDuration("ratelimit.optimize_window"),
			AuthRPS:          v.GetInt("ratelimit.auth_rps"),
			AuthBurst:        v.GetInt("ratelimit.auth_burst"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitOrigins(v.GetString("cors.allowed_origins")),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Tracing: TracingConfig{
			Enabled:        v.GetBool("tracing.enabled"),
			JaegerEndpoint: v.GetString("tracing.jaeger_endpoint"),
		},
	}

	if cfg.Quota.DailyLimit < 1 {
		return nil, fmt.Errorf("quota daily limit must be at least 1, got %d", cfg.Quota.DailyLimit)
	}

	if cfg.Quota.RetentionDays < 0 {
		return nil, fmt.Errorf("quota retention days must not be negative, got %d", cfg.Quota.RetentionDays)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 5)
	v.SetDefault("database.min_conns", 1)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Auth defaults
	v.SetDefault("auth.token_lifetime", "168h") // 7 days

	// Provider defaults
	v.SetDefault("provider.base_url", "https://api.openai.com/v1")
	v.SetDefault("provider.model", "gpt-4o")
	v.SetDefault("provider.max_tokens", 1024)
	v.SetDefault("provider.timeout", "60s")

	// Quota defaults
	v.SetDefault("quota.daily_limit", 100)
	v.SetDefault("quota.retention_days", 90)

	// Rate limit defaults
	v.SetDefault("ratelimit.global_requests", 200)
	v.SetDefault("ratelimit.global_window", "15m")
	v.SetDefault("ratelimit.optimize_requests", 20)
	v.SetDefault("ratelimit.optimize_window", "1m")
	v.SetDefault("ratelimit.auth_rps", 5)
	v.SetDefault("ratelimit.auth_burst", 10)

	// CORS defaults
	v.SetDefault("cors.allowed_origins", "http://localhost:3000")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.jaeger_endpoint", "http://localhost:14268/api/traces")
}

func splitOrigins(s string) []string {
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
