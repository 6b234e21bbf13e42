// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration for the backend.
type Config struct {
	AppEnv    string
	LogLevel  string
	LogFormat string

	HTTPListenAddr string
	PublicBasePath string

	DatabaseBackend   string // "postgres" or "sqlite"
	DatabaseURL       string
	DatabaseSchema    string
	SQLitePath        string
	DBConnectAttempts int
	DBConnectBackoff  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool

	GatewayBaseURL   string
	GatewaySecretKey string
	GatewayTimeout   time.Duration
	GatewayQRTimeout time.Duration

	AdvisorBaseURL string
	AdvisorAPIKey  string
	AdvisorTimeout time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	MetricsNamespace string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		HTTPListenAddr: getEnv("HTTP_LISTEN_ADDR", ":8080"),
		PublicBasePath: getEnv("PUBLIC_BASE_PATH", ""),

		DatabaseBackend:   getEnv("DATABASE_BACKEND", "postgres"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DatabaseSchema:    getEnv("DATABASE_SCHEMA", ""),
		SQLitePath:        getEnv("SQLITE_DB_PATH", "./data/fincontrol.db"),
		DBConnectAttempts: getEnvInt("DB_CONNECT_ATTEMPTS", 3),
		DBConnectBackoff:  getEnvDuration("DB_CONNECT_BACKOFF", time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisTLS:      getEnvBool("REDIS_TLS", false),

		GatewayBaseURL:   getEnv("WHATSAPP_SERVICE_URL", "http://localhost:3000"),
		GatewaySecretKey: getEnv("WHATSAPP_SECRET_KEY", ""),
		GatewayTimeout:   getEnvDuration("WHATSAPP_TIMEOUT", 15*time.Second),
		GatewayQRTimeout: getEnvDuration("WHATSAPP_QR_TIMEOUT", 60*time.Second),

		AdvisorBaseURL: getEnv("ADVISOR_SERVICE_URL", ""),
		AdvisorAPIKey:  getEnv("ADVISOR_API_KEY", ""),
		AdvisorTimeout: getEnvDuration("ADVISOR_TIMEOUT", 30*time.Second),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),

		MetricsNamespace: getEnv("METRICS_NAMESPACE", "fincontrol"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var problems []string

	switch c.DatabaseBackend {
	case "postgres":
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required for the postgres backend")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			problems = append(problems, "SQLITE_DB_PATH is required for the sqlite backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid DATABASE_BACKEND %q: must be postgres or sqlite", c.DatabaseBackend))
	}

	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.DBConnectAttempts < 1 {
		problems = append(problems, "DB_CONNECT_ATTEMPTS must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
