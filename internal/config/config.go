package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Port        string
	LogLevel    slog.Level

	Database DatabaseConfig
	RedisURL string

	Casdoor CasdoorConfig
	Kafka   KafkaConfig

	CORSAllowedOrigins []string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// DSN returns DATABASE_URL when set, otherwise builds one from the discrete settings
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string
}

// Enabled reports whether events should go to Kafka instead of the in-process channel
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// LoadConfig reads .env (if present) and the process environment
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	logLevel, err := parseLogLevel(GetEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	maxOpen, err := getEnvInt("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, err
	}
	maxIdle, err := getEnvInt("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return nil, err
	}
	lifetime, err := time.ParseDuration(GetEnv("DB_CONN_MAX_LIFETIME", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	cfg := &Config{
		Environment: GetEnv("ENVIRONMENT", "development"),
		Port:        GetEnv("PORT", "8080"),
		LogLevel:    logLevel,
		Database: DatabaseConfig{
			URL:             GetEnv("DATABASE_URL"),
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD"),
			Name:            GetEnv("DB_NAME", "form_service"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    maxOpen,
			MaxIdleConns:    maxIdle,
			ConnMaxLifetime: lifetime,
			AutoMigrate:     GetEnv("DB_AUTO_MIGRATE", "true") == "true",
		},
		RedisURL: GetEnv("REDIS_URL"),
		Casdoor: CasdoorConfig{
			Endpoint:     GetEnv("CASDOOR_ENDPOINT"),
			ClientID:     GetEnv("CASDOOR_CLIENT_ID"),
			ClientSecret: GetEnv("CASDOOR_CLIENT_SECRET"),
			Cert:         GetEnv("CASDOOR_CERT"),
			Organization: GetEnv("CASDOOR_ORGANIZATION"),
			Application:  GetEnv("CASDOOR_APPLICATION"),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(GetEnv("KAFKA_BROKERS")),
			TopicPrefix: GetEnv("KAFKA_TOPIC_PREFIX", "lms."),
		},
		CORSAllowedOrigins: splitList(GetEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	if cfg.Environment == "production" && cfg.Casdoor.Endpoint == "" {
		return nil, fmt.Errorf("CASDOOR_ENDPOINT is required in production")
	}

	return cfg, nil
}

// GetEnv returns the variable or the optional default when unset
func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
	}
	return level, nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
