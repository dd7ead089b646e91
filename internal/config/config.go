package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Notification sinks accepted by NOTIFICATION_SINK
var validSinks = []string{"log", "db", "kafka", "telegram"}

type Config struct {
	// Service configuration
	ServiceHost         string
	ServicePort         string
	InternalServicePort string

	// Database configuration
	DatabaseURL         string
	DatabaseMaxConns    int
	DatabaseLockTimeout time.Duration
	RunMigrations       bool

	// Redis configuration; both URLs are optional
	RedisURL      string
	RedisAuthURL  string
	RedisMaxConns int

	// Logging configuration
	LogLevel string

	// JWT configuration; the key file wins over the auth service
	JWTPublicKeyPath string
	AuthServiceURL   string

	// Cache and background jobs
	CacheTTL                 time.Duration
	MetricsRecomputeInterval time.Duration

	// Notifications
	NotificationSink        string
	NotificationTimeout     time.Duration
	KafkaBrokers            []string
	KafkaNotificationsTopic string
	TelegramBotToken        string

	// Tracing; an empty endpoint disables export
	OTELEndpoint   string
	OTELAuthHeader string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var err error
	cfg := &Config{
		ServiceHost:             getEnv("FARM_SERVICE_HOST", "0.0.0.0"),
		ServicePort:             getEnv("FARM_SERVICE_PORT", "8080"),
		InternalServicePort:     getEnv("FARM_INTERNAL_SERVICE_PORT", "8090"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		RedisURL:                os.Getenv("REDIS_URL"),
		RedisAuthURL:            os.Getenv("REDIS_AUTH_URL"),
		LogLevel:                strings.ToLower(getEnv("LOG_LEVEL", "info")),
		JWTPublicKeyPath:        os.Getenv("JWT_PUBLIC_KEY_PATH"),
		AuthServiceURL:          os.Getenv("AUTH_SERVICE_URL"),
		NotificationSink:        strings.ToLower(getEnv("NOTIFICATION_SINK", "db")),
		KafkaBrokers:            splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaNotificationsTopic: getEnv("KAFKA_NOTIFICATIONS_TOPIC", "farm.notifications"),
		TelegramBotToken:        os.Getenv("TELEGRAM_BOT_TOKEN"),
		OTELEndpoint:            os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTELAuthHeader:          os.Getenv("OTEL_AUTH_HEADER"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.DatabaseMaxConns, err = getInt("DATABASE_MAX_CONNECTIONS", 10); err != nil {
		return nil, err
	}
	if cfg.RedisMaxConns, err = getInt("REDIS_MAX_CONNECTIONS", 10); err != nil {
		return nil, err
	}
	if cfg.DatabaseLockTimeout, err = getDuration("DATABASE_LOCK_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MetricsRecomputeInterval, err = getDuration("METRICS_RECOMPUTE_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.NotificationTimeout, err = getDuration("NOTIFICATION_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.RunMigrations, err = getBool("FARM_RUN_MIGRATIONS", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.DatabaseURL, "postgresql://") && !strings.HasPrefix(c.DatabaseURL, "postgres://") {
		return fmt.Errorf("DATABASE_URL must start with postgresql:// or postgres://")
	}

	for name, url := range map[string]string{"REDIS_URL": c.RedisURL, "REDIS_AUTH_URL": c.RedisAuthURL} {
		if url != "" && !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
			return fmt.Errorf("%s must start with redis:// or rediss://", name)
		}
	}

	if c.DatabaseMaxConns < 1 || c.DatabaseMaxConns > 100 {
		return fmt.Errorf("DATABASE_MAX_CONNECTIONS must be between 1 and 100")
	}
	if c.RedisMaxConns < 1 || c.RedisMaxConns > 100 {
		return fmt.Errorf("REDIS_MAX_CONNECTIONS must be between 1 and 100")
	}
	if c.DatabaseLockTimeout < 0 {
		return fmt.Errorf("DATABASE_LOCK_TIMEOUT cannot be negative")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.MetricsRecomputeInterval < time.Minute {
		return fmt.Errorf("METRICS_RECOMPUTE_INTERVAL must be at least 1m")
	}
	if c.NotificationTimeout <= 0 {
		return fmt.Errorf("NOTIFICATION_TIMEOUT must be positive")
	}

	if !contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	if !contains(validSinks, c.NotificationSink) {
		return fmt.Errorf("NOTIFICATION_SINK must be one of: %s", strings.Join(validSinks, ", "))
	}
	if c.NotificationSink == "kafka" && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when NOTIFICATION_SINK is kafka")
	}
	if c.NotificationSink == "telegram" && c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required when NOTIFICATION_SINK is telegram")
	}

	return nil
}

// String returns a string representation of the config (for logging, without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Host: %s, Port: %s, InternalPort: %s, LogLevel: %s, DB: %s, Redis: %s, LockTimeout: %s, CacheTTL: %s, Sink: %s, Kafka: %s, Telegram: %t, OTEL: %s}",
		c.ServiceHost, c.ServicePort, c.InternalServicePort, c.LogLevel,
		maskURL(c.DatabaseURL), maskURL(c.RedisURL), c.DatabaseLockTimeout, c.CacheTTL,
		c.NotificationSink, strings.Join(c.KafkaBrokers, ","), c.TelegramBotToken != "", c.OTELEndpoint,
	)
}

// maskURL masks the credentials of a URL
func maskURL(url string) string {
	at := strings.LastIndex(url, "@")
	scheme := strings.Index(url, "://")
	if at < 0 || scheme < 0 || scheme > at {
		return url
	}
	return url[:scheme+3] + "***" + url[at:]
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return value, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %v", key, err)
	}
	return value, nil
}

// getDuration accepts Go durations ("750ms", "5m") and bare seconds ("30")
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return value, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
