package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration. Everything is read once at
// startup and passed to component constructors; nothing reads the process
// environment after Load returns.
type Config struct {
	Environment string
	ServerPort  int
	LogLevel    string

	// Required external collaborators
	DatabaseURL    string
	PerenualAPIKey string
	PlantNetAPIKey string

	// Identity delegation: we verify tokens minted by the identity provider
	JWTSecret string
	JWTIssuer string

	// Upstream endpoints, overridable for tests and staging
	PerenualBaseURL string
	PlantNetBaseURL string
	ExpoPushURL     string

	// Catalog response cache
	CacheBackend string // "memory" or "redis"
	CacheTTL     time.Duration
	RedisURL     string

	// Due-reminder notifier
	NotifierEnabled  bool
	NotifierInterval time.Duration

	RateLimitPerMinute int

	// OTLP trace collector; empty leaves tracing disabled
	OTLPEndpoint string
}

// Load reads configuration from environment variables. It fails fast when a
// required variable is absent.
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	cacheTTL, err := time.ParseDuration(getEnv("CATALOG_CACHE_TTL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CATALOG_CACHE_TTL: %w", err)
	}

	notifierInterval, err := time.ParseDuration(getEnv("NOTIFIER_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFIER_INTERVAL: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	cfg := &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		ServerPort:         port,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", "nurture"),
		PerenualBaseURL:    getEnv("PERENUAL_API_URL", "https://perenual.com/api"),
		PlantNetBaseURL:    getEnv("PLANTNET_API_URL", "https://my-api.plantnet.org"),
		ExpoPushURL:        getEnv("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
		CacheBackend:       getEnv("CATALOG_CACHE_BACKEND", "memory"),
		CacheTTL:           cacheTTL,
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		NotifierEnabled:    getEnv("NOTIFIER_ENABLED", "true") == "true",
		NotifierInterval:   notifierInterval,
		RateLimitPerMinute: rateLimit,
		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	var missing []string
	for _, req := range []struct {
		name string
		dst  *string
	}{
		{"DATABASE_URL", &cfg.DatabaseURL},
		{"PERENUAL_API_KEY", &cfg.PerenualAPIKey},
		{"PLANTNET_API_KEY", &cfg.PlantNetAPIKey},
	} {
		v := os.Getenv(req.name)
		if v == "" {
			missing = append(missing, req.name)
			continue
		}
		*req.dst = v
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	if cfg.CacheBackend != "memory" && cfg.CacheBackend != "redis" {
		return nil, fmt.Errorf("invalid CATALOG_CACHE_BACKEND: %s", cfg.CacheBackend)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
