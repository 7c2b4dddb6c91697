package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Addr                 string
	Environment          string
	StorageBackend       string
	StoragePrefix        string
	DatabaseURL          string
	RedisAddress         string
	RedisPassword        string
	RunMigrations        bool
	JWTSecret            string
	TokenTTL             time.Duration
	DataEncryptionKey    string
	SeedAdminEmail       string
	SeedAdminPassword    string
	SeedKpiCatalog       string
	GeminiAPIKey         string
	GeminiModel          string
	AITimeout            time.Duration
	NarrativeCacheSize   int
	MaxBodyBytes         int64
	RateLimitPerMinute   int
	AutoEndWeek          bool
	EndWeekCheckInterval time.Duration
	Timezone             string
	MetricsEnabled       bool
	LogLevel             string
}

// Load reads a .env file when present, then the process environment.
// Variables already set in the environment win over the file.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Addr:                 getEnv("APP_ADDR", ":8080"),
		Environment:          getEnv("APP_ENV", "development"),
		StorageBackend:       strings.ToLower(getEnv("STORAGE_BACKEND", BackendMemory)),
		StoragePrefix:        getEnv("STORAGE_PREFIX", "solvo"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisAddress:         getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RunMigrations:        getEnvBool("RUN_MIGRATIONS", true),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		TokenTTL:             getEnvDuration("TOKEN_TTL", 12*time.Hour),
		DataEncryptionKey:    getEnv("DATA_ENCRYPTION_KEY", ""),
		SeedAdminEmail:       getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:    getEnv("SEED_ADMIN_PASSWORD", ""),
		SeedKpiCatalog:       getEnv("SEED_KPI_CATALOG", ""),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		AITimeout:            getEnvDuration("AI_TIMEOUT", 30*time.Second),
		NarrativeCacheSize:   getEnvInt("NARRATIVE_CACHE_SIZE", 256),
		MaxBodyBytes:         int64(getEnvInt("MAX_BODY_BYTES", 4<<20)),
		RateLimitPerMinute:   getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		AutoEndWeek:          getEnvBool("AUTO_END_WEEK", false),
		EndWeekCheckInterval: getEnvDuration("END_WEEK_CHECK_INTERVAL", time.Hour),
		Timezone:             getEnv("TIMEZONE", "UTC"),
		MetricsEnabled:       getEnvBool("METRICS_ENABLED", true),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// Location resolves Timezone, which decides where week boundaries fall.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory:
	case BackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND is postgres")
		}
	case BackendRedis:
		if strings.TrimSpace(c.RedisAddress) == "" {
			return fmt.Errorf("REDIS_ADDRESS is required when STORAGE_BACKEND is redis")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be memory, postgres or redis")
	}
	if strings.TrimSpace(c.StoragePrefix) == "" {
		return fmt.Errorf("STORAGE_PREFIX must not be empty")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encrypted backups")
		}
		if c.StorageBackend == BackendMemory {
			return fmt.Errorf("STORAGE_BACKEND memory is not allowed in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive")
	}
	if c.AutoEndWeek && c.EndWeekCheckInterval < time.Minute {
		return fmt.Errorf("END_WEEK_CHECK_INTERVAL must be at least 1m")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}
	return nil
}
