package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds runtime configuration, loaded from environment variables
// (optionally seeded from a .env file by the caller).
type Config struct {
	Port    string
	GinMode string

	// "memory" or "postgres".
	StorageBackend string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr     string
	RedisPassword string
	QuoteCacheTTL time.Duration

	NumWorkers        int
	FanoutParallelism int
	FanoutTimeout     time.Duration
}

// Load reads configuration from the environment with defaults suitable
// for local development.
func Load() Config {
	return Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", ""),

		StorageBackend: getEnv("STORAGE_BACKEND", "memory"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "trader"),
		DBPassword: getEnv("DB_PASSWORD", "trading123"),
		DBName:     getEnv("DB_NAME", "investsim"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		QuoteCacheTTL: getEnvDuration("QUOTE_CACHE_TTL", 2*time.Second),

		NumWorkers:        getEnvInt("NUM_WORKERS", 5),
		FanoutParallelism: getEnvInt("FANOUT_PARALLELISM", 8),
		FanoutTimeout:     getEnvDuration("FANOUT_TIMEOUT", 5*time.Second),
	}
}

// Helper to get environment variable with default.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return defaultValue
}
