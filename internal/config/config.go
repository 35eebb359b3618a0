package config

import (
	"os"
	"strconv"
)

type Config struct {
	Environment string
	// Worker pool configuration
	WorkerCount    int
	PollIntervalMs int
	// Log files (empty = stdout only)
	LogDir      string
	MaxLogFiles int
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Environment:    env,
		WorkerCount:    getEnvInt("WORKER_COUNT", 4),
		PollIntervalMs: getEnvInt("POLL_INTERVAL_MS", 250),
		LogDir:         getEnv("LOG_DIR", ""),
		MaxLogFiles:    getEnvInt("MAX_LOG_FILES", 5),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
