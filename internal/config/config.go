package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port       string
	MongoURI   string
	RedisURL   string
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Analysis worker configuration
	AnalysisQueueSize int

	// Superadmin configuration
	SuperadminUserIDs []string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	superadminEnv := getEnv("SUPERADMIN_USER_IDS", "")
	var superadminUserIDs []string
	if superadminEnv != "" {
		superadminUserIDs = strings.Split(superadminEnv, ",")
		for i := range superadminUserIDs {
			superadminUserIDs[i] = strings.TrimSpace(superadminUserIDs[i])
		}
	}

	return &Config{
		Port:       getEnv("PORT", "3001"),
		MongoURI:   getEnv("MONGODB_URI", ""),
		RedisURL:   getEnv("REDIS_URL", ""),
		JWTSecret:  getEnv("JWT_SECRET", ""),
		AccessTTL:  getDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL: getDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		AnalysisQueueSize: getIntEnv("ANALYSIS_QUEUE_SIZE", 256),

		SuperadminUserIDs: superadminUserIDs,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
