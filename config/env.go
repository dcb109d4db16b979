package config

import (
	"os"
	"strconv"
	"time"
)

func getEnvAsString(key string, defaultVal string) string {
	if value, exists := lookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if valueStr, exists := lookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultVal
}

// getEnvAsTimeDuration accepts Go duration strings ("15s", "5m") or a bare number of seconds.
func getEnvAsTimeDuration(key string, defaultVal time.Duration) time.Duration {
	if valueStr, exists := lookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
		if value, err := strconv.Atoi(valueStr); err == nil {
			return time.Duration(value) * time.Second
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if valueStr, exists := lookupEnv(key); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultVal
}

func lookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}
