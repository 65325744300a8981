package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// GetEnvString retrieves a string from environment variables or returns the default value.
func GetEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

// GetEnvStrings retrieves a comma separated list, dropping empty elements.
func GetEnvStrings(key string, defaultValue []string) []string {
	valStr := GetEnvString(key, "")
	if valStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// GetEnvInt retrieves an integer from environment variables or returns the default value.
func GetEnvInt(key string, defaultValue int) int {
	val, err := strconv.Atoi(GetEnvString(key, ""))
	if err != nil {
		return defaultValue
	}
	return val
}

// GetEnvBool retrieves a boolean from environment variables or returns the default value.
func GetEnvBool(key string, defaultValue bool) bool {
	val, err := strconv.ParseBool(GetEnvString(key, ""))
	if err != nil {
		return defaultValue
	}
	return val
}

// GetEnvDuration retrieves a duration from environment variables or returns the default value.
// Values with a unit suffix go through time.ParseDuration, bare integers are minutes.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valStr := GetEnvString(key, "")
	if valStr == "" {
		return defaultValue
	}

	if minutes, err := strconv.Atoi(valStr); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return defaultValue
	}
	return val
}

// GetEnvLogLevel retrieves a log level from environment variables or returns the default value.
func GetEnvLogLevel(key string, defaultValue zerolog.Level) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(GetEnvString(key, "")))
	if err != nil || GetEnvString(key, "") == "" {
		return defaultValue
	}
	return level
}
