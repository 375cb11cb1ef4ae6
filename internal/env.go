package internal

import (
	"os"
	"strconv"
	"time"
)

func getEnv(name string) (string, bool) {
	val, exists := os.LookupEnv(name)
	return val, exists
}

// GetEnvString returns the value of the environment variable with the given name
// or defaultValue if the environment variable is not set.
func GetEnvString(name string, defaultValue string) string {
	val, ok := getEnv(name)
	if !ok {
		return defaultValue
	}

	return val
}

// getEnvInt returns the value of the environment variable with the given name
// or defaultValue if the environment variable is not set or is not a valid
// integer value.
func getEnvInt(name string, defaultValue int) int {
	val, ok := getEnv(name)
	if !ok {
		return defaultValue
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}

	return i
}

// getEnvSeconds returns the value of the environment variable with the given
// name interpreted as a number of seconds, or defaultValue if unset or invalid.
func getEnvSeconds(name string, defaultValue time.Duration) time.Duration {
	val, ok := getEnv(name)
	if !ok {
		return defaultValue
	}

	secs, err := strconv.Atoi(val)
	if err != nil || secs < 0 {
		return defaultValue
	}

	return time.Duration(secs) * time.Second
}
