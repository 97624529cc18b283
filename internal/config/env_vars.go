package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar       = "PORT"
	appNameVar       = "APP_NAME"
	baseURLVar       = "BASE_URL"
	returnPathEnvVar = "DEFAULT_RETURN_PATH"
	envEnvVar        = "ENV"
)

type EnvVars struct {
	values fileValues
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.values.get(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.values.get(appNameVar, "Seller Dashboard")
}

// GetBaseURL returns the public base URL of the dashboard (e.g., "https://app.dropleather.com").
// Return-to URLs handed to the auth service are built from it.
func (e EnvVars) GetBaseURL() string {
	return strings.TrimRight(e.values.get(baseURLVar, "http://localhost:8080"), "/")
}

// GetDefaultReturnPath is where the auth service sends the user back to when no
// better destination is known.
func (e EnvVars) GetDefaultReturnPath() string {
	return e.values.get(returnPathEnvVar, "/products/showcase")
}

func (e EnvVars) GetEnv() string {
	return e.values.get(envEnvVar, "DEV")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func (v fileValues) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := v[key]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (v fileValues) getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(v.get(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return b
}

func (v fileValues) getInt(key string, defaultValue int) int {
	i, err := strconv.Atoi(v.get(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return i
}

func (v fileValues) getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(v.get(key, defaultValue.String()))
	if err != nil {
		return defaultValue
	}
	return d
}
