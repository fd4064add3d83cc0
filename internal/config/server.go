// Package config provides configuration management for the Bloom server.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment represents the deployment environment.
type Environment string

const (
	// EnvDevelopment is the default local development environment.
	EnvDevelopment Environment = "development"
	// EnvStaging is the staging/pre-production environment.
	EnvStaging Environment = "staging"
	// EnvProduction is the production environment.
	EnvProduction Environment = "production"
)

// DefaultVerifierURL is the upstream endpoint used to verify license keys
// when LICENSE_VERIFIER_URL is not set.
const DefaultVerifierURL = "https://api.gumroad.com/v2/licenses/verify"

// ServerConfig holds server configuration loaded from environment variables.
type ServerConfig struct {
	Environment Environment
	Port        int
	DatabaseURL string

	LicenseVerifierURL     string
	LicenseVerifierTimeout int // seconds
	LicenseVerifierProxy   string
	NoProxy                string
	CatalogPath            string

	ImagesDir      string
	AllowedOrigins []string

	RateLimitRequests int64
	RateLimitPeriod   string
	MaxBodyBytes      int64

	LogLevel          string
	RetentionSchedule string
}

// LoadServerConfig reads server configuration from environment variables.
// Invalid or unset values fall back to defaults; DATABASE_URL has no default
// and must be validated by the caller.
func LoadServerConfig() ServerConfig {
	env := Environment(os.Getenv("ENVIRONMENT"))
	switch env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// valid
	default:
		env = EnvDevelopment
	}

	port := getEnvInt("PORT", 3000)
	if port <= 0 || port > 65535 {
		port = 3000
	}

	verifierTimeout := getEnvInt("LICENSE_VERIFIER_TIMEOUT", 30)
	if verifierTimeout <= 0 {
		verifierTimeout = 30
	}

	return ServerConfig{
		Environment:            env,
		Port:                   port,
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		LicenseVerifierURL:     getEnv("LICENSE_VERIFIER_URL", DefaultVerifierURL),
		LicenseVerifierTimeout: verifierTimeout,
		LicenseVerifierProxy:   os.Getenv("LICENSE_VERIFIER_PROXY"),
		NoProxy:                os.Getenv("NO_PROXY"),
		CatalogPath:            os.Getenv("CATALOG_PATH"),
		ImagesDir:              getEnv("IMAGES_DIR", "./images"),
		AllowedOrigins:         splitList(os.Getenv("ALLOWED_ORIGINS")),
		RateLimitRequests:      getEnvInt64("RATE_LIMIT_REQUESTS", 100),
		RateLimitPeriod:        getEnv("RATE_LIMIT_PERIOD", "1m"),
		MaxBodyBytes:           getEnvInt64("MAX_BODY_BYTES", 10<<20),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		RetentionSchedule:      getEnv("RETENTION_SCHEDULE", "0 3 * * *"),
	}
}

// splitList parses a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitList(val string) []string {
	if strings.TrimSpace(val) == "" {
		return []string{}
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnv reads a string from an environment variable, returning the default if unset.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer from an environment variable, returning the default if unset or invalid.
func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvInt64 reads a 64-bit integer from an environment variable, returning the default if unset or invalid.
func getEnvInt64(key string, defaultVal int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return defaultVal
	}
	return n
}
