// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration. It is read once at startup
// and treated as immutable.
type Config struct {
	// DatabaseURL is the PostgreSQL connection string, or "memory" to run
	// against the in-memory adapter.
	DatabaseURL string

	Addr   string
	WebDir string

	// ScopeByOwner filters item reads and live subscriptions to the
	// requesting owner. When false the item collection is global.
	ScopeByOwner bool

	SessionTTL time.Duration

	// OIDC federated sign-in; enabled only when all four are set.
	OIDCIssuerURL    string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		Addr:             getEnvString("ADDR", ":8080"),
		WebDir:           getEnvString("WEB_DIR", "web"),
		ScopeByOwner:     getEnvBool("SCOPE_BY_OWNER", true),
		SessionTTL:       getEnvDuration("SESSION_TTL", 24*time.Hour),
		OIDCIssuerURL:    os.Getenv("OIDC_ISSUER_URL"),
		OIDCClientID:     os.Getenv("OIDC_CLIENT_ID"),
		OIDCClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
		OIDCRedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

// SSOEnabled reports whether federated sign-in is configured.
func (c *Config) SSOEnabled() bool {
	return c.OIDCIssuerURL != "" && c.OIDCClientID != "" &&
		c.OIDCClientSecret != "" && c.OIDCRedirectURL != ""
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
