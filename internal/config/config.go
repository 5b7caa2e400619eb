package config

import (
	"time"

	"repfit/pkg/logging"
)

// Config is the top-level repfit configuration.
type Config struct {
	// API configures the backend the auth client talks to.
	API APIConfig `yaml:"api"`

	// Session configures the local session lifecycle.
	Session SessionConfig `yaml:"session"`

	// Storage is the directory for locally persisted state (session,
	// pending oauth flows, demo data). Empty means the config directory
	// itself.
	Storage string `yaml:"storage,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel,omitempty"`
}

// APIConfig describes the backend endpoint.
type APIConfig struct {
	// BaseURL is the backend origin, e.g. https://api.repfit.example.
	BaseURL string `yaml:"baseURL"`

	// Timeout bounds every request made by the auth client, as a Go
	// duration string ("30s", "1m").
	Timeout string `yaml:"timeout,omitempty"`
}

// SessionConfig tunes token lifetime handling. Durations are Go duration
// strings.
type SessionConfig struct {
	// RefreshMargin is how long before expiry a refresh is attempted.
	RefreshMargin string `yaml:"refreshMargin,omitempty"`

	// AccessTokenTTL is the assumed access token lifetime when a token
	// carries no usable expiry claim.
	AccessTokenTTL string `yaml:"accessTokenTTL,omitempty"`
}

// ParsedTimeout returns the request timeout, falling back to the default
// on empty or malformed values.
func (a *APIConfig) ParsedTimeout() time.Duration {
	return parseDurationOr(a.Timeout, DefaultTimeout)
}

// ParsedRefreshMargin returns the refresh margin, falling back to the
// default on empty or malformed values.
func (s *SessionConfig) ParsedRefreshMargin() time.Duration {
	return parseDurationOr(s.RefreshMargin, DefaultRefreshMargin)
}

// ParsedAccessTokenTTL returns the assumed token lifetime, falling back
// to the default on empty or malformed values.
func (s *SessionConfig) ParsedAccessTokenTTL() time.Duration {
	return parseDurationOr(s.AccessTokenTTL, DefaultAccessTokenTTL)
}

// ParsedLogLevel converts the configured log level string, falling back
// to info on anything unrecognized.
func (c *Config) ParsedLogLevel() logging.LogLevel {
	return logging.ParseLevel(c.LogLevel)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return fallback
}
