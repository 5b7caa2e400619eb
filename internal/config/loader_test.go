package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0644))
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.API.ParsedTimeout())
	assert.Equal(t, DefaultRefreshMargin, cfg.Session.ParsedRefreshMargin())
	assert.Equal(t, DefaultAccessTokenTTL, cfg.Session.ParsedAccessTokenTTL())
	assert.Equal(t, dir, cfg.Storage)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `
api:
  baseURL: https://api.repfit.dev
  timeout: 5s
session:
  refreshMargin: 90s
  accessTokenTTL: 10m
storage: /var/lib/repfit
logLevel: debug
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://api.repfit.dev", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.ParsedTimeout())
	assert.Equal(t, 90*time.Second, cfg.Session.ParsedRefreshMargin())
	assert.Equal(t, 10*time.Minute, cfg.Session.ParsedAccessTokenTTL())
	assert.Equal(t, "/var/lib/repfit", cfg.Storage)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigPartialOverride(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `
api:
  baseURL: https://api.repfit.dev
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://api.repfit.dev", cfg.API.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.API.ParsedTimeout())
	assert.Equal(t, DefaultRefreshMargin, cfg.Session.ParsedRefreshMargin())
}

func TestLoadConfigMalformed(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "api: [not, a, mapping")

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLoadConfigMalformedDurationFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `
api:
  timeout: not-a-duration
session:
  refreshMargin: "-5s"
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, DefaultTimeout, cfg.API.ParsedTimeout())
	assert.Equal(t, DefaultRefreshMargin, cfg.Session.ParsedRefreshMargin())
}

func TestGetDefaultConfigPathEnvOverride(t *testing.T) {
	t.Setenv(ConfigDirEnvVar, "/tmp/repfit-test-config")
	assert.Equal(t, "/tmp/repfit-test-config", GetDefaultConfigPathOrPanic())
}

func TestParsedLogLevel(t *testing.T) {
	cfg := Config{LogLevel: "warn"}
	assert.Equal(t, "WARN", cfg.ParsedLogLevel().String())

	cfg.LogLevel = "bogus"
	assert.Equal(t, "INFO", cfg.ParsedLogLevel().String())
}
