package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"repfit/pkg/logging"
)

const (
	userConfigDir  = ".config/repfit"
	configFileName = "config.yaml"

	// ConfigDirEnvVar overrides the configuration directory; intended
	// for tests and sandboxed installs.
	ConfigDirEnvVar = "REPFIT_CONFIG_DIR"
)

// Defaults applied before config.yaml is merged on top.
const (
	DefaultAPIBaseURL     = "https://api.repfit.example"
	DefaultTimeout        = 30 * time.Second
	DefaultRefreshMargin  = 60 * time.Second
	DefaultAccessTokenTTL = 15 * time.Minute
)

// GetDefaultConfigPathOrPanic resolves the repfit configuration
// directory: $REPFIT_CONFIG_DIR if set, otherwise ~/.config/repfit.
func GetDefaultConfigPathOrPanic() string {
	if dir := os.Getenv(ConfigDirEnvVar); dir != "" {
		return dir
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}
	return filepath.Join(homeDir, userConfigDir)
}

// GetDefaultConfig returns the built-in defaults.
func GetDefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: DefaultAPIBaseURL,
		},
		LogLevel: "info",
	}
}

// LoadConfig loads configuration from the specified directory. A missing
// config.yaml is not an error; defaults apply. The storage directory
// defaults to the configuration directory itself so session, oauth flow
// and demo data live alongside config.yaml.
func LoadConfig(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()
	config.Storage = configPath

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		logging.Info("ConfigLoader", "Error loading config.yaml from %s: %s", configFilePath, err)
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		// config malformed
		return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}
