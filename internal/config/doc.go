// Package config loads the repfit configuration from config.yaml in the
// user configuration directory (~/.config/repfit by default,
// overridable via REPFIT_CONFIG_DIR). Missing files fall back to
// built-in defaults; a malformed file is an error.
package config
