// Package logging provides a structured logging system for repfit with
// unified log handling and level filtering.
//
// The package is a thin wrapper around Go's standard slog package. Every
// log entry carries a subsystem identifier so output can be filtered and
// categorized:
//
//	logging.Init(logging.LevelInfo, os.Stderr)
//	logging.Info("Session", "Session restored for user %s", userID)
//	logging.Error("AuthClient", err, "Login request failed")
//
// Subsystems used across the codebase: Bootstrap, Config, AuthClient,
// Session, TokenStore, OAuth, Demo.
//
// SECURITY: token and credential values are never passed to this package;
// callers log identifiers, URLs and expiry instants only.
package logging
