// Package logging provides structured logging for the Gray Logic MQTT
// agent.
//
// This package wraps Go's standard log/slog package to provide consistent,
// structured logging across the daemon and the library packages, which all
// accept any slog-compatible logger through their small Logger interfaces.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Usage
//
//	logger := logging.New(logging.Config{Level: "debug", Format: "text"}, version)
//	logger.Info("agent starting", "broker", addr)
//
//	agentLogger := logger.With("component", "agent")
package logging
