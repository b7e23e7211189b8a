// Package logging provides structured logging for the twin registry.
//
// It wraps log/slog so every entry carries the service name and build
// version. Components derive child loggers with With:
//
//	logger := logging.New(cfg.Logging, version)
//	apiLogger := logger.With("component", "api")
//	apiLogger.Info("listening", "addr", addr)
//
// Configuration:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log credentials such as the MongoDB URI or broker passwords.
package logging
