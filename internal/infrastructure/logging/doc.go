// Package logging provides structured logging for the gateway.
//
// It wraps log/slog with the configured level, format, and output, and
// stamps every entry with the service name and version. Components take
// a child logger via With so entries carry a component field.
//
//	logger := logging.New(cfg.Logging, version)
//	ctl := logger.With("component", "controller")
//	ctl.Info("state changed", "next", "armed")
//
// Never log broker credentials or tokens.
package logging
