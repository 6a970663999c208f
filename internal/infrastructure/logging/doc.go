// Package logging provides the dashboard's structured logger, a thin
// wrapper over log/slog.
//
// Entries are JSON by default or text for local development, filtered by
// level, and tagged with service=dashboard and the build version.
// Components log through a child logger:
//
//	log := logging.New(cfg.Logging, version)
//	mqttLog := log.Component("mqtt")
//	mqttLog.Warn("connection lost", "error", err)
//
// Values of attributes named password, token or secret (or ending in
// _password, _token or _secret) are written as [REDACTED].
//
// Configured in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
package logging
