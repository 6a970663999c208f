package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/config"
)

// serviceName is attached to every log entry.
const serviceName = "dashboard"

// redacted replaces the value of any secret-bearing attribute.
const redacted = "[REDACTED]"

// secretKeys are attribute keys whose values are never written.
var secretKeys = map[string]struct{}{
	"password": {},
	"token":    {},
	"secret":   {},
}

// Logger is the dashboard's structured logger. Every entry carries the
// service name and build version; entries from a component logger also
// carry component=<name>.
//
// All methods are safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New creates a Logger writing to the destination named by cfg.Output
// ("stdout", "stderr" or "discard"; anything else means stdout).
//
// Parameters:
//   - cfg: Level, format and output
//   - version: Build version attached to every entry
//
// Returns:
//   - *Logger: Configured logger
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer = os.Stdout
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	case "discard":
		output = io.Discard
	}
	return NewWithWriter(cfg, version, output)
}

// NewWithWriter creates a Logger writing to output. cfg.Output is ignored.
func NewWithWriter(cfg config.LoggingConfig, version string, output io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		ReplaceAttr: redactSecrets,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}

	return &Logger{Logger: slog.New(handler).With(
		slog.String("service", serviceName),
		slog.String("version", version),
	)}
}

// redactSecrets hides values of keys listed in secretKeys, matched
// case-insensitively and by suffix so "mqtt_password" is covered too.
func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for secret := range secretKeys {
		if key == secret || strings.HasSuffix(key, "_"+secret) {
			return slog.String(a.Key, redacted)
		}
	}
	return a
}

// parseLevel maps debug, info, warn (or warning) and error to slog levels.
// Anything else is info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a Logger that adds args to every entry.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Component returns a Logger tagged with component=name.
//
//	mqttLog := log.Component("mqtt")
//	mqttLog.Info("connected") // ... component=mqtt
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Default returns a JSON info-level stdout logger for use before the
// configuration is loaded.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}
