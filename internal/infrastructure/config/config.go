package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the dashboard core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Device     DeviceConfig     `yaml:"device"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Storage    StorageConfig    `yaml:"storage"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	API        APIConfig        `yaml:"api"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
	Automation AutomationConfig `yaml:"automation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DeviceConfig describes the single device the dashboard supervises.
type DeviceConfig struct {
	// TopicPrefix is prepended to every telemetry and control topic
	// (e.g. "nikhil/home" gives "nikhil/home/temp").
	TopicPrefix string `yaml:"topic_prefix"`

	// OfflineThreshold is how long without any message before the device
	// is considered offline (seconds).
	OfflineThreshold int `yaml:"offline_threshold"`

	// WatchdogInterval is the liveness check period (seconds).
	WatchdogInterval int `yaml:"watchdog_interval"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// InboundBuffer is the number of received messages held while the
	// consumer is busy. Messages beyond this are dropped.
	InboundBuffer int `yaml:"inbound_buffer"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
// The device is a single always-retry peer, so a fixed interval is used.
type MQTTReconnectConfig struct {
	// Interval is the fixed retry period in milliseconds.
	Interval int `yaml:"interval"`
}

// StorageConfig selects and configures the key-value persistence backend.
type StorageConfig struct {
	// Backend is "sqlite" or "bolt".
	Backend string              `yaml:"backend"`
	SQLite  SQLiteStorageConfig `yaml:"sqlite"`
	Bolt    BoltStorageConfig   `yaml:"bolt"`
}

// SQLiteStorageConfig contains SQLite database settings.
type SQLiteStorageConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// BoltStorageConfig contains BoltDB settings.
type BoltStorageConfig struct {
	Path string `yaml:"path"`
}

// InfluxDBConfig contains InfluxDB connection settings for the optional
// telemetry export.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// AutomationConfig contains rule engine settings.
type AutomationConfig struct {
	// HourlyEvaluation re-evaluates rules at the top of every hour so that
	// time triggers run even while the device is quiet.
	HourlyEvaluation bool `yaml:"hourly_evaluation"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Storage backend names.
const (
	StorageBackendSQLite = "sqlite"
	StorageBackendBolt   = "bolt"
)

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. .env file next to the working directory, if present
//  4. Environment variables (override file values)
//
// Environment variables follow the pattern: DASHBOARD_SECTION_KEY
// For example: DASHBOARD_MQTT_HOST, DASHBOARD_STORAGE_BACKEND
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// A missing .env is the normal production case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Name:     "Smart Home",
			Timezone: "Local",
		},
		Device: DeviceConfig{
			TopicPrefix:      "nikhil/home",
			OfflineThreshold: 60,
			WatchdogInterval: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "broker.hivemq.com",
				Port:     1883,
				ClientID: "dashboard-core",
			},
			QoS: 0,
			Reconnect: MQTTReconnectConfig{
				Interval: 1000,
			},
			InboundBuffer: 256,
		},
		Storage: StorageConfig{
			Backend: StorageBackendSQLite,
			SQLite: SQLiteStorageConfig{
				Path:        "./data/dashboard.db",
				WALMode:     true,
				BusyTimeout: 5,
			},
			Bolt: BoltStorageConfig{
				Path: "./data/dashboard.bolt",
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Automation: AutomationConfig{
			HourlyEvaluation: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: DASHBOARD_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("DASHBOARD_DEVICE_TOPIC_PREFIX"); v != "" {
		cfg.Device.TopicPrefix = v
	}

	// MQTT
	if v := os.Getenv("DASHBOARD_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("DASHBOARD_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("DASHBOARD_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("DASHBOARD_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Storage
	if v := os.Getenv("DASHBOARD_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("DASHBOARD_STORAGE_PATH"); v != "" {
		switch cfg.Storage.Backend {
		case StorageBackendBolt:
			cfg.Storage.Bolt.Path = v
		default:
			cfg.Storage.SQLite.Path = v
		}
	}

	// API
	if v := os.Getenv("DASHBOARD_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("DASHBOARD_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of all validation failures, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Site validation
	if _, err := time.LoadLocation(c.Site.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("site.timezone %q is not a valid IANA zone", c.Site.Timezone))
	}

	// Device validation
	if strings.Trim(c.Device.TopicPrefix, "/") == "" {
		errs = append(errs, "device.topic_prefix is required")
	}
	if c.Device.OfflineThreshold <= 0 {
		errs = append(errs, "device.offline_threshold must be positive")
	}
	if c.Device.WatchdogInterval <= 0 {
		errs = append(errs, "device.watchdog_interval must be positive")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Reconnect.Interval <= 0 {
		errs = append(errs, "mqtt.reconnect.interval must be positive")
	}

	// Storage validation
	switch c.Storage.Backend {
	case StorageBackendSQLite:
		if c.Storage.SQLite.Path == "" {
			errs = append(errs, "storage.sqlite.path is required")
		}
	case StorageBackendBolt:
		if c.Storage.Bolt.Path == "" {
			errs = append(errs, "storage.bolt.path is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.backend must be %q or %q", StorageBackendSQLite, StorageBackendBolt))
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// OfflineThreshold returns the device offline threshold as a Duration.
func (c *Config) OfflineThreshold() time.Duration {
	return time.Duration(c.Device.OfflineThreshold) * time.Second
}

// WatchdogInterval returns the liveness check period as a Duration.
func (c *Config) WatchdogInterval() time.Duration {
	return time.Duration(c.Device.WatchdogInterval) * time.Second
}

// ReconnectInterval returns the fixed MQTT retry period as a Duration.
func (c MQTTConfig) ReconnectInterval() time.Duration {
	return time.Duration(c.Reconnect.Interval) * time.Millisecond
}

// Location returns the site timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Site.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
