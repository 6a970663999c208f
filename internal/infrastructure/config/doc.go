// Package config loads the dashboard core configuration.
//
// Values are resolved in order: built-in defaults, the YAML file, an
// optional .env file in the working directory, then DASHBOARD_* environment
// variables such as DASHBOARD_MQTT_HOST or DASHBOARD_STORAGE_BACKEND.
// Validate reports every problem at once.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	threshold := cfg.OfflineThreshold() // 60s by default
//
// Keep broker credentials and the InfluxDB token in the environment, not
// in the file.
package config
