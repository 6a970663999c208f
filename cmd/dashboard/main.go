// Smart Home Dashboard Core
//
// This is the main entry point for the dashboard core. It supervises one
// ESP32 device over MQTT (a bulb, a fan, and temperature, humidity and
// motion sensors), keeps the canonical device state, runs the automation
// rules and serves the REST API and WebSocket feed the dashboard UI uses.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/activity"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/api"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/automation"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/device"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/dispatch"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/config"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/influxdb"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/kvstore"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/logging"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/metrics"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/mqtt"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/scheduler"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/notify"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"

	// initialConnectTimeout bounds the wait for the first broker session.
	// The supervisor keeps retrying afterwards.
	initialConnectTimeout = 10 * time.Second

	// hourlySchedule re-evaluates the rules at the top of every hour so
	// time triggers fire without new telemetry.
	hourlySchedule = "0 * * * *"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Cancelled on shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or the startup failure
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting dashboard core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"site", cfg.Site.Name,
		"topic_prefix", cfg.Device.TopicPrefix,
	)

	metrics.Init()

	// Persistence
	store, err := kvstore.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		log.Info("closing storage")
		if closeErr := store.Close(); closeErr != nil {
			log.Error("error closing storage", "error", closeErr)
		}
	}()
	log.Info("storage opened", "backend", cfg.Storage.Backend)

	// Saved state that cannot be read falls back to defaults.
	activityLog := activity.NewLog(store)
	activityLog.SetLogger(log.Component("activity"))
	if loadErr := activityLog.Load(ctx); loadErr != nil {
		log.Warn("starting with an empty activity log", "error", loadErr)
	}

	notifications := notify.NewCenter(store)
	notifications.SetLogger(log.Component("notify"))
	if loadErr := notifications.Load(ctx); loadErr != nil {
		log.Warn("starting with default notification state", "error", loadErr)
	}

	rules := automation.NewRegistry(store)
	rules.SetLogger(log.Component("automation"))
	if loadErr := rules.Load(ctx); loadErr != nil {
		log.Warn("starting with no automation rules", "error", loadErr)
	}

	// Device pipeline
	topics := mqtt.Topics{Prefix: cfg.Device.TopicPrefix}
	mqttClient := mqtt.New(cfg.MQTT, topics.Telemetry())
	mqttClient.SetLogger(log.Component("mqtt"))
	metrics.RegisterDroppedMessages(mqttClient.Dropped)

	dispatcher := dispatch.New(mqttClient, topics)
	dispatcher.SetLogger(log.Component("dispatch"))

	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	notifications.SetDeliverer(hub)

	deviceStore := device.NewStore()
	reconciler := telemetry.NewReconciler(telemetry.NewRouter(topics), deviceStore, activityLog, telemetry.Options{
		OfflineThreshold: cfg.OfflineThreshold(),
		Location:         cfg.Location(),
	})
	reconciler.SetLogger(log.Component("telemetry"))
	reconciler.SetRules(rules)
	reconciler.SetDispatcher(dispatcher)
	reconciler.SetNotifier(notifications)
	reconciler.SetBroadcaster(hub)

	// Optional telemetry export
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(ctx, cfg.InfluxDB, cfg.Device.TopicPrefix)
		if influxErr != nil {
			log.Warn("InfluxDB unavailable, telemetry export disabled", "error", influxErr)
		} else {
			defer func() {
				log.Info("closing InfluxDB connection")
				if closeErr := influxClient.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			}()
			influxClient.SetOnError(func(err error) {
				log.Error("InfluxDB write error", "error", err)
			})
			reconciler.SetSink(influxClient)
			log.Info("InfluxDB export enabled", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
		}
	} else {
		log.Info("InfluxDB disabled")
	}

	// Broker session
	mqttClient.OnMessage(reconciler.HandleMessage)
	mqttClient.OnConnected(func() {
		metrics.SetMQTTConnected(true)
		hub.BroadcastConnection(true, mqttClient.State().String())
	})
	mqttClient.OnDisconnected(func(err error) {
		log.Warn("MQTT connection lost", "error", err)
		metrics.SetMQTTConnected(false)
		hub.BroadcastConnection(false, mqttClient.State().String())
	})
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()

	connectCtx, cancelConnect := context.WithTimeout(ctx, initialConnectTimeout)
	connectErr := mqttClient.Connect(connectCtx)
	cancelConnect()
	if connectErr != nil {
		log.Warn("MQTT broker not reachable yet, retrying in background", "error", connectErr)
	}

	// Periodic jobs
	sched := scheduler.New(cfg.Location(), log.Component("scheduler"))
	if addErr := sched.Every("liveness", cfg.WatchdogInterval(), reconciler.Tick); addErr != nil {
		return fmt.Errorf("scheduling liveness watchdog: %w", addErr)
	}
	if cfg.Automation.HourlyEvaluation {
		hourly := func(ctx context.Context, now time.Time) {
			reconciler.EvaluateRules(ctx, now)
		}
		if addErr := sched.Add("hourly-rules", hourlySchedule, hourly); addErr != nil {
			return fmt.Errorf("scheduling hourly rule evaluation: %w", addErr)
		}
	}
	sched.Start()
	defer func() {
		log.Info("stopping scheduler")
		stopCtx, cancelStop := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelStop()
		if stopErr := sched.Stop(stopCtx); stopErr != nil {
			log.Error("error stopping scheduler", "error", stopErr)
		}
	}()

	// HTTP API
	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:        cfg.API,
			WS:            cfg.WebSocket,
			Logger:        log.Component("api"),
			State:         deviceStore,
			Activity:      activityLog,
			Rules:         rules,
			Commands:      dispatcher,
			Notifications: notifications,
			Connection:    mqttClient,
			Storage:       store,
			Hub:           hub,
			Version:       version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API server disabled")
	}

	log.Info("initialisation complete, waiting for shutdown signal",
		"rules", rules.Count(),
		"offline_threshold", cfg.OfflineThreshold(),
	)

	<-ctx.Done()

	// Deferred cleanup runs in reverse: API, scheduler, MQTT, InfluxDB,
	// storage.
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns DASHBOARD_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("DASHBOARD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
