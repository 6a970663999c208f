// Package metrics exposes Prometheus collectors for the dashboard core.
//
// Collectors are created and registered once by Init. Every helper is safe
// to call before Init (it does nothing), so packages can record metrics
// without caring whether the HTTP surface is enabled.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "dashboard_"

	// ResultSuccess and ResultError label publish outcomes.
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once
	droppedOnce  sync.Once

	messagesReceived *prometheus.CounterVec
	decodeErrors     *prometheus.CounterVec
	publishTotal     *prometheus.CounterVec

	ruleEvaluations    prometheus.Counter
	ruleActions        prometheus.Counter
	ruleEvaluationTime prometheus.Histogram

	deviceOnline   prometheus.Gauge
	deviceLastSeen prometheus.Gauge
	mqttConnected  prometheus.Gauge
	wsClients      prometheus.Gauge

	notificationsTotal *prometheus.CounterVec
	offlineTransitions prometheus.Counter
)

// Init creates the collectors and registers them with the default
// Prometheus registry. Calling it more than once has no further effect.
func Init() {
	registerOnce.Do(func() {
		messagesReceived = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "messages_received_total",
				Help: "Inbound MQTT messages by telemetry field (\"unrouted\" for unknown topics)",
			},
			[]string{"field"},
		)
		decodeErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "decode_errors_total",
				Help: "Payloads that could not be decoded, by telemetry field",
			},
			[]string{"field"},
		)
		publishTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "publish_total",
				Help: "Outbound control publishes by command and result",
			},
			[]string{"command", "result"},
		)

		ruleEvaluations = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "rule_evaluations_total",
				Help: "Automation rule evaluation passes",
			},
		)
		ruleActions = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "rule_actions_total",
				Help: "Actions emitted by automation rules",
			},
		)
		ruleEvaluationTime = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "rule_evaluation_seconds",
				Help:    "Time to evaluate all rules against one snapshot",
				Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
			},
		)

		deviceOnline = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "device_online",
				Help: "1 while the device is considered online",
			},
		)
		deviceLastSeen = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "device_last_seen_timestamp_seconds",
				Help: "Unix time of the most recent routed message",
			},
		)
		mqttConnected = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "mqtt_connected",
				Help: "1 while the MQTT session is connected",
			},
		)
		wsClients = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "websocket_clients",
				Help: "Connected WebSocket clients",
			},
		)

		notificationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_total",
				Help: "Notifications recorded by type",
			},
			[]string{"type"},
		)
		offlineTransitions = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "device_offline_transitions_total",
				Help: "Times the watchdog moved the device from online to offline",
			},
		)

		prometheus.MustRegister(
			messagesReceived,
			decodeErrors,
			publishTotal,
			ruleEvaluations,
			ruleActions,
			ruleEvaluationTime,
			deviceOnline,
			deviceLastSeen,
			mqttConnected,
			wsClients,
			notificationsTotal,
			offlineTransitions,
		)
	})
}

// RegisterDroppedMessages exposes the supervisor's dropped-message count.
// Only the first call registers.
func RegisterDroppedMessages(count func() uint64) {
	droppedOnce.Do(func() {
		prometheus.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name: metricPrefix + "mqtt_dropped_messages_total",
				Help: "Inbound messages dropped because the buffer was full",
			},
			func() float64 { return float64(count()) },
		))
	})
}

// IncMessage counts one inbound message for field.
func IncMessage(field string) {
	if messagesReceived != nil {
		messagesReceived.WithLabelValues(field).Inc()
	}
}

// IncDecodeError counts one undecodable payload for field.
func IncDecodeError(field string) {
	if decodeErrors != nil {
		decodeErrors.WithLabelValues(field).Inc()
	}
}

// ObservePublish records the outcome of one control publish.
func ObservePublish(command string, err error) {
	if publishTotal == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	publishTotal.WithLabelValues(command, result).Inc()
}

// ObserveRuleEvaluation records one evaluation pass.
func ObserveRuleEvaluation(actions int, duration time.Duration) {
	if ruleEvaluations != nil {
		ruleEvaluations.Inc()
	}
	if ruleActions != nil {
		ruleActions.Add(float64(actions))
	}
	if ruleEvaluationTime != nil {
		ruleEvaluationTime.Observe(duration.Seconds())
	}
}

// SetDeviceOnline records the liveness flag.
func SetDeviceOnline(online bool) {
	if deviceOnline != nil {
		deviceOnline.Set(boolValue(online))
	}
}

// SetDeviceLastSeen records the time of the newest routed message.
func SetDeviceLastSeen(t time.Time) {
	if deviceLastSeen != nil && !t.IsZero() {
		deviceLastSeen.Set(float64(t.UnixNano()) / 1e9)
	}
}

// IncOfflineTransition counts one online to offline edge.
func IncOfflineTransition() {
	if offlineTransitions != nil {
		offlineTransitions.Inc()
	}
}

// SetMQTTConnected records the session state.
func SetMQTTConnected(connected bool) {
	if mqttConnected != nil {
		mqttConnected.Set(boolValue(connected))
	}
}

// SetWebSocketClients records the number of live WebSocket clients.
func SetWebSocketClients(n int) {
	if wsClients != nil {
		wsClients.Set(float64(n))
	}
}

// IncNotification counts one recorded notification.
func IncNotification(kind string) {
	if notificationsTotal != nil {
		notificationsTotal.WithLabelValues(kind).Inc()
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
