// Package mqtt supervises the dashboard's MQTT session.
//
// This package manages:
//   - Connection to the broker with fixed-interval auto-reconnect
//   - Subscription of the device's telemetry topics on every connect
//   - Fail-fast publishing of control commands
//   - Buffered, single-goroutine delivery of inbound messages
//
// # Lifecycle
//
//	Disconnected → Connecting → Connected → Reconnecting → Connected
//
// Close moves the client to Disconnected permanently.
//
// A subscription that fails is logged and skipped; the client stays
// Connected with reduced topic coverage. Publishing while not Connected
// returns ErrNotConnected immediately.
//
// # Delivery
//
// paho invokes the subscription callback on its network goroutine. The
// callback only copies the message into a bounded buffer; a separate
// goroutine drains the buffer and invokes the OnMessage handler. When the
// buffer is full the message is dropped and counted (see Dropped), so a
// slow consumer never stalls reconnection.
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS=true) when the broker is not on the local network
//   - Public brokers such as broker.hivemq.com are readable by anyone
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	topics := mqtt.Topics{Prefix: cfg.Device.TopicPrefix}
//	client := mqtt.New(cfg.MQTT, topics.Telemetry())
//	client.OnMessage(func(msg mqtt.Message) {
//	    reconciler.Handle(msg.Topic, string(msg.Payload), msg.Received)
//	})
//	if err := client.Connect(ctx); err != nil {
//	    log.Warn("broker not reachable yet, retrying", "error", err)
//	}
//	defer client.Close()
//
//	err := client.PublishString(topics.ControlBulb(), "ON")
package mqtt
