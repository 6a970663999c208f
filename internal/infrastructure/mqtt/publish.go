package mqtt

import (
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
const maxPayloadSize = 1 << 20

// Publish sends a command payload with the configured QoS, not retained.
//
// Publishing fails fast with ErrNotConnected when there is no live
// session. Nothing is queued for later delivery.
//
// Parameters:
//   - topic: The topic to publish to (e.g., "nikhil/home/control/bulb")
//   - payload: Plain text token such as "ON" or "#FF0000"
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
//
// Example:
//
//	err := client.Publish(mqtt.Topics{}.ControlBulb(), []byte("ON"))
func (c *Client) Publish(topic string, payload []byte) error {
	return c.PublishWithOptions(topic, payload, c.qos(), false)
}

// PublishString is a convenience method that publishes a string payload.
func (c *Client) PublishString(topic, payload string) error {
	return c.Publish(topic, []byte(payload))
}

// PublishWithOptions sends a message with an explicit QoS and retain flag.
//
// QoS Levels:
//   - 0: At most once (fire and forget)
//   - 1: At least once (guaranteed delivery, may duplicate)
//   - 2: Exactly once (guaranteed, no duplicates, higher overhead)
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrNotConnected or ErrPublishFailed
func (c *Client) PublishWithOptions(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}
