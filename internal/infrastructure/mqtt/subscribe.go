package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// subscribeAll subscribes every topic in the fixed set.
//
// A failed subscription is logged and skipped; the session stays usable
// with reduced topic coverage.
//
// Returns:
//   - int: Number of topics that could not be subscribed
func (c *Client) subscribeAll() int {
	failed := 0
	for _, topic := range c.topics {
		if err := c.subscribe(topic); err != nil {
			failed++
			c.getLogger().Warn("mqtt subscription failed", "topic", topic, "error", err)
		}
	}
	return failed
}

// subscribe registers the enqueueing handler for one topic.
func (c *Client) subscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}

	token := c.client.Subscribe(topic, c.qos(), c.wrapHandler())
	if !token.WaitTimeout(defaultSubscribeTimeout) {
		return fmt.Errorf("%w: %s: timeout after %v", ErrSubscribeFailed, topic, defaultSubscribeTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, topic, err)
	}
	return nil
}

// wrapHandler adapts paho's callback to the inbound buffer.
// It copies the payload because paho may reuse the buffer.
func (c *Client) wrapHandler() pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		payload := make([]byte, len(msg.Payload()))
		copy(payload, msg.Payload())
		c.enqueue(Message{
			Topic:    msg.Topic(),
			Payload:  payload,
			Received: time.Now(),
		})
	}
}

// Topics returns a copy of the fixed subscription set.
func (c *Client) Topics() []string {
	return append([]string(nil), c.topics...)
}

func (c *Client) qos() byte {
	if c.cfg.QoS < 0 || c.cfg.QoS > maxQoS {
		return 0
	}
	return byte(c.cfg.QoS)
}
