package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/config"
)

// State is the supervisor's connection lifecycle state.
type State int32

// Connection states.
//
//	Disconnected → Connecting → Connected → Reconnecting → Connected
//	any state → Disconnected (terminal once Close has been called)
const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

// String returns the lowercase state name used in logs and the API.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Message is one inbound topic/payload pair as received from the broker.
type Message struct {
	Topic    string
	Payload  []byte
	Received time.Time
}

// MessageHandler is the callback signature for received messages.
//
// Handlers run on the client's single delivery goroutine, one message at a
// time. A slow handler fills the inbound buffer; it never blocks the
// network loop or reconnection.
type MessageHandler func(msg Message)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Client supervises the MQTT session for the dashboard.
//
// It owns the connection lifecycle: connect, subscribe to the fixed
// telemetry topic set on every (re)connect, reconnect on a fixed interval
// after transport failures, and gate publishes on a live session.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Callbacks are invoked without any client lock held.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
	topics []string

	state  atomic.Int32
	closed atomic.Bool

	inbox   chan Message
	dropped atomic.Uint64
	done    chan struct{}
	wg      sync.WaitGroup
	start   sync.Once
	stop    sync.Once

	// Callbacks for lifecycle events (optional).
	onConnected    func()
	onMessage      MessageHandler
	onDisconnected func(err error)
	callbackMu     sync.RWMutex

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a supervisor for the given broker configuration.
//
// No network activity happens until Connect is called.
//
// Parameters:
//   - cfg: MQTT configuration from config.yaml
//   - topics: The fixed topic set subscribed on every connect
//
// Returns:
//   - *Client: Disconnected client ready for Connect
func New(cfg config.MQTTConfig, topics []string) *Client {
	buffer := cfg.InboundBuffer
	if buffer <= 0 {
		buffer = defaultInboundBuffer
	}

	c := &Client{
		cfg:    cfg,
		topics: append([]string(nil), topics...),
		inbox:  make(chan Message, buffer),
		done:   make(chan struct{}),
		logger: noopLogger{},
	}

	opts := buildClientOptions(cfg)
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleConnectionLost(err)
	})
	opts.SetReconnectingHandler(func(_ pahomqtt.Client, _ *pahomqtt.ClientOptions) {
		c.setState(StateReconnecting)
		c.getLogger().Debug("mqtt reconnecting", "broker", brokerURL(c.cfg))
	})
	c.client = pahomqtt.NewClient(opts)

	return c
}

// Connect starts the session and waits for the first successful connection.
//
// Connection attempts continue in the background on the fixed retry
// interval even when Connect returns an error, so a broker that comes up
// later is picked up without restarting. Call Close to stop retrying.
//
// Parameters:
//   - ctx: Bounds how long Connect waits for the first connection
//
// Returns:
//   - error: ErrConnectionFailed (wrapped) on timeout, cancellation or refusal;
//     ErrClosed after Close
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.start.Do(func() {
		c.wg.Add(1)
		go c.deliver()
	})

	c.setState(StateConnecting)
	c.getLogger().Info("connecting to mqtt broker", "broker", brokerURL(c.cfg))

	token := c.client.Connect()

	timer := time.NewTimer(defaultConnectTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrConnectionFailed, ctx.Err())
	case <-timer.C:
		return fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return nil
}

// handleConnect runs on paho's on-connect goroutine after every successful
// (re)connect.
func (c *Client) handleConnect() {
	if c.closed.Load() {
		return
	}
	c.setState(StateConnected)

	failed := c.subscribeAll()
	c.getLogger().Info("mqtt connected",
		"broker", brokerURL(c.cfg),
		"subscribed", len(c.topics)-failed,
		"failed", failed,
	)

	c.callbackMu.RLock()
	callback := c.onConnected
	c.callbackMu.RUnlock()
	if callback != nil {
		callback()
	}
}

// handleConnectionLost is called by paho when the transport drops.
func (c *Client) handleConnectionLost(err error) {
	if c.closed.Load() {
		return
	}
	c.setState(StateReconnecting)
	c.getLogger().Warn("mqtt connection lost", "error", err)

	c.callbackMu.RLock()
	callback := c.onDisconnected
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// enqueue hands a received message to the delivery goroutine, dropping it
// when the buffer is full.
func (c *Client) enqueue(msg Message) {
	select {
	case c.inbox <- msg:
	default:
		c.dropped.Add(1)
		c.getLogger().Warn("mqtt inbound buffer full, message dropped", "topic", msg.Topic)
	}
}

// deliver drains the inbound buffer until Close.
func (c *Client) deliver() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.inbox:
			c.dispatch(msg)
		}
	}
}

// dispatch invokes the message callback with panic recovery.
func (c *Client) dispatch(msg Message) {
	c.callbackMu.RLock()
	handler := c.onMessage
	c.callbackMu.RUnlock()
	if handler == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			c.getLogger().Error("MQTT handler panic recovered",
				"topic", msg.Topic,
				"panic", r,
			)
		}
	}()

	handler(msg)
}

// Close tears the session down and stops the delivery goroutine.
//
// Pending buffered messages are discarded. Close is idempotent; after it
// returns no callback will be invoked again.
//
// Returns:
//   - error: Always nil; present for io.Closer compatibility
func (c *Client) Close() error {
	c.stop.Do(func() {
		c.closed.Store(true)
		if c.client != nil {
			c.client.Disconnect(defaultDisconnectQuiesce)
		}
		c.setState(StateDisconnected)
		close(c.done)
		c.wg.Wait()
		c.getLogger().Info("mqtt client closed")
	})
	return nil
}

// HealthCheck reports whether the session is live.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if connected, ErrNotConnected otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	return nil
}

// IsConnected returns true when the supervisor is in StateConnected and the
// underlying transport agrees.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected && c.client != nil && c.client.IsConnectionOpen()
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

// Dropped returns how many inbound messages were discarded because the
// buffer was full.
func (c *Client) Dropped() uint64 {
	return c.dropped.Load()
}

// OnConnected sets a callback invoked after every successful (re)connect,
// once the topic set has been subscribed.
func (c *Client) OnConnected(callback func()) {
	c.callbackMu.Lock()
	c.onConnected = callback
	c.callbackMu.Unlock()
}

// OnMessage sets the callback that receives every inbound message.
func (c *Client) OnMessage(handler MessageHandler) {
	c.callbackMu.Lock()
	c.onMessage = handler
	c.callbackMu.Unlock()
}

// OnDisconnected sets a callback invoked when the connection is lost
// involuntarily. It is not called for Close.
func (c *Client) OnDisconnected(callback func(err error)) {
	c.callbackMu.Lock()
	c.onDisconnected = callback
	c.callbackMu.Unlock()
}

// SetLogger sets a logger for lifecycle and error logging.
func (c *Client) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}
