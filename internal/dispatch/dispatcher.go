package dispatch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/automation"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/device"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/metrics"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/mqtt"
)

// Command names, used in logs and metrics.
const (
	CommandBulb     = "bulb"
	CommandFan      = "fan"
	CommandFanSpeed = "fan_speed"
	CommandColor    = "color"
	CommandMode     = "mode"
)

// Fan speed bounds applied at the command boundary.
const (
	MinFanSpeed = 0
	MaxFanSpeed = 100
)

// Publisher sends one text payload to a topic.
// mqtt.Client satisfies it.
type Publisher interface {
	PublishString(topic, payload string) error
}

// Logger defines the logging interface used by the Dispatcher.
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

// Dispatcher publishes control commands for the device.
// It holds no mutable state and is safe for concurrent use.
type Dispatcher struct {
	pub    Publisher
	topics mqtt.Topics
	logger Logger
}

// New creates a Dispatcher that publishes through pub on topics.
func New(pub Publisher, topics mqtt.Topics) *Dispatcher {
	return &Dispatcher{
		pub:    pub,
		topics: topics,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	d.logger = logger
}

// SetBulb switches the bulb on or off.
func (d *Dispatcher) SetBulb(on bool) error {
	return d.publish(CommandBulb, d.topics.ControlBulb(), device.OnOff(on))
}

// SetFan switches the fan on or off.
func (d *Dispatcher) SetFan(on bool) error {
	return d.publish(CommandFan, d.topics.ControlFan(), device.OnOff(on))
}

// SetFanSpeed publishes speed clamped to 0-100.
func (d *Dispatcher) SetFanSpeed(speed int) error {
	return d.publish(CommandFanSpeed, d.topics.ControlFanSpeed(), strconv.Itoa(ClampFanSpeed(speed)))
}

// SetColor publishes a #RRGGBB colour in uppercase.
// Returns ErrInvalidColor without publishing if color is malformed.
func (d *Dispatcher) SetColor(color string) error {
	canonical, err := device.CanonicalColor(color)
	if err != nil {
		return fmt.Errorf("%w: %q (expected #RRGGBB)", ErrInvalidColor, color)
	}
	return d.publish(CommandColor, d.topics.ControlColor(), canonical)
}

// SetMode publishes AUTO, MANUAL or TOGGLE (case-insensitive).
// Returns ErrInvalidMode without publishing for anything else.
func (d *Dispatcher) SetMode(mode string) error {
	token := strings.ToUpper(strings.TrimSpace(mode))
	switch token {
	case automation.ModeAuto, automation.ModeManual, automation.ModeToggle:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	return d.publish(CommandMode, d.topics.ControlMode(), token)
}

// ToggleMode asks the device to flip between AUTO and MANUAL.
func (d *Dispatcher) ToggleMode() error {
	return d.SetMode(automation.ModeToggle)
}

// Dispatch publishes one automation action.
func (d *Dispatcher) Dispatch(a automation.Action) error {
	switch v := a.(type) {
	case automation.SwitchAction:
		if v.Target == automation.SwitchFan {
			return d.SetFan(v.On)
		}
		return d.SetBulb(v.On)
	case automation.FanSpeedAction:
		return d.SetFanSpeed(v.Speed)
	case automation.ColorAction:
		return d.SetColor(v.Color)
	case automation.ModeAction:
		return d.SetMode(v.Mode)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedAction, a)
	}
}

// DispatchAll publishes actions in order. A failure does not stop the
// remaining actions; all failures are joined into the returned error.
func (d *Dispatcher) DispatchAll(actions []automation.Action) error {
	var errs []error
	for i, a := range actions {
		if err := d.Dispatch(a); err != nil {
			errs = append(errs, fmt.Errorf("action %d (%s): %w", i, kindOf(a), err))
		}
	}
	return errors.Join(errs...)
}

// ClampFanSpeed limits speed to 0-100.
func ClampFanSpeed(speed int) int {
	return max(MinFanSpeed, min(MaxFanSpeed, speed))
}

func (d *Dispatcher) publish(command, topic, payload string) error {
	err := d.pub.PublishString(topic, payload)
	metrics.ObservePublish(command, err)
	if err != nil {
		d.logger.Warn("control publish failed", "command", command, "topic", topic, "payload", payload, "error", err)
		return err
	}
	d.logger.Debug("control published", "command", command, "topic", topic, "payload", payload)
	return nil
}

func kindOf(a automation.Action) string {
	if a == nil {
		return "nil"
	}
	return string(a.Kind())
}
