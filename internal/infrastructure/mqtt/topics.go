package mqtt

import "strings"

// DefaultTopicPrefix is the prefix the device firmware publishes under.
const DefaultTopicPrefix = "nikhil/home"

// Topics provides builders for the device's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{Prefix: "nikhil/home"}
//	topics.Temperature()  // "nikhil/home/temp"
//	topics.ControlFan()   // "nikhil/home/control/fan"
type Topics struct {
	// Prefix is prepended to every topic. Empty means DefaultTopicPrefix.
	Prefix string
}

func (t Topics) join(suffix string) string {
	prefix := strings.TrimSuffix(t.Prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return prefix + "/" + suffix
}

// =============================================================================
// Telemetry Topics (device → dashboard)
// =============================================================================

// Temperature returns the temperature reading topic.
func (t Topics) Temperature() string { return t.join("temp") }

// Humidity returns the humidity reading topic.
func (t Topics) Humidity() string { return t.join("hum") }

// FanSpeed returns the reported fan speed topic.
func (t Topics) FanSpeed() string { return t.join("fan/speed") }

// Bulb returns the reported bulb on/off topic.
func (t Topics) Bulb() string { return t.join("bulb") }

// Fan returns the reported fan on/off topic.
func (t Topics) Fan() string { return t.join("fan") }

// Color returns the reported bulb colour topic.
func (t Topics) Color() string { return t.join("color") }

// Mode returns the reported operating mode topic.
func (t Topics) Mode() string { return t.join("mode") }

// Motion returns the motion sensor topic.
func (t Topics) Motion() string { return t.join("motion") }

// Telemetry returns the fixed subscription set, in a stable order.
func (t Topics) Telemetry() []string {
	return []string{
		t.Temperature(),
		t.Humidity(),
		t.FanSpeed(),
		t.Bulb(),
		t.Fan(),
		t.Color(),
		t.Mode(),
		t.Motion(),
	}
}

// =============================================================================
// Control Topics (dashboard → device)
// =============================================================================

// ControlBulb returns the bulb command topic. Payload: "ON" or "OFF".
func (t Topics) ControlBulb() string { return t.join("control/bulb") }

// ControlFan returns the fan command topic. Payload: "ON" or "OFF".
func (t Topics) ControlFan() string { return t.join("control/fan") }

// ControlFanSpeed returns the fan speed command topic. Payload: 0-100.
func (t Topics) ControlFanSpeed() string { return t.join("control/fan/speed") }

// ControlColor returns the colour command topic. Payload: "#RRGGBB".
func (t Topics) ControlColor() string { return t.join("control/color") }

// ControlMode returns the mode command topic.
// Payload: "AUTO", "MANUAL" or "TOGGLE".
func (t Topics) ControlMode() string { return t.join("control/mode") }
