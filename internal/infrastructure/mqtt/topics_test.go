package mqtt

import (
	"strings"
	"testing"
)

func TestTopics(t *testing.T) {
	topics := Topics{Prefix: "nikhil/home"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Temperature", topics.Temperature(), "nikhil/home/temp"},
		{"Humidity", topics.Humidity(), "nikhil/home/hum"},
		{"FanSpeed", topics.FanSpeed(), "nikhil/home/fan/speed"},
		{"Bulb", topics.Bulb(), "nikhil/home/bulb"},
		{"Fan", topics.Fan(), "nikhil/home/fan"},
		{"Color", topics.Color(), "nikhil/home/color"},
		{"Mode", topics.Mode(), "nikhil/home/mode"},
		{"Motion", topics.Motion(), "nikhil/home/motion"},
		{"ControlBulb", topics.ControlBulb(), "nikhil/home/control/bulb"},
		{"ControlFan", topics.ControlFan(), "nikhil/home/control/fan"},
		{"ControlFanSpeed", topics.ControlFanSpeed(), "nikhil/home/control/fan/speed"},
		{"ControlColor", topics.ControlColor(), "nikhil/home/control/color"},
		{"ControlMode", topics.ControlMode(), "nikhil/home/control/mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s() = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestTopics_PrefixNormalisation(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "nikhil/home/bulb"},
		{"lab/", "lab/bulb"},
		{"lab", "lab/bulb"},
	}

	for _, tt := range tests {
		if got := (Topics{Prefix: tt.prefix}).Bulb(); got != tt.want {
			t.Errorf("Topics{%q}.Bulb() = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestTopics_TelemetryExcludesControl(t *testing.T) {
	for _, topic := range (Topics{}).Telemetry() {
		if strings.HasPrefix(topic, "nikhil/home/control/") {
			t.Errorf("Telemetry() contains control topic %q", topic)
		}
	}
}
