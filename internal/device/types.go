package device

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// UnknownReading is the placeholder shown before the first reading arrives.
const UnknownReading Reading = "--"

// DefaultColor is the bulb colour assumed before the device reports one.
const DefaultColor = "#FFFFFF"

// Reading is a sensor value exactly as the device sent it.
//
// The raw text is kept even when it does not parse, so "abc" stays "abc".
type Reading string

// Float parses the reading as a decimal number.
// ok is false for unknown, empty, non-numeric, NaN or infinite values.
func (r Reading) Float() (value float64, ok bool) {
	s := strings.TrimSpace(string(r))
	if s == "" || r == UnknownReading {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Int parses the reading as an integer, truncating any fractional part
// ("55.9" gives 55).
func (r Reading) Int() (value int, ok bool) {
	s := strings.TrimSpace(string(r))
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, ok := r.Float()
	if !ok || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// Known reports whether a reading has been received.
func (r Reading) Known() bool {
	return r != UnknownReading && r != ""
}

// String returns the raw text.
func (r Reading) String() string {
	return string(r)
}

// Mode is the device's operating mode.
type Mode string

// Operating modes.
const (
	ModeAuto   Mode = "AUTO"
	ModeManual Mode = "MANUAL"
)

// ParseMode converts a payload token into a Mode.
// Surrounding whitespace and letter case are ignored.
func ParseMode(token string) (Mode, error) {
	switch m := Mode(strings.ToUpper(strings.TrimSpace(token))); m {
	case ModeAuto, ModeManual:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, token)
	}
}

// Motion is the motion sensor's level.
type Motion string

// Motion levels.
const (
	MotionDetected Motion = "DETECTED"
	MotionNone     Motion = "NONE"
)

// ParseMotion converts a payload token into a Motion.
func ParseMotion(token string) (Motion, error) {
	switch m := Motion(strings.ToUpper(strings.TrimSpace(token))); m {
	case MotionDetected, MotionNone:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMotion, token)
	}
}

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// CanonicalColor validates a #RRGGBB colour and returns it uppercased.
func CanonicalColor(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !colorPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return strings.ToUpper(s), nil
}

// State is one snapshot of everything known about the device.
type State struct {
	Temperature Reading `json:"temperature"`
	Humidity    Reading `json:"humidity"`

	// FanSpeed is the reported percentage. It is passed through unclamped.
	FanSpeed Reading `json:"fanSpeed"`

	BulbOn bool   `json:"bulbOn"`
	FanOn  bool   `json:"fanOn"`
	Color  string `json:"color"`
	Mode   Mode   `json:"mode"`
	Motion Motion `json:"motion"`

	// LastMotionTime changes only on a transition into MotionDetected.
	LastMotionTime time.Time `json:"lastMotionTime,omitzero"`

	// LastSeen is the receive time of the most recent routed message.
	LastSeen time.Time `json:"lastSeen,omitzero"`

	Online bool `json:"online"`
}

// InitialState returns the state assumed at process start.
func InitialState() State {
	return State{
		Temperature: UnknownReading,
		Humidity:    UnknownReading,
		FanSpeed:    UnknownReading,
		Color:       DefaultColor,
		Mode:        ModeAuto,
		Motion:      MotionNone,
	}
}

// Equal reports whether two snapshots carry the same values.
// Timestamps are compared with time.Time.Equal.
func (s State) Equal(o State) bool {
	return s.Temperature == o.Temperature &&
		s.Humidity == o.Humidity &&
		s.FanSpeed == o.FanSpeed &&
		s.BulbOn == o.BulbOn &&
		s.FanOn == o.FanOn &&
		s.Color == o.Color &&
		s.Mode == o.Mode &&
		s.Motion == o.Motion &&
		s.LastMotionTime.Equal(o.LastMotionTime) &&
		s.LastSeen.Equal(o.LastSeen) &&
		s.Online == o.Online
}

// OnOff renders a boolean as the device's "ON"/"OFF" token.
func OnOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
