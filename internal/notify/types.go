package notify

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/device"
)

// Persistence keys.
const (
	HistoryKey     = "notification-history"
	PreferencesKey = "notification-preferences"
)

// HistoryCapacity is the maximum number of notifications kept.
const HistoryCapacity = 50

// Category classifies a notification.
type Category string

// Notification categories.
const (
	CategoryMotion      Category = "motion"
	CategoryTemperature Category = "temperature"
	CategoryDevice      Category = "device"
)

// Notice is a notification request from a producer.
type Notice struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Category Category `json:"type"`
}

// Item is a notification recorded in the history.
type Item struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Category  Category  `json:"type"`
	Read      bool      `json:"read"`
}

// Preferences controls which notifications are recorded.
type Preferences struct {
	Motion                   bool    `json:"motion"`
	TemperatureHigh          bool    `json:"temperatureHigh"`
	TemperatureHighThreshold float64 `json:"temperatureHighThreshold"`
	TemperatureLow           bool    `json:"temperatureLow"`
	TemperatureLowThreshold  float64 `json:"temperatureLowThreshold"`
	DeviceStateChanges       bool    `json:"deviceStateChanges"`
}

// DefaultPreferences returns the preferences used until the user changes them.
func DefaultPreferences() Preferences {
	return Preferences{
		Motion:                   true,
		TemperatureHigh:          true,
		TemperatureHighThreshold: 30,
		TemperatureLow:           true,
		TemperatureLowThreshold:  15,
		DeviceStateChanges:       true,
	}
}

// Allows reports whether a notice of the given category passes the
// preferences. Temperature notices are gated by TemperatureNotices instead.
func (p Preferences) Allows(c Category) bool {
	switch c {
	case CategoryMotion:
		return p.Motion
	case CategoryDevice:
		return p.DeviceStateChanges
	case CategoryTemperature:
		return true
	default:
		return false
	}
}

// PreferencesUpdate is a partial update; nil fields are left unchanged.
type PreferencesUpdate struct {
	Motion                   *bool    `json:"motion,omitempty"`
	TemperatureHigh          *bool    `json:"temperatureHigh,omitempty"`
	TemperatureHighThreshold *float64 `json:"temperatureHighThreshold,omitempty"`
	TemperatureLow           *bool    `json:"temperatureLow,omitempty"`
	TemperatureLowThreshold  *float64 `json:"temperatureLowThreshold,omitempty"`
	DeviceStateChanges       *bool    `json:"deviceStateChanges,omitempty"`
}

// Apply returns p with the non-nil fields of u applied.
func (u PreferencesUpdate) Apply(p Preferences) (Preferences, error) {
	for _, v := range []*float64{u.TemperatureHighThreshold, u.TemperatureLowThreshold} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return p, fmt.Errorf("%w: threshold must be a finite number", ErrInvalidPreferences)
		}
	}

	if u.Motion != nil {
		p.Motion = *u.Motion
	}
	if u.TemperatureHigh != nil {
		p.TemperatureHigh = *u.TemperatureHigh
	}
	if u.TemperatureHighThreshold != nil {
		p.TemperatureHighThreshold = *u.TemperatureHighThreshold
	}
	if u.TemperatureLow != nil {
		p.TemperatureLow = *u.TemperatureLow
	}
	if u.TemperatureLowThreshold != nil {
		p.TemperatureLowThreshold = *u.TemperatureLowThreshold
	}
	if u.DeviceStateChanges != nil {
		p.DeviceStateChanges = *u.DeviceStateChanges
	}
	return p, nil
}

// TemperatureNotices returns the alerts a temperature reading raises under p.
// An unparseable reading raises none.
func TemperatureNotices(p Preferences, reading device.Reading) []Notice {
	temp, ok := reading.Float()
	if !ok {
		return nil
	}

	var notices []Notice
	if p.TemperatureHigh && temp > p.TemperatureHighThreshold {
		notices = append(notices, Notice{
			Title: "High Temperature Alert",
			Body: fmt.Sprintf("Temperature is %s°C, above threshold of %s°C",
				formatNumber(temp), formatNumber(p.TemperatureHighThreshold)),
			Category: CategoryTemperature,
		})
	}
	if p.TemperatureLow && temp < p.TemperatureLowThreshold {
		notices = append(notices, Notice{
			Title: "Low Temperature Alert",
			Body: fmt.Sprintf("Temperature is %s°C, below threshold of %s°C",
				formatNumber(temp), formatNumber(p.TemperatureLowThreshold)),
			Category: CategoryTemperature,
		})
	}
	return notices
}

// formatNumber prints the shortest representation ("32", "31.5").
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
