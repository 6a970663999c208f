package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/activity"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/device"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/mqtt"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/notify"
)

// Field names for routed topics, used in logs and metrics.
const (
	FieldTemperature = "temperature"
	FieldHumidity    = "humidity"
	FieldFanSpeed    = "fan_speed"
	FieldBulb        = "bulb"
	FieldFan         = "fan"
	FieldColor       = "color"
	FieldMode        = "mode"
	FieldMotion      = "motion"
)

// Result is the outcome of decoding one message.
type Result struct {
	// Next is the full state after the message.
	Next device.State

	// Event is appended to the activity log when non-nil.
	Event *activity.Event

	// Notice is sent to the notification center when non-nil.
	Notice *notify.Notice

	// Err wraps ErrDecode when the payload was not understood. Next is
	// still valid and carries whatever could be applied.
	Err error
}

// Decoder applies one payload to the previous state. Decoders are pure and
// must not block.
type Decoder func(prev device.State, payload string, now time.Time) Result

type route struct {
	field  string
	decode Decoder
}

// Router maps telemetry topics to decoders.
type Router struct {
	routes map[string]route
}

// NewRouter builds the dispatch table for the device's telemetry topics.
func NewRouter(topics mqtt.Topics) *Router {
	return &Router{
		routes: map[string]route{
			topics.Temperature(): {FieldTemperature, decodeTemperature},
			topics.Humidity():    {FieldHumidity, decodeHumidity},
			topics.FanSpeed():    {FieldFanSpeed, decodeFanSpeed},
			topics.Bulb():        {FieldBulb, decodeBulb},
			topics.Fan():         {FieldFan, decodeFan},
			topics.Color():       {FieldColor, decodeColor},
			topics.Mode():        {FieldMode, decodeMode},
			topics.Motion():      {FieldMotion, decodeMotion},
		},
	}
}

// Field returns the field name a topic is routed to.
func (r *Router) Field(topic string) (string, bool) {
	rt, ok := r.routes[topic]
	return rt.field, ok
}

// Route decodes payload for topic against prev.
//
// Unknown topics return ok=false and leave the state alone. For routed
// topics the result always has LastSeen=now and Online=true, even when the
// payload was not understood.
//
// Parameters:
//   - topic: Full MQTT topic the message arrived on
//   - prev: State before the message
//   - payload: Raw payload text
//   - now: Receive time
//
// Returns:
//   - Result: Next state and derived side effects
//   - bool: False if the topic is not routed
func (r *Router) Route(topic string, prev device.State, payload string, now time.Time) (Result, bool) {
	rt, ok := r.routes[topic]
	if !ok {
		return Result{Next: prev}, false
	}

	res := rt.decode(prev, payload, now)
	if res.Err != nil {
		res.Err = fmt.Errorf("%w: %s: %w", ErrDecode, rt.field, res.Err)
	}
	res.Next.LastSeen = now
	res.Next.Online = true
	return res, true
}

// =============================================================================
// Decoders
// =============================================================================

func event(category activity.Category, now time.Time, format string, args ...any) *activity.Event {
	return &activity.Event{
		Timestamp: now,
		Category:  category,
		Message:   fmt.Sprintf(format, args...),
	}
}

// checkNumber reports non-numeric readings. The raw text is kept either way.
func checkNumber(r device.Reading) error {
	if _, ok := r.Float(); !ok {
		return fmt.Errorf("not a number: %q", string(r))
	}
	return nil
}

func decodeTemperature(prev device.State, payload string, _ time.Time) Result {
	prev.Temperature = device.Reading(payload)
	return Result{Next: prev, Err: checkNumber(prev.Temperature)}
}

func decodeHumidity(prev device.State, payload string, _ time.Time) Result {
	prev.Humidity = device.Reading(payload)
	return Result{Next: prev, Err: checkNumber(prev.Humidity)}
}

func decodeFanSpeed(prev device.State, payload string, now time.Time) Result {
	prev.FanSpeed = device.Reading(payload)
	res := Result{
		Next:  prev,
		Event: event(activity.CategorySpeed, now, "Fan speed set to %s%%", payload),
	}
	if _, ok := prev.FanSpeed.Int(); !ok {
		res.Err = fmt.Errorf("not an integer: %q", payload)
	}
	return res
}

func decodeBulb(prev device.State, payload string, now time.Time) Result {
	prev.BulbOn = payload == "ON"
	return Result{
		Next:  prev,
		Event: event(activity.CategoryBulb, now, "Bulb turned %s", payload),
		Notice: &notify.Notice{
			Title:    "Bulb " + payload,
			Body:     "RGB bulb has been turned " + strings.ToLower(payload),
			Category: notify.CategoryDevice,
		},
	}
}

func decodeFan(prev device.State, payload string, now time.Time) Result {
	prev.FanOn = payload == "ON"
	return Result{
		Next:  prev,
		Event: event(activity.CategoryFan, now, "Fan turned %s", payload),
		Notice: &notify.Notice{
			Title:    "Fan " + payload,
			Body:     "Fan has been turned " + strings.ToLower(payload),
			Category: notify.CategoryDevice,
		},
	}
}

func decodeColor(prev device.State, payload string, now time.Time) Result {
	color, err := device.CanonicalColor(payload)
	if err != nil {
		return Result{Next: prev, Err: err}
	}
	prev.Color = color
	return Result{
		Next:  prev,
		Event: event(activity.CategoryColor, now, "Color changed to %s", color),
	}
}

func decodeMode(prev device.State, payload string, now time.Time) Result {
	mode, err := device.ParseMode(payload)
	if err != nil {
		return Result{Next: prev, Err: err}
	}
	prev.Mode = mode
	return Result{
		Next:  prev,
		Event: event(activity.CategoryMode, now, "Mode changed to %s", mode),
	}
}

// decodeMotion logs and notifies every DETECTED, but LastMotionTime moves
// only on the transition into DETECTED. A repeated NONE updates lastSeen
// and nothing else.
func decodeMotion(prev device.State, payload string, now time.Time) Result {
	motion, err := device.ParseMotion(payload)
	if err != nil {
		return Result{Next: prev, Err: err}
	}

	was := prev.Motion
	prev.Motion = motion
	res := Result{Next: prev}

	switch {
	case motion == device.MotionDetected:
		if was != device.MotionDetected {
			res.Next.LastMotionTime = now
		}
		res.Event = event(activity.CategoryMotion, now, "Motion detected!")
		res.Notice = &notify.Notice{
			Title:    "Motion Detected",
			Body:     "Movement detected in your smart home",
			Category: notify.CategoryMotion,
		}
	case motion == was:
	default:
		res.Event = event(activity.CategoryMotion, now, "Motion cleared")
	}
	return res
}
