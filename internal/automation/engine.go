package automation

import (
	"time"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/device"
)

// Evaluate returns the actions of every enabled rule that fires against
// state at now.
//
// Evaluate is pure: it reads its arguments only and has no side effects,
// so the same inputs always give the same output. Actions are appended in
// rule order, and in declaration order within a rule. Rules never cancel
// each other; two rules that both set the bulb both contribute.
//
// Parameters:
//   - rules: Rules in list order (disabled rules are skipped)
//   - state: Device snapshot to evaluate against
//   - now: Evaluation instant, already in the site's time zone
//
// Returns:
//   - []Action: Triggered actions, nil if none fired
func Evaluate(rules []Rule, state device.State, now time.Time) []Action {
	var actions []Action
	for i := range rules {
		if !rules[i].Enabled {
			continue
		}
		if Fires(rules[i], state, now) {
			actions = append(actions, rules[i].Actions...)
		}
	}
	return actions
}

// Fires reports whether every trigger of r matches. A rule with no
// triggers never fires. Evaluation stops at the first mismatch. The
// Enabled flag is not consulted.
func Fires(r Rule, state device.State, now time.Time) bool {
	if len(r.Triggers) == 0 {
		return false
	}
	for _, t := range r.Triggers {
		if !Matches(t, state, now) {
			return false
		}
	}
	return true
}

// Matches evaluates a single trigger.
//
//   - MotionTrigger: state.Motion is DETECTED (level, not edge)
//   - ThresholdTrigger: the reading parses and compares true; an unparseable
//     reading never matches
//   - TimeTrigger: now.Hour() equals the trigger hour
func Matches(t Trigger, state device.State, now time.Time) bool {
	switch v := t.(type) {
	case MotionTrigger:
		return state.Motion == device.MotionDetected
	case ThresholdTrigger:
		reading := state.Temperature
		if v.Sensor == SensorHumidity {
			reading = state.Humidity
		}
		value, ok := reading.Float()
		if !ok {
			return false
		}
		return compare(value, v.Op, v.Value)
	case TimeTrigger:
		return now.Hour() == v.Hour
	default:
		return false
	}
}

func compare(value float64, op Comparison, threshold float64) bool {
	switch op {
	case GreaterThan:
		return value > threshold
	case LessThan:
		return value < threshold
	case Equal:
		return value == threshold
	default:
		return false
	}
}
