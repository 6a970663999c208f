package automation

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/device"
)

// Validation constants.
const (
	maxNameLength        = 100
	maxTriggers          = 20
	maxActions           = 20
	maxFanSpeedMagnitude = 1e6
)

// Mode action tokens. TOGGLE asks the device to flip its current mode.
const (
	ModeAuto   = string(device.ModeAuto)
	ModeManual = string(device.ModeManual)
	ModeToggle = "TOGGLE"
)

// ValidateRule checks a rule's name, triggers and actions.
//
// An empty trigger list is valid; such a rule simply never fires.
// A rule must carry at least one action.
func ValidateRule(r *Rule) error {
	if r == nil {
		return ErrInvalidRule
	}
	if err := ValidateName(r.Name); err != nil {
		return err
	}

	if len(r.Triggers) > maxTriggers {
		return fmt.Errorf("%w: exceeds maximum of %d triggers", ErrInvalidRule, maxTriggers)
	}
	for i, t := range r.Triggers {
		if err := ValidateTrigger(t); err != nil {
			return fmt.Errorf("trigger %d: %w", i, err)
		}
	}

	if len(r.Actions) == 0 {
		return fmt.Errorf("%w: at least one action is required", ErrInvalidRule)
	}
	if len(r.Actions) > maxActions {
		return fmt.Errorf("%w: exceeds maximum of %d actions", ErrInvalidRule, maxActions)
	}
	for i, a := range r.Actions {
		if err := ValidateAction(a); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}

// ValidateName checks that a rule name is non-empty and not too long.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateTrigger checks the operands of one trigger.
func ValidateTrigger(t Trigger) error {
	switch v := t.(type) {
	case MotionTrigger:
		return nil
	case ThresholdTrigger:
		if v.Sensor != SensorTemperature && v.Sensor != SensorHumidity {
			return fmt.Errorf("%w: unknown sensor %q", ErrInvalidTrigger, v.Sensor)
		}
		switch v.Op {
		case GreaterThan, LessThan, Equal:
		default:
			return fmt.Errorf("%w: condition must be >, < or =, got %q", ErrInvalidTrigger, v.Op)
		}
		if math.IsNaN(v.Value) || math.IsInf(v.Value, 0) {
			return fmt.Errorf("%w: value must be finite", ErrInvalidTrigger)
		}
		return nil
	case TimeTrigger:
		if v.Hour < 0 || v.Hour > 23 {
			return fmt.Errorf("%w: hour must be 0-23, got %d", ErrInvalidTrigger, v.Hour)
		}
		return nil
	case nil:
		return fmt.Errorf("%w: nil trigger", ErrInvalidTrigger)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidTrigger, t)
	}
}

// ValidateAction checks the value of one action.
func ValidateAction(a Action) error {
	switch v := a.(type) {
	case SwitchAction:
		if v.Target != SwitchBulb && v.Target != SwitchFan {
			return fmt.Errorf("%w: unknown switch %q", ErrInvalidAction, v.Target)
		}
		return nil
	case FanSpeedAction:
		return nil
	case ColorAction:
		if _, err := device.CanonicalColor(v.Color); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidAction, err)
		}
		return nil
	case ModeAction:
		switch strings.ToUpper(v.Mode) {
		case ModeAuto, ModeManual, ModeToggle:
			return nil
		default:
			return fmt.Errorf("%w: mode must be AUTO, MANUAL or TOGGLE, got %q", ErrInvalidAction, v.Mode)
		}
	case nil:
		return fmt.Errorf("%w: nil action", ErrInvalidAction)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidAction, a)
	}
}

// GenerateID returns a new unique rule ID.
func GenerateID() string {
	return uuid.NewString()
}
