package automation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// triggerJSON is the stored and API form of a trigger:
//
//	{"type":"motion"}
//	{"type":"temperature","condition":">","value":30}
//	{"type":"time","value":7}
type triggerJSON struct {
	Type      TriggerKind     `json:"type"`
	Condition Comparison      `json:"condition,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
}

// actionJSON is the stored and API form of an action:
//
//	{"type":"bulb","value":true}
//	{"type":"fanSpeed","value":60}
//	{"type":"color","value":"#FF0000"}
type actionJSON struct {
	Type  ActionKind      `json:"type"`
	Value json.RawMessage `json:"value"`
}

type ruleJSON struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Enabled  bool              `json:"enabled"`
	Triggers []json.RawMessage `json:"triggers"`
	Actions  []json.RawMessage `json:"actions"`
}

// MarshalJSON encodes the rule with its triggers and actions in wire form.
func (r Rule) MarshalJSON() ([]byte, error) {
	out := ruleJSON{
		ID:       r.ID,
		Name:     r.Name,
		Enabled:  r.Enabled,
		Triggers: make([]json.RawMessage, 0, len(r.Triggers)),
		Actions:  make([]json.RawMessage, 0, len(r.Actions)),
	}
	for _, t := range r.Triggers {
		raw, err := MarshalTrigger(t)
		if err != nil {
			return nil, err
		}
		out.Triggers = append(out.Triggers, raw)
	}
	for _, a := range r.Actions {
		raw, err := MarshalAction(a)
		if err != nil {
			return nil, err
		}
		out.Actions = append(out.Actions, raw)
	}
	return marshal(out)
}

// UnmarshalJSON decodes a rule, rejecting unknown trigger or action kinds.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var in ruleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}

	rule := Rule{ID: in.ID, Name: in.Name, Enabled: in.Enabled}
	for i, raw := range in.Triggers {
		t, err := UnmarshalTrigger(raw)
		if err != nil {
			return fmt.Errorf("trigger %d: %w", i, err)
		}
		rule.Triggers = append(rule.Triggers, t)
	}
	for i, raw := range in.Actions {
		a, err := UnmarshalAction(raw)
		if err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
		rule.Actions = append(rule.Actions, a)
	}

	*r = rule
	return nil
}

// MarshalTrigger encodes one trigger in wire form.
func MarshalTrigger(t Trigger) ([]byte, error) {
	var out triggerJSON
	switch v := t.(type) {
	case MotionTrigger:
		out = triggerJSON{Type: TriggerMotion}
	case ThresholdTrigger:
		out = triggerJSON{Type: v.Kind(), Condition: v.Op, Value: numberJSON(v.Value)}
	case TimeTrigger:
		out = triggerJSON{Type: TriggerTime, Value: numberJSON(float64(v.Hour))}
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidTrigger, t)
	}
	return marshal(out)
}

// UnmarshalTrigger decodes one trigger and validates its operands.
// Numeric values may be JSON numbers or numeric strings.
func UnmarshalTrigger(data []byte) (Trigger, error) {
	var in triggerJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTrigger, err)
	}

	var t Trigger
	switch in.Type {
	case TriggerMotion:
		t = MotionTrigger{}
	case TriggerTemperature, TriggerHumidity:
		value, err := decodeNumber(in.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s value: %w", ErrInvalidTrigger, in.Type, err)
		}
		t = ThresholdTrigger{Sensor: Sensor(in.Type), Op: in.Condition, Value: value}
	case TriggerTime:
		value, err := decodeNumber(in.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: time value: %w", ErrInvalidTrigger, err)
		}
		if value != math.Trunc(value) {
			return nil, fmt.Errorf("%w: time value must be a whole hour", ErrInvalidTrigger)
		}
		t = TimeTrigger{Hour: int(value)}
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidTrigger, in.Type)
	}

	if err := ValidateTrigger(t); err != nil {
		return nil, err
	}
	return t, nil
}

// MarshalAction encodes one action in wire form.
func MarshalAction(a Action) ([]byte, error) {
	var value any
	switch v := a.(type) {
	case SwitchAction:
		value = v.On
	case FanSpeedAction:
		value = v.Speed
	case ColorAction:
		value = v.Color
	case ModeAction:
		value = v.Mode
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidAction, a)
	}

	raw, err := marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAction, err)
	}
	return marshal(actionJSON{Type: a.Kind(), Value: raw})
}

// UnmarshalAction decodes one action and validates its value.
func UnmarshalAction(data []byte) (Action, error) {
	var in actionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAction, err)
	}
	if len(bytes.TrimSpace(in.Value)) == 0 || string(bytes.TrimSpace(in.Value)) == "null" {
		return nil, fmt.Errorf("%w: %s requires a value", ErrInvalidAction, in.Type)
	}

	var a Action
	switch in.Type {
	case ActionBulb, ActionFan:
		var on bool
		if err := json.Unmarshal(in.Value, &on); err != nil {
			return nil, fmt.Errorf("%w: %s value must be true or false", ErrInvalidAction, in.Type)
		}
		a = SwitchAction{Target: Switch(in.Type), On: on}
	case ActionFanSpeed:
		value, err := decodeNumber(in.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: fanSpeed value: %w", ErrInvalidAction, err)
		}
		if math.Abs(value) > maxFanSpeedMagnitude {
			return nil, fmt.Errorf("%w: fanSpeed value %v out of range", ErrInvalidAction, value)
		}
		a = FanSpeedAction{Speed: int(value)}
	case ActionColor:
		var color string
		if err := json.Unmarshal(in.Value, &color); err != nil {
			return nil, fmt.Errorf("%w: color value must be a string", ErrInvalidAction)
		}
		a = ColorAction{Color: color}
	case ActionMode:
		var mode string
		if err := json.Unmarshal(in.Value, &mode); err != nil {
			return nil, fmt.Errorf("%w: mode value must be a string", ErrInvalidAction)
		}
		a = ModeAction{Mode: mode}
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidAction, in.Type)
	}

	if err := ValidateAction(a); err != nil {
		return nil, err
	}
	return a, nil
}

// decodeNumber accepts a JSON number or a string holding one.
func decodeNumber(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, errors.New("missing value")
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return n, nil
}

// marshal is json.Marshal without HTML escaping, so conditions stay ">"
// and "<" on the wire.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func numberJSON(v float64) json.RawMessage {
	return json.RawMessage(strconv.FormatFloat(v, 'f', -1, 64))
}
