package automation

// Rule is a user-defined automation: when every trigger matches, the
// actions are emitted in order.
type Rule struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Enabled  bool      `json:"enabled"`
	Triggers []Trigger `json:"-"`
	Actions  []Action  `json:"-"`
}

// Clone returns an independent copy of the rule.
// Trigger and action variants are immutable values, so copying the slices
// is enough.
func (r Rule) Clone() Rule {
	cpy := r
	if r.Triggers != nil {
		cpy.Triggers = append([]Trigger(nil), r.Triggers...)
	}
	if r.Actions != nil {
		cpy.Actions = append([]Action(nil), r.Actions...)
	}
	return cpy
}

// =============================================================================
// Triggers
// =============================================================================

// TriggerKind is the wire name of a trigger variant.
type TriggerKind string

// Trigger kinds.
const (
	TriggerMotion      TriggerKind = "motion"
	TriggerTemperature TriggerKind = "temperature"
	TriggerHumidity    TriggerKind = "humidity"
	TriggerTime        TriggerKind = "time"
)

// Trigger is one condition of a rule. The set of implementations is closed:
// MotionTrigger, ThresholdTrigger and TimeTrigger.
type Trigger interface {
	Kind() TriggerKind
	isTrigger()
}

// Comparison is the operator of a threshold trigger.
type Comparison string

// Comparison operators. Equal is exact floating-point equality.
const (
	GreaterThan Comparison = ">"
	LessThan    Comparison = "<"
	Equal       Comparison = "="
)

// Sensor selects the reading a threshold trigger compares.
type Sensor string

// Sensors.
const (
	SensorTemperature Sensor = "temperature"
	SensorHumidity    Sensor = "humidity"
)

// MotionTrigger matches while the motion sensor reports DETECTED.
type MotionTrigger struct{}

// Kind implements Trigger.
func (MotionTrigger) Kind() TriggerKind { return TriggerMotion }
func (MotionTrigger) isTrigger()        {}

// ThresholdTrigger compares a numeric sensor reading against Value.
type ThresholdTrigger struct {
	Sensor Sensor
	Op     Comparison
	Value  float64
}

// Kind implements Trigger.
func (t ThresholdTrigger) Kind() TriggerKind {
	if t.Sensor == SensorHumidity {
		return TriggerHumidity
	}
	return TriggerTemperature
}
func (ThresholdTrigger) isTrigger() {}

// TimeTrigger matches during one hour of the day (0-23, local site time).
type TimeTrigger struct {
	Hour int
}

// Kind implements Trigger.
func (TimeTrigger) Kind() TriggerKind { return TriggerTime }
func (TimeTrigger) isTrigger()        {}

// =============================================================================
// Actions
// =============================================================================

// ActionKind is the wire name of an action variant.
type ActionKind string

// Action kinds.
const (
	ActionBulb     ActionKind = "bulb"
	ActionFan      ActionKind = "fan"
	ActionFanSpeed ActionKind = "fanSpeed"
	ActionColor    ActionKind = "color"
	ActionMode     ActionKind = "mode"
)

// Action is a device command emitted by a firing rule. The set of
// implementations is closed: SwitchAction, FanSpeedAction, ColorAction and
// ModeAction.
type Action interface {
	Kind() ActionKind
	isAction()
}

// Switch names an on/off output of the device.
type Switch string

// Switches.
const (
	SwitchBulb Switch = "bulb"
	SwitchFan  Switch = "fan"
)

// SwitchAction turns the bulb or fan on or off.
type SwitchAction struct {
	Target Switch
	On     bool
}

// Kind implements Action.
func (a SwitchAction) Kind() ActionKind {
	if a.Target == SwitchFan {
		return ActionFan
	}
	return ActionBulb
}
func (SwitchAction) isAction() {}

// FanSpeedAction sets the fan speed percentage. It is clamped to 0-100
// when dispatched, not here.
type FanSpeedAction struct {
	Speed int
}

// Kind implements Action.
func (FanSpeedAction) Kind() ActionKind { return ActionFanSpeed }
func (FanSpeedAction) isAction()        {}

// ColorAction sets the bulb colour (#RRGGBB).
type ColorAction struct {
	Color string
}

// Kind implements Action.
func (ColorAction) Kind() ActionKind { return ActionColor }
func (ColorAction) isAction()        {}

// ModeAction sets the operating mode. Mode is AUTO, MANUAL or TOGGLE.
type ModeAction struct {
	Mode string
}

// Kind implements Action.
func (ModeAction) Kind() ActionKind { return ActionMode }
func (ModeAction) isAction()        {}
