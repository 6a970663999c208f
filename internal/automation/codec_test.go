package automation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestRule_JSONRoundTrip(t *testing.T) {
	rule := Rule{
		ID:      "abc",
		Name:    "Evening",
		Enabled: true,
		Triggers: []Trigger{
			TimeTrigger{Hour: 19},
			MotionTrigger{},
			ThresholdTrigger{Sensor: SensorHumidity, Op: LessThan, Value: 40.5},
		},
		Actions: []Action{
			SwitchAction{Target: SwitchBulb, On: true},
			ColorAction{Color: "#FFAA00"},
			FanSpeedAction{Speed: 30},
			ModeAction{Mode: "MANUAL"},
		},
	}

	data, err := json.Marshal(rule)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got Rule
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(got, rule) {
		t.Errorf("round trip = %+v, want %+v", got, rule)
	}
}

func TestRule_UnmarshalOriginalShape(t *testing.T) {
	data := `{
		"id": "1712345678901",
		"name": "Hot room",
		"enabled": true,
		"triggers": [{"type": "temperature", "condition": ">", "value": 30}],
		"actions": [{"type": "bulb", "value": true}]
	}`

	var rule Rule
	if err := json.Unmarshal([]byte(data), &rule); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	wantTriggers := []Trigger{ThresholdTrigger{Sensor: SensorTemperature, Op: GreaterThan, Value: 30}}
	wantActions := []Action{SwitchAction{Target: SwitchBulb, On: true}}
	if !reflect.DeepEqual(rule.Triggers, wantTriggers) {
		t.Errorf("Triggers = %+v, want %+v", rule.Triggers, wantTriggers)
	}
	if !reflect.DeepEqual(rule.Actions, wantActions) {
		t.Errorf("Actions = %+v, want %+v", rule.Actions, wantActions)
	}
}

func TestMarshalTrigger_WireForm(t *testing.T) {
	tests := []struct {
		trigger Trigger
		want    string
	}{
		{MotionTrigger{}, `{"type":"motion"}`},
		{ThresholdTrigger{Sensor: SensorTemperature, Op: GreaterThan, Value: 30}, `{"type":"temperature","condition":">","value":30}`},
		{ThresholdTrigger{Sensor: SensorHumidity, Op: Equal, Value: 55.5}, `{"type":"humidity","condition":"=","value":55.5}`},
		{TimeTrigger{Hour: 7}, `{"type":"time","value":7}`},
	}

	for _, tt := range tests {
		got, err := MarshalTrigger(tt.trigger)
		if err != nil {
			t.Fatalf("MarshalTrigger(%v) error = %v", tt.trigger, err)
		}
		if string(got) != tt.want {
			t.Errorf("MarshalTrigger(%v) = %s, want %s", tt.trigger, got, tt.want)
		}
	}
}

func TestMarshalAction_WireForm(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{SwitchAction{Target: SwitchFan, On: false}, `{"type":"fan","value":false}`},
		{FanSpeedAction{Speed: 75}, `{"type":"fanSpeed","value":75}`},
		{ColorAction{Color: "#00FF00"}, `{"type":"color","value":"#00FF00"}`},
		{ModeAction{Mode: "AUTO"}, `{"type":"mode","value":"AUTO"}`},
	}

	for _, tt := range tests {
		got, err := MarshalAction(tt.action)
		if err != nil {
			t.Fatalf("MarshalAction(%v) error = %v", tt.action, err)
		}
		if string(got) != tt.want {
			t.Errorf("MarshalAction(%v) = %s, want %s", tt.action, got, tt.want)
		}
	}
}

func TestUnmarshalTrigger(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Trigger
		wantErr bool
	}{
		{"motion", `{"type":"motion"}`, MotionTrigger{}, false},
		{"string threshold", `{"type":"temperature","condition":"<","value":"18"}`, ThresholdTrigger{SensorTemperature, LessThan, 18}, false},
		{"time zero", `{"type":"time","value":0}`, TimeTrigger{Hour: 0}, false},
		{"unknown type", `{"type":"sunset"}`, nil, true},
		{"missing condition", `{"type":"temperature","value":30}`, nil, true},
		{"bad condition", `{"type":"humidity","condition":">=","value":30}`, nil, true},
		{"missing value", `{"type":"humidity","condition":">"}`, nil, true},
		{"non-numeric value", `{"type":"temperature","condition":">","value":"hot"}`, nil, true},
		{"hour out of range", `{"type":"time","value":24}`, nil, true},
		{"fractional hour", `{"type":"time","value":7.5}`, nil, true},
		{"not an object", `[1,2]`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalTrigger([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalTrigger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTrigger) {
					t.Errorf("error = %v, want ErrInvalidTrigger", err)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("UnmarshalTrigger() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUnmarshalAction(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Action
		wantErr bool
	}{
		{"bulb on", `{"type":"bulb","value":true}`, SwitchAction{SwitchBulb, true}, false},
		{"fan off", `{"type":"fan","value":false}`, SwitchAction{SwitchFan, false}, false},
		{"speed number", `{"type":"fanSpeed","value":120}`, FanSpeedAction{Speed: 120}, false},
		{"speed string", `{"type":"fanSpeed","value":"45"}`, FanSpeedAction{Speed: 45}, false},
		{"color", `{"type":"color","value":"#abcdef"}`, ColorAction{Color: "#abcdef"}, false},
		{"mode toggle", `{"type":"mode","value":"TOGGLE"}`, ModeAction{Mode: "TOGGLE"}, false},
		{"unknown type", `{"type":"scene","value":"x"}`, nil, true},
		{"missing value", `{"type":"bulb"}`, nil, true},
		{"null value", `{"type":"color","value":null}`, nil, true},
		{"bulb string", `{"type":"bulb","value":"yes"}`, nil, true},
		{"bad color", `{"type":"color","value":"red"}`, nil, true},
		{"bad mode", `{"type":"mode","value":"PARTY"}`, nil, true},
		{"huge speed", `{"type":"fanSpeed","value":1e20}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalAction([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalAction() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAction) {
					t.Errorf("error = %v, want ErrInvalidAction", err)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("UnmarshalAction() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRule_UnmarshalRejectsBadTrigger(t *testing.T) {
	data := `{"id":"x","name":"n","enabled":true,"triggers":[{"type":"rainfall"}],"actions":[]}`

	var rule Rule
	err := json.Unmarshal([]byte(data), &rule)
	if !errors.Is(err, ErrInvalidTrigger) {
		t.Errorf("Unmarshal() error = %v, want ErrInvalidTrigger", err)
	}
}

func TestRule_MarshalEmptyListsAsArrays(t *testing.T) {
	data, err := json.Marshal(Rule{ID: "x", Name: "n"})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":"x","name":"n","enabled":false,"triggers":[],"actions":[]}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestRule_MarshalKeepsConditionSymbols(t *testing.T) {
	rule := Rule{
		ID:   "x",
		Name: "Cold & dry",
		Triggers: []Trigger{
			ThresholdTrigger{Sensor: SensorTemperature, Op: LessThan, Value: 10},
			ThresholdTrigger{Sensor: SensorHumidity, Op: GreaterThan, Value: 80},
		},
	}
	data, err := rule.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"condition":"<"`, `"condition":">"`, `"name":"Cold & dry"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Marshal() = %s, want it to contain %s", data, want)
		}
	}
}
