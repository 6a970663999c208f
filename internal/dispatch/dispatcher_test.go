package dispatch

import (
	"errors"
	"sync"
	"testing"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/automation"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/mqtt"
)

// ============================================================================
// Mocks
// ============================================================================

type published struct {
	topic   string
	payload string
}

// mockPublisher records publishes and can fail selected topics.
type mockPublisher struct {
	mu      sync.Mutex
	sent    []published
	failOn  map[string]error
	failAll error
}

func (m *mockPublisher) PublishString(topic, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	if err, ok := m.failOn[topic]; ok {
		return err
	}
	m.sent = append(m.sent, published{topic: topic, payload: payload})
	return nil
}

func newTestDispatcher() (*Dispatcher, *mockPublisher) {
	pub := &mockPublisher{failOn: map[string]error{}}
	return New(pub, mqtt.Topics{}), pub
}

// ============================================================================
// Commands
// ============================================================================

func TestDispatcher_Commands(t *testing.T) {
	tests := []struct {
		name        string
		call        func(d *Dispatcher) error
		wantTopic   string
		wantPayload string
	}{
		{"bulb on", func(d *Dispatcher) error { return d.SetBulb(true) }, "nikhil/home/control/bulb", "ON"},
		{"bulb off", func(d *Dispatcher) error { return d.SetBulb(false) }, "nikhil/home/control/bulb", "OFF"},
		{"fan on", func(d *Dispatcher) error { return d.SetFan(true) }, "nikhil/home/control/fan", "ON"},
		{"fan speed", func(d *Dispatcher) error { return d.SetFanSpeed(55) }, "nikhil/home/control/fan/speed", "55"},
		{"fan speed clamped high", func(d *Dispatcher) error { return d.SetFanSpeed(150) }, "nikhil/home/control/fan/speed", "100"},
		{"fan speed clamped low", func(d *Dispatcher) error { return d.SetFanSpeed(-20) }, "nikhil/home/control/fan/speed", "0"},
		{"color uppercased", func(d *Dispatcher) error { return d.SetColor("#ff00aa") }, "nikhil/home/control/color", "#FF00AA"},
		{"mode auto", func(d *Dispatcher) error { return d.SetMode("auto") }, "nikhil/home/control/mode", "AUTO"},
		{"mode manual", func(d *Dispatcher) error { return d.SetMode("MANUAL") }, "nikhil/home/control/mode", "MANUAL"},
		{"toggle", func(d *Dispatcher) error { return d.ToggleMode() }, "nikhil/home/control/mode", "TOGGLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, pub := newTestDispatcher()
			if err := tt.call(d); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(pub.sent) != 1 {
				t.Fatalf("published %d messages, want 1", len(pub.sent))
			}
			got := pub.sent[0]
			if got.topic != tt.wantTopic || got.payload != tt.wantPayload {
				t.Errorf("published %s=%q, want %s=%q", got.topic, got.payload, tt.wantTopic, tt.wantPayload)
			}
		})
	}
}

func TestDispatcher_InvalidCommandsPublishNothing(t *testing.T) {
	tests := []struct {
		name    string
		call    func(d *Dispatcher) error
		wantErr error
	}{
		{"short color", func(d *Dispatcher) error { return d.SetColor("#FFF") }, ErrInvalidColor},
		{"color without hash", func(d *Dispatcher) error { return d.SetColor("FF00AA") }, ErrInvalidColor},
		{"color bad hex", func(d *Dispatcher) error { return d.SetColor("#GG0000") }, ErrInvalidColor},
		{"unknown mode", func(d *Dispatcher) error { return d.SetMode("TURBO") }, ErrInvalidMode},
		{"empty mode", func(d *Dispatcher) error { return d.SetMode("") }, ErrInvalidMode},
		{"nil action", func(d *Dispatcher) error { return d.Dispatch(nil) }, ErrUnsupportedAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, pub := newTestDispatcher()
			err := tt.call(d)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if len(pub.sent) != 0 {
				t.Errorf("published %d messages, want 0", len(pub.sent))
			}
		})
	}
}

func TestDispatcher_NotConnectedPassesThrough(t *testing.T) {
	d, pub := newTestDispatcher()
	pub.failAll = mqtt.ErrNotConnected

	if err := d.SetBulb(true); !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("SetBulb() error = %v, want ErrNotConnected", err)
	}
}

func TestDispatcher_CustomPrefix(t *testing.T) {
	pub := &mockPublisher{}
	d := New(pub, mqtt.Topics{Prefix: "lab/dev1/"})

	if err := d.SetFan(false); err != nil {
		t.Fatalf("SetFan() error = %v", err)
	}
	if pub.sent[0].topic != "lab/dev1/control/fan" {
		t.Errorf("topic = %q, want lab/dev1/control/fan", pub.sent[0].topic)
	}
}

// ============================================================================
// Actions
// ============================================================================

func TestDispatcher_Dispatch(t *testing.T) {
	tests := []struct {
		name        string
		action      automation.Action
		wantTopic   string
		wantPayload string
	}{
		{"bulb", automation.SwitchAction{Target: automation.SwitchBulb, On: true}, "nikhil/home/control/bulb", "ON"},
		{"fan", automation.SwitchAction{Target: automation.SwitchFan, On: false}, "nikhil/home/control/fan", "OFF"},
		{"fan speed", automation.FanSpeedAction{Speed: 999}, "nikhil/home/control/fan/speed", "100"},
		{"color", automation.ColorAction{Color: "#00ff00"}, "nikhil/home/control/color", "#00FF00"},
		{"mode", automation.ModeAction{Mode: "TOGGLE"}, "nikhil/home/control/mode", "TOGGLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, pub := newTestDispatcher()
			if err := d.Dispatch(tt.action); err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			got := pub.sent[0]
			if got.topic != tt.wantTopic || got.payload != tt.wantPayload {
				t.Errorf("published %s=%q, want %s=%q", got.topic, got.payload, tt.wantTopic, tt.wantPayload)
			}
		})
	}
}

func TestDispatcher_DispatchAllContinuesAfterFailure(t *testing.T) {
	d, pub := newTestDispatcher()
	boom := errors.New("broker rejected")
	pub.failOn["nikhil/home/control/fan"] = boom

	err := d.DispatchAll([]automation.Action{
		automation.SwitchAction{Target: automation.SwitchBulb, On: true},
		automation.SwitchAction{Target: automation.SwitchFan, On: true},
		automation.ModeAction{Mode: "AUTO"},
	})

	if !errors.Is(err, boom) {
		t.Fatalf("DispatchAll() error = %v, want %v", err, boom)
	}
	if len(pub.sent) != 2 {
		t.Fatalf("published %d messages, want 2", len(pub.sent))
	}
	if pub.sent[0].topic != "nikhil/home/control/bulb" || pub.sent[1].topic != "nikhil/home/control/mode" {
		t.Errorf("unexpected publish order: %+v", pub.sent)
	}
}

func TestDispatcher_DispatchAllEmpty(t *testing.T) {
	d, pub := newTestDispatcher()
	if err := d.DispatchAll(nil); err != nil {
		t.Errorf("DispatchAll(nil) error = %v", err)
	}
	if len(pub.sent) != 0 {
		t.Errorf("published %d messages, want 0", len(pub.sent))
	}
}

func TestClampFanSpeed(t *testing.T) {
	tests := []struct{ in, want int }{
		{-1, 0}, {0, 0}, {42, 42}, {100, 100}, {101, 100},
	}
	for _, tt := range tests {
		if got := ClampFanSpeed(tt.in); got != tt.want {
			t.Errorf("ClampFanSpeed(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
