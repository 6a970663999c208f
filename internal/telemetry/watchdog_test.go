package telemetry

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/activity"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/automation"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/device"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/scheduler"
)

func TestIsOnline(t *testing.T) {
	threshold := 60 * time.Second

	tests := []struct {
		name     string
		lastSeen time.Time
		now      time.Time
		want     bool
	}{
		{"never seen", time.Time{}, t0, false},
		{"just seen", t0, t0, true},
		{"inside threshold", t0, t0.Add(59 * time.Second), true},
		{"at threshold", t0, t0.Add(60 * time.Second), false},
		{"past threshold", t0, t0.Add(10 * time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOnline(tt.lastSeen, tt.now, threshold); got != tt.want {
				t.Errorf("IsOnline() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckLiveness_EdgeOnly(t *testing.T) {
	threshold := 60 * time.Second

	online := device.InitialState()
	online.LastSeen = t0
	online.Online = true

	tests := []struct {
		name       string
		prev       device.State
		now        time.Time
		wantOnline bool
		wantEvent  bool
	}{
		{"online stays online", online, t0.Add(time.Second), true, false},
		{"online goes offline", online, t0.Add(threshold), false, true},
		{"offline stays offline", func() device.State { s := online; s.Online = false; return s }(), t0.Add(2 * threshold), false, false},
		{"never seen stays offline", device.InitialState(), t0, false, false},
		{"recovery is silent", func() device.State { s := online; s.Online = false; return s }(), t0.Add(time.Second), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ev := checkLiveness(tt.prev, tt.now, threshold)
			if next.Online != tt.wantOnline {
				t.Errorf("Online = %v, want %v", next.Online, tt.wantOnline)
			}
			if (ev != nil) != tt.wantEvent {
				t.Fatalf("event = %+v, want event %v", ev, tt.wantEvent)
			}
			if ev != nil && (ev.Message != OfflineMessage || ev.Category != activity.CategoryConnectivity) {
				t.Errorf("event = %+v", *ev)
			}
		})
	}
}

func TestReconciler_OfflineExactlyOnce(t *testing.T) {
	store := device.NewStore()
	log := activity.NewLog(nil)
	r := NewReconciler(NewRouter(topics), store, log, Options{})

	r.Handle(t.Context(), topics.Temperature(), "21", t0)

	for now := t0; now.Before(t0.Add(3 * time.Minute)); now = now.Add(DefaultWatchdogInterval) {
		r.Tick(t.Context(), now)
	}
	if store.State().Online {
		t.Fatal("device still online after silence")
	}

	// Recovery then a second quiet spell.
	back := t0.Add(4 * time.Minute)
	r.Handle(t.Context(), topics.Humidity(), "40", back)
	if !store.State().Online {
		t.Fatal("message did not mark device online")
	}
	for now := back; now.Before(back.Add(30 * time.Second)); now = now.Add(DefaultWatchdogInterval) {
		r.Tick(t.Context(), now)
	}

	var offline int
	for _, e := range log.Entries() {
		if e.Message == OfflineMessage {
			offline++
		}
		if e.Category == activity.CategoryConnectivity && e.Message != OfflineMessage {
			t.Errorf("unexpected connectivity event %q", e.Message)
		}
	}
	if offline != 1 {
		t.Errorf("got %d offline events, want 1", offline)
	}
}

func TestReconciler_TickBeforeAnyMessage(t *testing.T) {
	store := device.NewStore()
	log := activity.NewLog(nil)
	r := NewReconciler(NewRouter(topics), store, log, Options{})

	for i := range 20 {
		r.Tick(t.Context(), t0.Add(time.Duration(i)*DefaultWatchdogInterval))
	}

	if store.State().Online {
		t.Error("device online without ever being seen")
	}
	if log.Len() != 0 {
		t.Errorf("log has %d entries, want 0", log.Len())
	}
	if store.Version() != 0 {
		t.Errorf("Version = %d, want 0", store.Version())
	}
}

// panickingRules panics on the evaluation numbered panicOn.
type panickingRules struct {
	panicOn int32
	calls   atomic.Int32
}

func (p *panickingRules) Evaluate(device.State, time.Time) []automation.Action {
	if p.calls.Add(1) == p.panicOn {
		panic("rule evaluation failed")
	}
	return nil
}

func TestReconciler_LivenessSurvivesPanickingTick(t *testing.T) {
	store := device.NewStore()
	r := NewReconciler(NewRouter(topics), store, activity.NewLog(nil), Options{})
	rules := &panickingRules{panicOn: 2}
	r.SetRules(rules)

	handle := func() {
		t.Helper()
		done := make(chan struct{})
		go func() {
			r.Handle(t.Context(), topics.Temperature(), "21", time.Now().Add(-time.Hour))
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Handle() blocked after a panicking tick")
		}
	}
	waitOffline := func() {
		t.Helper()
		deadline := time.Now().Add(4 * time.Second)
		for store.State().Online && time.Now().Before(deadline) {
			time.Sleep(50 * time.Millisecond)
		}
		if store.State().Online {
			t.Fatal("device still online after liveness ticks")
		}
	}

	handle()
	s := scheduler.New(time.UTC, nil)
	if err := s.Every("liveness", time.Second, r.Tick); err != nil {
		t.Fatalf("Every() error = %v", err)
	}
	s.Start()
	defer s.Stop(context.Background()) //nolint:errcheck // Test cleanup

	// The first tick takes the device offline and panics in rule evaluation.
	waitOffline()
	deadline := time.Now().Add(time.Second)
	for rules.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if rules.calls.Load() < 2 {
		t.Fatalf("rule evaluations = %d, want the panicking one to have run", rules.calls.Load())
	}

	handle()
	if !store.State().Online {
		t.Fatal("device not online after a fresh message")
	}
	waitOffline()
}
