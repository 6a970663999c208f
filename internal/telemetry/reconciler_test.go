package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/activity"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/automation"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/device"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/mqtt"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/notify"
)

// ============================================================================
// Mocks
// ============================================================================

type mockRules struct {
	rules []automation.Rule
	calls int
	seen  []time.Time
}

func (m *mockRules) Evaluate(state device.State, now time.Time) []automation.Action {
	m.calls++
	m.seen = append(m.seen, now)
	return automation.Evaluate(m.rules, state, now)
}

type mockDispatcher struct {
	mu      sync.Mutex
	batches [][]automation.Action
	err     error
}

func (m *mockDispatcher) DispatchAll(actions []automation.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, actions)
	return m.err
}

type mockNotifier struct {
	notices  []notify.Notice
	readings []device.Reading
}

func (m *mockNotifier) Notify(_ context.Context, n notify.Notice) (notify.Item, bool) {
	m.notices = append(m.notices, n)
	return notify.Item{Title: n.Title}, true
}

func (m *mockNotifier) CheckTemperature(_ context.Context, r device.Reading) []notify.Item {
	m.readings = append(m.readings, r)
	return nil
}

type mockBroadcaster struct {
	states []device.Snapshot
	events []activity.Event
}

func (m *mockBroadcaster) BroadcastState(s device.Snapshot)  { m.states = append(m.states, s) }
func (m *mockBroadcaster) BroadcastActivity(e activity.Event) { m.events = append(m.events, e) }

type point struct {
	field string
	value float64
	at    time.Time
}

type mockSink struct{ points []point }

func (m *mockSink) WriteReading(field string, value float64, at time.Time) {
	m.points = append(m.points, point{field, value, at})
}

// mockPersister records the activity log on every save.
type mockPersister struct {
	saves int
	last  []activity.Event
	err   error
}

func (m *mockPersister) Load(context.Context, string, any) (bool, error) { return false, nil }

func (m *mockPersister) Save(_ context.Context, _ string, v any) error {
	m.saves++
	if events, ok := v.([]activity.Event); ok {
		m.last = events
	}
	return m.err
}

type fixture struct {
	r           *Reconciler
	store       *device.Store
	log         *activity.Log
	rules       *mockRules
	dispatcher  *mockDispatcher
	notifier    *mockNotifier
	broadcaster *mockBroadcaster
	sink        *mockSink
	persister   *mockPersister
}

func newFixture(rules ...automation.Rule) *fixture {
	f := &fixture{
		store:       device.NewStore(),
		rules:       &mockRules{rules: rules},
		dispatcher:  &mockDispatcher{},
		notifier:    &mockNotifier{},
		broadcaster: &mockBroadcaster{},
		sink:        &mockSink{},
		persister:   &mockPersister{},
	}
	f.log = activity.NewLog(f.persister)
	f.r = NewReconciler(NewRouter(topics), f.store, f.log, Options{Location: time.UTC})
	f.r.SetRules(f.rules)
	f.r.SetDispatcher(f.dispatcher)
	f.r.SetNotifier(f.notifier)
	f.r.SetBroadcaster(f.broadcaster)
	f.r.SetSink(f.sink)
	return f
}

func hotBulbRule() automation.Rule {
	return automation.Rule{
		ID:      "r1",
		Name:    "Hot bulb",
		Enabled: true,
		Triggers: []automation.Trigger{
			automation.ThresholdTrigger{Sensor: automation.SensorTemperature, Op: automation.GreaterThan, Value: 30},
		},
		Actions: []automation.Action{automation.SwitchAction{Target: automation.SwitchBulb, On: true}},
	}
}

// ============================================================================
// Handle
// ============================================================================

func TestReconciler_HandleUpdatesStoreAndLog(t *testing.T) {
	f := newFixture()

	if !f.r.Handle(t.Context(), topics.Bulb(), "ON", t0) {
		t.Fatal("bulb topic not handled")
	}

	snap := f.store.Snapshot()
	if !snap.BulbOn || !snap.Online || !snap.LastSeen.Equal(t0) {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Version != 1 {
		t.Errorf("Version = %d, want 1", snap.Version)
	}

	entries := f.log.Entries()
	if len(entries) != 1 || entries[0].Message != "Bulb turned ON" {
		t.Fatalf("entries = %+v", entries)
	}
	if f.persister.saves != 1 || len(f.persister.last) != 1 {
		t.Errorf("activity saves = %d (last %d entries), want 1 save of 1", f.persister.saves, len(f.persister.last))
	}
	if len(f.broadcaster.events) != 1 || len(f.broadcaster.states) != 1 {
		t.Errorf("broadcasts: %d events, %d states", len(f.broadcaster.events), len(f.broadcaster.states))
	}
	if f.broadcaster.states[0].Version != 1 {
		t.Errorf("broadcast version = %d, want 1", f.broadcaster.states[0].Version)
	}
	if len(f.notifier.notices) != 1 || f.notifier.notices[0].Title != "Bulb ON" {
		t.Errorf("notices = %+v", f.notifier.notices)
	}
}

func TestReconciler_UnknownTopicIgnored(t *testing.T) {
	f := newFixture()

	if f.r.Handle(t.Context(), "nikhil/home/unknown", "x", t0) {
		t.Error("unknown topic reported as handled")
	}
	if f.store.Version() != 0 || !f.store.State().LastSeen.IsZero() {
		t.Error("unknown topic changed state")
	}
	if f.rules.calls != 0 {
		t.Errorf("rules evaluated %d times, want 0", f.rules.calls)
	}
}

func TestReconciler_HandleMessageAdapter(t *testing.T) {
	f := newFixture()

	f.r.HandleMessage(mqtt.Message{Topic: topics.Humidity(), Payload: []byte("55"), Received: t0})

	if got := f.store.State().Humidity; got != "55" {
		t.Errorf("Humidity = %q, want 55", got)
	}
}

// ============================================================================
// Rules
// ============================================================================

func TestReconciler_RulesDispatchedOnChange(t *testing.T) {
	f := newFixture(hotBulbRule())

	f.r.Handle(t.Context(), topics.Temperature(), "32", t0)

	if len(f.dispatcher.batches) != 1 {
		t.Fatalf("dispatched %d batches, want 1", len(f.dispatcher.batches))
	}
	want := automation.SwitchAction{Target: automation.SwitchBulb, On: true}
	if got := f.dispatcher.batches[0]; len(got) != 1 || got[0] != want {
		t.Errorf("actions = %+v, want [%+v]", got, want)
	}
}

func TestReconciler_UnparseableTemperatureDoesNotFire(t *testing.T) {
	f := newFixture(hotBulbRule())

	f.r.Handle(t.Context(), topics.Temperature(), "abc", t0)

	if len(f.dispatcher.batches) != 0 {
		t.Errorf("dispatched %+v for unparseable reading", f.dispatcher.batches)
	}
	if got := f.store.State().Temperature; got != "abc" {
		t.Errorf("Temperature = %q, want abc", got)
	}
	if len(f.sink.points) != 0 {
		t.Errorf("exported %+v for unparseable reading", f.sink.points)
	}
}

func TestReconciler_DispatchErrorIsNotFatal(t *testing.T) {
	f := newFixture(hotBulbRule())
	f.dispatcher.err = errors.Join(mqtt.ErrNotConnected)

	f.r.Handle(t.Context(), topics.Temperature(), "35", t0)
	f.r.Handle(t.Context(), topics.Temperature(), "36", t0.Add(time.Second))

	if len(f.dispatcher.batches) != 2 {
		t.Errorf("dispatched %d batches, want 2", len(f.dispatcher.batches))
	}
}

func TestReconciler_EvaluateRulesUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	f := newFixture(automation.Rule{
		ID:       "morning",
		Name:     "Morning",
		Enabled:  true,
		Triggers: []automation.Trigger{automation.TimeTrigger{Hour: 7}},
		Actions:  []automation.Action{automation.ModeAction{Mode: "AUTO"}},
	})
	f.r = NewReconciler(NewRouter(topics), f.store, f.log, Options{Location: loc})
	f.r.SetRules(f.rules)
	f.r.SetDispatcher(f.dispatcher)

	// 02:00 UTC is 07:00 in UTC+5.
	actions := f.r.EvaluateRules(t.Context(), time.Date(2026, 3, 14, 2, 0, 0, 0, time.UTC))

	if len(actions) != 1 {
		t.Fatalf("actions = %+v, want one mode action", actions)
	}
	if len(f.dispatcher.batches) != 1 {
		t.Errorf("dispatched %d batches, want 1", len(f.dispatcher.batches))
	}
	if f.rules.seen[0].Location() != loc {
		t.Errorf("rules evaluated in %v, want %v", f.rules.seen[0].Location(), loc)
	}
}

func TestReconciler_OfflineEdgeReevaluatesRules(t *testing.T) {
	f := newFixture()
	f.r.Handle(t.Context(), topics.Humidity(), "50", t0)
	calls := f.rules.calls

	f.r.Tick(t.Context(), t0.Add(time.Second))
	if f.rules.calls != calls {
		t.Error("rules evaluated on a tick that changed nothing")
	}

	f.r.Tick(t.Context(), t0.Add(2*time.Minute))
	if f.rules.calls != calls+1 {
		t.Errorf("rules calls = %d, want %d after offline edge", f.rules.calls, calls+1)
	}
	if len(f.broadcaster.events) == 0 || f.broadcaster.events[len(f.broadcaster.events)-1].Message != OfflineMessage {
		t.Errorf("offline event not broadcast: %+v", f.broadcaster.events)
	}
}

// ============================================================================
// Notifications and export
// ============================================================================

func TestReconciler_TemperatureCheckedOnChangeOnly(t *testing.T) {
	f := newFixture()

	f.r.Handle(t.Context(), topics.Temperature(), "31", t0)
	f.r.Handle(t.Context(), topics.Temperature(), "31", t0.Add(time.Second))
	f.r.Handle(t.Context(), topics.Temperature(), "29", t0.Add(2*time.Second))
	f.r.Handle(t.Context(), topics.Humidity(), "31", t0.Add(3*time.Second))

	if len(f.notifier.readings) != 2 {
		t.Fatalf("temperature checks = %v, want [31 29]", f.notifier.readings)
	}
	if f.notifier.readings[0] != "31" || f.notifier.readings[1] != "29" {
		t.Errorf("temperature checks = %v, want [31 29]", f.notifier.readings)
	}
}

func TestReconciler_MotionNotice(t *testing.T) {
	f := newFixture()

	f.r.Handle(t.Context(), topics.Motion(), "DETECTED", t0)
	f.r.Handle(t.Context(), topics.Motion(), "DETECTED", t0.Add(time.Second))

	if len(f.notifier.notices) != 2 || f.notifier.notices[1].Category != notify.CategoryMotion {
		t.Errorf("notices = %+v, want a motion notice per DETECTED", f.notifier.notices)
	}
	if !f.store.State().LastMotionTime.Equal(t0) {
		t.Errorf("LastMotionTime = %v, want %v", f.store.State().LastMotionTime, t0)
	}
}

func TestReconciler_ExportsNumericReadings(t *testing.T) {
	f := newFixture()

	f.r.Handle(t.Context(), topics.Temperature(), "22.5", t0)
	f.r.Handle(t.Context(), topics.FanSpeed(), "40", t0)
	f.r.Handle(t.Context(), topics.Bulb(), "ON", t0)

	want := []point{
		{FieldTemperature, 22.5, t0},
		{FieldFanSpeed, 40, t0},
	}
	if len(f.sink.points) != len(want) {
		t.Fatalf("points = %+v, want %+v", f.sink.points, want)
	}
	for i := range want {
		if f.sink.points[i] != want[i] {
			t.Errorf("point[%d] = %+v, want %+v", i, f.sink.points[i], want[i])
		}
	}
}

func TestReconciler_ActivitySaveErrorIsLogged(t *testing.T) {
	f := newFixture()
	f.persister.err = errors.New("disk full")

	f.r.Handle(t.Context(), topics.Fan(), "ON", t0)

	if f.log.Len() != 1 {
		t.Errorf("log length = %d, want 1 despite save failure", f.log.Len())
	}
}

func TestReconciler_NoCollaborators(t *testing.T) {
	r := NewReconciler(NewRouter(topics), device.NewStore(), activity.NewLog(nil), Options{})

	r.Handle(t.Context(), topics.Bulb(), "ON", t0)
	r.Tick(t.Context(), t0.Add(time.Hour))
	if actions := r.EvaluateRules(t.Context(), t0); actions != nil {
		t.Errorf("EvaluateRules() = %+v, want nil", actions)
	}
}

func TestReconciler_ConcurrentHandleAndTick(t *testing.T) {
	f := newFixture(hotBulbRule())
	f.r.SetBroadcaster(nil)
	f.r.SetNotifier(nil)
	f.r.SetSink(nil)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			f.r.Handle(context.Background(), topics.FanSpeed(), "10", t0.Add(time.Duration(i)*time.Second))
		}()
		go func() {
			defer wg.Done()
			f.r.Tick(context.Background(), t0.Add(time.Duration(i)*time.Second))
		}()
	}
	wg.Wait()

	if got := f.log.Len(); got > activity.Capacity {
		t.Errorf("log length %d exceeds capacity", got)
	}
}
