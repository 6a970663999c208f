package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/activity"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/automation"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/device"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/metrics"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/mqtt"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/notify"
)

// RuleEvaluator returns the actions of every rule that fires.
// automation.Registry satisfies it.
type RuleEvaluator interface {
	Evaluate(state device.State, now time.Time) []automation.Action
}

// ActionDispatcher publishes actions. dispatch.Dispatcher satisfies it.
type ActionDispatcher interface {
	DispatchAll(actions []automation.Action) error
}

// Notifier records notifications. notify.Center satisfies it.
type Notifier interface {
	Notify(ctx context.Context, n notify.Notice) (notify.Item, bool)
	CheckTemperature(ctx context.Context, reading device.Reading) []notify.Item
}

// Broadcaster pushes live updates to connected clients.
type Broadcaster interface {
	BroadcastState(snapshot device.Snapshot)
	BroadcastActivity(event activity.Event)
}

// Sink exports numeric readings, e.g. to InfluxDB.
type Sink interface {
	WriteReading(field string, value float64, at time.Time)
}

// Logger defines the logging interface used by the Reconciler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Reconciler.
type Options struct {
	// OfflineThreshold is how long without messages before the device is
	// offline. Zero means DefaultOfflineThreshold.
	OfflineThreshold time.Duration

	// Location is the timezone time triggers are evaluated in. Nil means
	// time.Local.
	Location *time.Location
}

// Reconciler owns every write to the device store and activity log.
//
// Handle, Tick and EvaluateRules are serialised by one mutex. Collaborators
// set with the Set* methods are called after that mutex is released, and
// all of them are optional. Set them before messages start flowing.
type Reconciler struct {
	mu     sync.Mutex
	saveMu sync.Mutex

	router *Router
	store  *device.Store
	log    *activity.Log

	threshold time.Duration
	loc       *time.Location

	rules       RuleEvaluator
	dispatcher  ActionDispatcher
	notifier    Notifier
	broadcaster Broadcaster
	sink        Sink
	logger      Logger
}

// change is what one serialised step produced. It is applied to the
// collaborators after the lock is released.
type change struct {
	snapshot    device.Snapshot
	changed     bool
	prev        device.State
	event       *activity.Event
	notice      *notify.Notice
	actions     []automation.Action
	field       string
	decodeErr   error
	wentOffline bool
}

// NewReconciler creates a Reconciler writing to store and log.
func NewReconciler(router *Router, store *device.Store, log *activity.Log, opts Options) *Reconciler {
	threshold := opts.OfflineThreshold
	if threshold <= 0 {
		threshold = DefaultOfflineThreshold
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	return &Reconciler{
		router:    router,
		store:     store,
		log:       log,
		threshold: threshold,
		loc:       loc,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the reconciler.
func (r *Reconciler) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// SetRules sets the rule source evaluated on every state change.
func (r *Reconciler) SetRules(rules RuleEvaluator) { r.rules = rules }

// SetDispatcher sets where fired actions are published.
func (r *Reconciler) SetDispatcher(d ActionDispatcher) { r.dispatcher = d }

// SetNotifier sets the notification center.
func (r *Reconciler) SetNotifier(n Notifier) { r.notifier = n }

// SetBroadcaster sets the live update fan-out.
func (r *Reconciler) SetBroadcaster(b Broadcaster) { r.broadcaster = b }

// SetSink sets the numeric reading exporter.
func (r *Reconciler) SetSink(s Sink) { r.sink = s }

// HandleMessage adapts Handle to mqtt.MessageHandler.
func (r *Reconciler) HandleMessage(m mqtt.Message) {
	r.Handle(context.Background(), m.Topic, string(m.Payload), m.Received)
}

// Handle applies one inbound message.
//
// Unknown topics are ignored and leave lastSeen unchanged. Undecodable
// payloads are logged at debug level and never returned.
//
// Returns:
//   - bool: True if the topic was routed
func (r *Reconciler) Handle(ctx context.Context, topic, payload string, now time.Time) bool {
	field, ok := r.router.Field(topic)
	if !ok {
		r.logger.Debug("ignoring unrouted topic", "topic", topic)
		return false
	}

	c := r.step(func(cur device.State) (device.State, change) {
		res, _ := r.router.Route(topic, cur, payload, now)
		return res.Next, change{
			prev:      cur,
			event:     res.Event,
			notice:    res.Notice,
			field:     field,
			decodeErr: res.Err,
		}
	}, now)

	metrics.IncMessage(field)
	metrics.SetDeviceLastSeen(now)
	metrics.SetDeviceOnline(c.snapshot.Online)
	if c.decodeErr != nil {
		metrics.IncDecodeError(field)
		r.logger.Debug("payload not understood", "topic", topic, "payload", payload, "error", c.decodeErr)
	}

	r.apply(ctx, c)
	return true
}

// Tick runs one watchdog check at now.
func (r *Reconciler) Tick(ctx context.Context, now time.Time) {
	c := r.step(func(cur device.State) (device.State, change) {
		next, ev := checkLiveness(cur, now, r.threshold)
		return next, change{prev: next, event: ev, wentOffline: ev != nil}
	}, now)

	metrics.SetDeviceOnline(c.snapshot.Online)
	if c.wentOffline {
		metrics.IncOfflineTransition()
		r.logger.Warn("device offline", "last_seen", c.snapshot.LastSeen, "threshold", r.threshold)
	}

	r.apply(ctx, c)
}

// EvaluateRules evaluates every rule against the current state at now and
// dispatches what fires. It is used for the hourly pass that gives time
// triggers a chance while telemetry is quiet.
func (r *Reconciler) EvaluateRules(_ context.Context, now time.Time) []automation.Action {
	actions := func() []automation.Action {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.evaluate(r.store.State(), now)
	}()

	r.dispatch(actions)
	return actions
}

// step applies fn to the store, appends its event and evaluates the rules,
// all under r.mu. The lock is released even if a rule evaluation panics.
func (r *Reconciler) step(fn func(device.State) (device.State, change), now time.Time) change {
	r.mu.Lock()
	defer r.mu.Unlock()

	var c change
	next, version, changed := r.store.Update(func(cur device.State) device.State {
		var n device.State
		n, c = fn(cur)
		return n
	})
	if c.event != nil {
		r.log.Append(*c.event)
	}
	c.snapshot = device.Snapshot{State: next, Version: version}
	c.changed = changed
	if changed {
		c.actions = r.evaluate(next, now)
	}
	return c
}

// evaluate must be called with r.mu held.
func (r *Reconciler) evaluate(state device.State, now time.Time) []automation.Action {
	if r.rules == nil {
		return nil
	}
	start := time.Now()
	actions := r.rules.Evaluate(state, now.In(r.loc))
	metrics.ObserveRuleEvaluation(len(actions), time.Since(start))
	return actions
}

// apply runs the side effects of one step. It must be called without r.mu.
func (r *Reconciler) apply(ctx context.Context, c change) {
	r.dispatch(c.actions)

	if c.event != nil {
		r.saveActivity(ctx)
		if r.broadcaster != nil {
			r.broadcaster.BroadcastActivity(*c.event)
		}
	}
	if c.changed && r.broadcaster != nil {
		r.broadcaster.BroadcastState(c.snapshot)
	}

	if r.notifier != nil {
		if c.notice != nil {
			r.notifier.Notify(ctx, *c.notice)
		}
		if c.field == FieldTemperature && c.prev.Temperature != c.snapshot.Temperature {
			r.notifier.CheckTemperature(ctx, c.snapshot.Temperature)
		}
	}

	if r.sink != nil && c.decodeErr == nil {
		r.export(c)
	}
}

func (r *Reconciler) dispatch(actions []automation.Action) {
	if len(actions) == 0 || r.dispatcher == nil {
		return
	}
	if err := r.dispatcher.DispatchAll(actions); err != nil {
		r.logger.Warn("automation actions not fully dispatched", "actions", len(actions), "error", err)
		return
	}
	r.logger.Debug("automation actions dispatched", "actions", len(actions))
}

// saveActivity serialises saves so the newest log is written last.
func (r *Reconciler) saveActivity(ctx context.Context) {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()
	if err := r.log.Save(ctx); err != nil {
		r.logger.Error("failed to save activity log", "error", err)
	}
}

func (r *Reconciler) export(c change) {
	var reading device.Reading
	switch c.field {
	case FieldTemperature:
		reading = c.snapshot.Temperature
	case FieldHumidity:
		reading = c.snapshot.Humidity
	case FieldFanSpeed:
		reading = c.snapshot.FanSpeed
	default:
		return
	}
	if v, ok := reading.Float(); ok {
		r.sink.WriteReading(c.field, v, c.snapshot.LastSeen)
	}
}
