package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Capacity is the maximum number of events kept.
const Capacity = 50

// PersistenceKey is the key the log is saved under.
const PersistenceKey = "activity-log"

// Category classifies an event for filtering and icons.
type Category string

// Event categories.
const (
	CategoryMotion       Category = "motion"
	CategoryBulb         Category = "bulb"
	CategoryFan          Category = "fan"
	CategoryColor        Category = "color"
	CategoryMode         Category = "mode"
	CategorySpeed        Category = "speed"
	CategoryConnectivity Category = "connectivity"
)

// Event is one immutable activity entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Category  Category  `json:"type"`
	Message   string    `json:"message"`
}

// Persister loads and saves opaque records by key.
// kvstore.Store satisfies it.
type Persister interface {
	Load(ctx context.Context, key string, dst any) (bool, error)
	Save(ctx context.Context, key string, v any) error
}

// Logger defines the logging interface used by the Log.
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

// Log is a bounded, newest-first event list. It is safe for concurrent use.
type Log struct {
	mu     sync.RWMutex
	events []Event
	store  Persister
	logger Logger
}

// NewLog creates an empty log. store may be nil, in which case Load and
// Save are no-ops.
func NewLog(store Persister) *Log {
	return &Log{
		events: make([]Event, 0, Capacity),
		store:  store,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the log.
func (l *Log) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	l.logger = logger
}

// Append adds e at the front, dropping the oldest entry when full.
func (l *Log) Append(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	keep := len(l.events)
	if keep >= Capacity {
		keep = Capacity - 1
	}

	events := make([]Event, 0, Capacity)
	events = append(events, e)
	events = append(events, l.events[:keep]...)
	l.events = events
}

// Entries returns a copy of the events, newest first.
func (l *Log) Entries() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of events held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Load replaces the log with the last saved copy, if any.
// A saved list longer than Capacity is truncated to its newest entries.
// Entries that no longer decode are logged and skipped. On error the log
// is left empty.
func (l *Log) Load(ctx context.Context) error {
	if l.store == nil {
		return nil
	}

	var raws []json.RawMessage
	found, err := l.store.Load(ctx, PersistenceKey, &raws)
	if err != nil {
		return fmt.Errorf("loading activity log: %w", err)
	}
	if !found {
		return nil
	}

	saved := make([]Event, 0, min(len(raws), Capacity))
	for i, raw := range raws {
		if len(saved) == Capacity {
			break
		}
		var e Event
		if err := json.Unmarshal(raw, &e); err != nil {
			l.logger.Warn("skipping saved activity event", "index", i, "error", err)
			continue
		}
		saved = append(saved, e)
	}

	l.mu.Lock()
	l.events = saved
	l.mu.Unlock()

	l.logger.Debug("activity log loaded", "events", len(saved))
	return nil
}

// Save writes the current entries to the store.
func (l *Log) Save(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	if err := l.store.Save(ctx, PersistenceKey, l.Entries()); err != nil {
		return fmt.Errorf("saving activity log: %w", err)
	}
	return nil
}
