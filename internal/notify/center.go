package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/device"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/metrics"
)

// Persister loads and saves opaque records by key.
type Persister interface {
	Load(ctx context.Context, key string, dst any) (bool, error)
	Save(ctx context.Context, key string, v any) error
}

// Deliverer receives every newly recorded notification.
type Deliverer interface {
	DeliverNotification(item Item)
}

// Logger defines the logging interface used by the Center.
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

// Center records notifications and user preferences.
//
// All public methods are thread-safe. Persistence and delivery happen
// after the internal lock is released.
type Center struct {
	mu      sync.RWMutex
	prefs   Preferences
	history []Item

	store     Persister
	saveMu    sync.Mutex // serialises saves so the newest copy is written last
	deliverer Deliverer
	logger    Logger
	now       func() time.Time
}

// NewCenter creates a Center with default preferences and empty history.
// store may be nil for an in-memory center.
func NewCenter(store Persister) *Center {
	return &Center{
		prefs:   DefaultPreferences(),
		history: make([]Item, 0, HistoryCapacity),
		store:   store,
		logger:  noopLogger{},
		now:     time.Now,
	}
}

// SetLogger sets the logger for the center.
func (c *Center) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.logger = logger
}

// SetDeliverer sets the receiver of new notifications.
func (c *Center) SetDeliverer(d Deliverer) {
	c.mu.Lock()
	c.deliverer = d
	c.mu.Unlock()
}

// Load restores preferences and history from the store.
// Missing keys leave the defaults in place. Preferences that fail to decode
// are replaced by the defaults, and history entries that fail to decode are
// logged and skipped.
//
// Returns:
//   - error: Every key that could not be read, after applying what could
func (c *Center) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	var errs []error
	prefs := DefaultPreferences()
	if _, err := c.store.Load(ctx, PreferencesKey, &prefs); err != nil {
		prefs = DefaultPreferences()
		errs = append(errs, fmt.Errorf("loading notification preferences: %w", err))
	}

	var raws []json.RawMessage
	if _, err := c.store.Load(ctx, HistoryKey, &raws); err != nil {
		raws = nil
		errs = append(errs, fmt.Errorf("loading notification history: %w", err))
	}
	history := make([]Item, 0, HistoryCapacity)
	for i, raw := range raws {
		if len(history) == HistoryCapacity {
			break
		}
		var item Item
		if err := json.Unmarshal(raw, &item); err != nil {
			c.logger.Warn("skipping saved notification", "index", i, "error", err)
			continue
		}
		history = append(history, item)
	}

	c.mu.Lock()
	c.prefs = prefs
	c.history = history
	c.mu.Unlock()

	c.logger.Info("notifications loaded", "history", len(history))
	return errors.Join(errs...)
}

// Notify records n if the preferences allow its category.
//
// Returns:
//   - Item: The recorded notification
//   - bool: False if n was filtered out
func (c *Center) Notify(ctx context.Context, n Notice) (Item, bool) {
	c.mu.Lock()
	if !c.prefs.Allows(n.Category) {
		c.mu.Unlock()
		c.logger.Debug("notification suppressed by preferences", "type", n.Category, "title", n.Title)
		return Item{}, false
	}

	item := Item{
		ID:        uuid.NewString(),
		Timestamp: c.now(),
		Title:     n.Title,
		Body:      n.Body,
		Category:  n.Category,
	}
	c.history = prepend(c.history, item)
	deliverer := c.deliverer
	c.mu.Unlock()

	metrics.IncNotification(string(item.Category))
	if err := c.saveHistory(ctx); err != nil {
		c.logger.Warn("failed to save notifications", "error", err)
	}
	if deliverer != nil {
		deliverer.DeliverNotification(item)
	}
	return item, true
}

// CheckTemperature raises high/low temperature alerts for reading.
// It returns the notifications recorded.
func (c *Center) CheckTemperature(ctx context.Context, reading device.Reading) []Item {
	notices := TemperatureNotices(c.Preferences(), reading)

	var items []Item
	for _, n := range notices {
		if item, ok := c.Notify(ctx, n); ok {
			items = append(items, item)
		}
	}
	return items
}

// Preferences returns the current preferences.
func (c *Center) Preferences() Preferences {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prefs
}

// UpdatePreferences applies u and saves the result.
func (c *Center) UpdatePreferences(ctx context.Context, u PreferencesUpdate) (Preferences, error) {
	c.mu.Lock()
	next, err := u.Apply(c.prefs)
	if err != nil {
		c.mu.Unlock()
		return c.Preferences(), err
	}
	c.prefs = next
	c.mu.Unlock()

	if err := c.save(ctx, PreferencesKey, func() any { return c.Preferences() }); err != nil {
		return next, fmt.Errorf("saving notification preferences: %w", err)
	}
	return next, nil
}

// History returns a copy of the notifications, newest first.
func (c *Center) History() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyHistory()
}

// UnreadCount returns the number of notifications not yet marked read.
func (c *Center) UnreadCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, item := range c.history {
		if !item.Read {
			n++
		}
	}
	return n
}

// MarkRead marks one notification as read.
// Returns ErrNotificationNotFound if id is not in the history.
func (c *Center) MarkRead(ctx context.Context, id string) error {
	c.mu.Lock()
	found := false
	for i := range c.history {
		if c.history[i].ID == id {
			c.history[i].Read = true
			found = true
			break
		}
	}
	if !found {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotificationNotFound, id)
	}
	c.mu.Unlock()

	if err := c.saveHistory(ctx); err != nil {
		c.logger.Warn("failed to save notifications", "error", err)
	}
	return nil
}

// ClearHistory removes every notification.
func (c *Center) ClearHistory(ctx context.Context) error {
	c.mu.Lock()
	c.history = make([]Item, 0, HistoryCapacity)
	c.mu.Unlock()

	return c.saveHistory(ctx)
}

// copyHistory must be called with c.mu held.
func (c *Center) copyHistory() []Item {
	out := make([]Item, len(c.history))
	copy(out, c.history)
	return out
}

func (c *Center) saveHistory(ctx context.Context) error {
	if err := c.save(ctx, HistoryKey, func() any { return c.History() }); err != nil {
		return fmt.Errorf("saving notification history: %w", err)
	}
	return nil
}

// save writes the value returned by read under key. read is called after
// taking saveMu so that concurrent mutations never leave an older copy as
// the last write.
func (c *Center) save(ctx context.Context, key string, read func() any) error {
	if c.store == nil {
		return nil
	}

	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	return c.store.Save(ctx, key, read())
}

// prepend adds item at the front, keeping at most HistoryCapacity entries.
func prepend(history []Item, item Item) []Item {
	keep := len(history)
	if keep >= HistoryCapacity {
		keep = HistoryCapacity - 1
	}
	out := make([]Item, 0, HistoryCapacity)
	out = append(out, item)
	return append(out, history[:keep]...)
}
