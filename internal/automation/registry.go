package automation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/device"
)

// PersistenceKey is the key the rule list is saved under.
const PersistenceKey = "automation-rules"

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Persister loads and saves opaque records by key.
// kvstore.Store satisfies it.
type Persister interface {
	Load(ctx context.Context, key string, dst any) (bool, error)
	Save(ctx context.Context, key string, v any) error
}

// Registry holds the user's rule list, in creation order.
//
// Every mutation saves the full list under PersistenceKey. If the save
// fails the in-memory change is kept and the error is returned.
//
// All public methods are thread-safe.
type Registry struct {
	mu     sync.RWMutex
	rules  []Rule
	store  Persister
	saveMu sync.Mutex // serialises saves so the newest list is written last
	logger Logger
	newID  func() string
}

// NewRegistry creates an empty registry. store may be nil for an
// in-memory registry.
func NewRegistry(store Persister) *Registry {
	return &Registry{
		store:  store,
		logger: noopLogger{},
		newID:  GenerateID,
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// Load replaces the rule list with the saved copy.
// Nothing saved yet leaves the list empty. A saved rule that no longer
// decodes is logged and skipped so the rest still load.
//
// Returns:
//   - error: Only if the saved list cannot be read at all
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	var raws []json.RawMessage
	found, err := r.store.Load(ctx, PersistenceKey, &raws)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}
	if !found {
		raws = nil
	}

	rules := make([]Rule, 0, len(raws))
	for i, raw := range raws {
		var rule Rule
		if err := json.Unmarshal(raw, &rule); err != nil {
			r.logger.Warn("skipping saved rule", "index", i, "error", err)
			continue
		}
		rules = append(rules, rule)
	}

	r.mu.Lock()
	r.rules = rules
	r.mu.Unlock()

	r.logger.Info("automation rules loaded", "count", len(rules), "skipped", len(raws)-len(rules))
	return nil
}

// List returns copies of all rules in list order.
func (r *Registry) List() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Rule, len(r.rules))
	for i := range r.rules {
		out[i] = r.rules[i].Clone()
	}
	return out
}

// Get returns a copy of the rule with the given ID.
func (r *Registry) Get(id string) (Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return r.rules[i].Clone(), nil
	}
	return Rule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
}

// Count returns the number of rules.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// Add validates rule, assigns it a new ID and appends it to the list.
// Any ID on the input is ignored.
func (r *Registry) Add(ctx context.Context, rule Rule) (Rule, error) {
	if err := ValidateRule(&rule); err != nil {
		return Rule{}, err
	}

	rule = rule.Clone()

	r.mu.Lock()
	rule.ID = r.newID()
	for r.indexOf(rule.ID) >= 0 {
		rule.ID = r.newID()
	}
	r.rules = append(r.rules, rule)
	r.mu.Unlock()

	r.logger.Info("rule created", "id", rule.ID, "name", rule.Name)
	return rule.Clone(), r.save(ctx)
}

// Update replaces the name, enabled flag, triggers and actions of an
// existing rule, keeping its ID and position.
func (r *Registry) Update(ctx context.Context, id string, rule Rule) (Rule, error) {
	if err := ValidateRule(&rule); err != nil {
		return Rule{}, err
	}

	rule = rule.Clone()
	rule.ID = id

	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return Rule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	r.rules[i] = rule
	r.mu.Unlock()

	r.logger.Info("rule updated", "id", id, "name", rule.Name)
	return rule.Clone(), r.save(ctx)
}

// Delete removes a rule. Deleting an unknown ID is a no-op.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return nil
	}
	r.rules = append(r.rules[:i:i], r.rules[i+1:]...)
	r.mu.Unlock()

	r.logger.Info("rule deleted", "id", id)
	return r.save(ctx)
}

// Toggle flips a rule's enabled flag and returns the updated rule.
func (r *Registry) Toggle(ctx context.Context, id string) (Rule, error) {
	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return Rule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	r.rules[i].Enabled = !r.rules[i].Enabled
	rule := r.rules[i].Clone()
	r.mu.Unlock()

	r.logger.Info("rule toggled", "id", id, "enabled", rule.Enabled)
	return rule, r.save(ctx)
}

// Evaluate runs Evaluate over the current rule list.
func (r *Registry) Evaluate(state device.State, now time.Time) []Action {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Evaluate(r.rules, state, now)
}

// indexOf must be called with r.mu held.
func (r *Registry) indexOf(id string) int {
	for i := range r.rules {
		if r.rules[i].ID == id {
			return i
		}
	}
	return -1
}

// save writes the current list. It reads the list after taking saveMu so
// that concurrent mutations never leave an older list as the last write.
func (r *Registry) save(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	rules := r.List()
	if err := r.store.Save(ctx, PersistenceKey, rules); err != nil {
		r.logger.Error("failed to save rules", "error", err)
		return fmt.Errorf("saving rules: %w", err)
	}
	return nil
}
