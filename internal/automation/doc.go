// Package automation provides the rule engine for the dashboard.
//
// A Rule pairs an ordered list of Triggers with an ordered list of
// Actions. When every trigger matches the current device snapshot, the
// rule fires and its actions are emitted.
//
// Architecture:
//
//	┌───────────────────────────────────────────────────────┐
//	│  Registry (registry.go)                                │
//	│  Rule list, CRUD, save-on-change via Persister         │
//	│        │                                               │
//	│        ▼                                               │
//	│  Evaluate (engine.go)                                  │
//	│  Pure: (rules, state, now) → []Action                  │
//	└───────────────────────────────────────────────────────┘
//	         │
//	         ▼
//	   dispatch.Dispatcher publishes the actions
//
// # Key Types
//
//   - Rule: Named, toggleable set of triggers and actions
//   - Trigger: MotionTrigger, ThresholdTrigger or TimeTrigger
//   - Action: SwitchAction, FanSpeedAction, ColorAction or ModeAction
//   - Registry: Thread-safe rule list with persistence hooks
//
// Trigger and Action are closed sets. Each variant is a small value type;
// evaluation and encoding are exhaustive type switches, so a variant never
// has a "missing field".
//
// # Evaluation Rules
//
//   - All triggers must match (AND, short-circuit on the first mismatch)
//   - A rule with no triggers never fires
//   - Disabled rules are skipped
//   - Output order is rule order, then action order within the rule
//   - Numeric triggers on an unparseable reading do not match
//   - "=" is exact equality with no tolerance
//   - Motion is level-triggered and time is an exact hour match, so both
//     fire on every evaluation while the condition holds
//
// # JSON Form
//
//	{"id":"…","name":"Hot room","enabled":true,
//	 "triggers":[{"type":"temperature","condition":">","value":30}],
//	 "actions":[{"type":"fan","value":true},{"type":"fanSpeed","value":80}]}
//
// # Usage
//
//	rules := automation.NewRegistry(store)
//	if err := rules.Load(ctx); err != nil {
//	    return err
//	}
//	actions := rules.Evaluate(snapshot, time.Now().In(loc))
package automation
