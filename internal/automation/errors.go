package automation

import "errors"

// Domain errors for the automation package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, automation.ErrRuleNotFound) {
//	    // handle not found case
//	}
var (
	// ErrRuleNotFound is returned when a rule ID does not exist.
	ErrRuleNotFound = errors.New("rule: not found")

	// ErrInvalidRule is returned when rule validation fails.
	ErrInvalidRule = errors.New("rule: invalid")

	// ErrInvalidName is returned when a rule name is empty or too long.
	ErrInvalidName = errors.New("rule: invalid name")

	// ErrInvalidTrigger is returned for an unknown trigger kind or a
	// trigger with a missing or out-of-range operand.
	ErrInvalidTrigger = errors.New("rule: invalid trigger")

	// ErrInvalidAction is returned for an unknown action kind or an action
	// with a missing or malformed value.
	ErrInvalidAction = errors.New("rule: invalid action")
)
