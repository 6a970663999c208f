package notify

import "errors"

var (
	// ErrNotificationNotFound is returned by MarkRead for an unknown id.
	ErrNotificationNotFound = errors.New("notify: notification not found")

	// ErrInvalidPreferences is returned when a preferences update carries a
	// non-finite threshold.
	ErrInvalidPreferences = errors.New("notify: invalid preferences")
)
