package dispatch

import "errors"

var (
	// ErrInvalidColor is returned when a colour command is not #RRGGBB.
	// Nothing is published.
	ErrInvalidColor = errors.New("dispatch: invalid color")

	// ErrInvalidMode is returned when a mode command is not AUTO, MANUAL
	// or TOGGLE. Nothing is published.
	ErrInvalidMode = errors.New("dispatch: invalid mode")

	// ErrUnsupportedAction is returned for an action type the dispatcher
	// does not know.
	ErrUnsupportedAction = errors.New("dispatch: unsupported action")
)
