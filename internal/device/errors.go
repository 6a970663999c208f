package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrInvalidColor) {
//	    // reject the command
//	}
var (
	// ErrInvalidColor is returned when a colour is not a #RRGGBB hex string.
	ErrInvalidColor = errors.New("device: invalid color")

	// ErrInvalidMode is returned when a mode token is not AUTO or MANUAL.
	ErrInvalidMode = errors.New("device: invalid mode")

	// ErrInvalidMotion is returned when a motion token is not DETECTED or NONE.
	ErrInvalidMotion = errors.New("device: invalid motion")
)
