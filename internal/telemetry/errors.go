package telemetry

import "errors"

// ErrDecode is reported when a payload cannot be interpreted for its topic.
// It is logged and counted, never returned to the transport.
var ErrDecode = errors.New("telemetry: decode failed")
