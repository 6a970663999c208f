// Package dispatch turns automation actions and user commands into
// control publishes.
//
// The Dispatcher is the single outbound boundary of the dashboard. Both
// the rule engine (via the telemetry reconciler) and the HTTP API feed it.
// It validates and normalises at the command boundary:
//
//   - fan speed is clamped to 0-100
//   - colour must be #RRGGBB and is published uppercase
//   - mode is AUTO, MANUAL or TOGGLE
//
// Publishing is at-most-once: nothing is queued, retried or
// deduplicated. When the MQTT session is down the publisher's
// ErrNotConnected is returned to the caller as-is.
package dispatch
