// Package activity keeps the dashboard's human-readable event history.
//
// The Log is a bounded, newest-first list of Events derived from applied
// telemetry ("Bulb turned ON", "Motion detected!", "Device went offline").
// It holds at most Capacity entries; appending beyond that silently drops
// the oldest.
//
// The log is loaded once at start and saved after changes through a
// Persister, normally the kvstore backend, under the key PersistenceKey.
package activity
