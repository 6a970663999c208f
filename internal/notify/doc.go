// Package notify turns device events into user notifications.
//
// Producers (the telemetry reconciler) emit abstract Notices: a title, a
// body and a category. The Center filters them against the user's
// Preferences, stamps accepted ones with an id and time, keeps them in a
// bounded newest-first history with read/unread tracking, persists the
// history, and hands each new Item to a Deliverer (the WebSocket hub).
// How a notification is finally shown is up to the client.
//
// Temperature alerts are derived here rather than by producers:
// CheckTemperature compares a reading against the high and low thresholds
// in the current preferences.
package notify
