// Package telemetry turns the device's MQTT message stream into device
// state.
//
// It has three parts:
//
//   - Router: a dispatch table from topic to a pure Decoder. Each decoder
//     maps (previous state, payload, receive time) to the next state, an
//     optional activity event and an optional notification.
//   - Watchdog: derives online/offline from lastSeen on a fixed tick and
//     reports only the online to offline edge.
//   - Reconciler: the single serialisation point. Message apply, watchdog
//     ticks and rule evaluation all run under its mutex. Publishes,
//     persistence saves, notifications and broadcasts happen after the lock
//     is released.
//
// A routed message always marks the device online immediately. Only the
// watchdog ever marks it offline.
package telemetry
