// Package device models the single supervised device and owns its
// canonical state.
//
// The device reports telemetry as plain text tokens. This package keeps
// those tokens faithfully: sensor readings are stored as the raw text that
// arrived (a Reading), so a malformed value is visible as-is instead of
// being coerced to zero. Consumers that need numbers call Reading.Float
// and treat a false ok as "unparseable".
//
// # Store
//
// Store is the one mutable copy of the device State. It is a lock-guarded
// aggregate with a version counter that increments on every change, so
// other components can tell cheaply whether a new snapshot differs from
// the last one they saw. Store does not decide what changes; the telemetry
// reconciler computes the next State and hands it to Update.
//
//	store := device.NewStore()
//	next, version, changed := store.Update(func(s device.State) device.State {
//	    s.BulbOn = true
//	    return s
//	})
//
// # Sentinels
//
// A fresh State has readings of "--", colour #FFFFFF, mode AUTO, motion
// NONE, zero LastSeen and LastMotionTime, and Online false.
package device
