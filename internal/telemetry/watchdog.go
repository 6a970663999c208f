package telemetry

import (
	"time"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/activity"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/device"
)

// Liveness defaults.
const (
	DefaultOfflineThreshold = 60 * time.Second
	DefaultWatchdogInterval = 5 * time.Second
)

// OfflineMessage is the activity message logged when the device goes quiet.
const OfflineMessage = "Device went offline"

// IsOnline reports whether a device last heard from at lastSeen counts as
// online at now. A device never heard from is offline.
func IsOnline(lastSeen, now time.Time, threshold time.Duration) bool {
	return !lastSeen.IsZero() && now.Sub(lastSeen) < threshold
}

// checkLiveness recomputes Online for prev. The event is non-nil only on
// the online to offline edge; recovery is silent.
func checkLiveness(prev device.State, now time.Time, threshold time.Duration) (device.State, *activity.Event) {
	online := IsOnline(prev.LastSeen, now, threshold)
	wasOnline := prev.Online
	prev.Online = online

	if wasOnline && !online {
		return prev, &activity.Event{
			Timestamp: now,
			Category:  activity.CategoryConnectivity,
			Message:   OfflineMessage,
		}
	}
	return prev, nil
}
