package api

import (
	"context"
	"net/http"
	"time"
)

// healthCheckTimeout bounds the storage check in /health.
const healthCheckTimeout = 2 * time.Second

// Health statuses.
const (
	healthOK       = "ok"
	healthDegraded = "degraded"
)

// handleHealth reports the server version, MQTT session, device liveness
// and storage. It answers 200 while the process can serve, with status
// "degraded" when the broker or storage is down.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.state.Snapshot()
	status := healthOK

	mqttState := "unknown"
	if s.conn != nil {
		mqttState = s.conn.State().String()
		if !s.conn.IsConnected() {
			status = healthDegraded
		}
	}

	storage := "unknown"
	if s.storage != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := s.storage.HealthCheck(ctx); err != nil {
			storage = err.Error()
			status = healthDegraded
		} else {
			storage = healthOK
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        status,
		"version":       s.version,
		"mqtt":          mqttState,
		"device_online": snap.Online,
		"storage":       storage,
		"ws_clients":    s.hub.ClientCount(),
	})
}

// handleGetState returns the current device snapshot.
func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

// handleListActivity returns the activity log, newest first.
func (s *Server) handleListActivity(w http.ResponseWriter, _ *http.Request) {
	events := s.activity.Entries()
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}
