package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/notify"
)

// handleListNotifications returns the history, newest first, with the
// unread count.
func (s *Server) handleListNotifications(w http.ResponseWriter, _ *http.Request) {
	items := s.notify.History()
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": items,
		"count":         len(items),
		"unread":        s.notify.UnreadCount(),
	})
}

// handleMarkNotificationRead marks one notification read.
func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxIDLen {
		writeBadRequest(w, "invalid notification ID")
		return
	}
	if err := s.notify.MarkRead(r.Context(), id); err != nil {
		if errors.Is(err, notify.ErrNotificationNotFound) {
			writeNotFound(w, "notification not found")
			return
		}
		s.logger.Error("mark read failed", "id", id, "error", err)
		writeInternalError(w, "failed to mark notification read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearNotifications empties the history.
func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	if err := s.notify.ClearHistory(r.Context()); err != nil {
		s.logger.Error("clear notifications failed", "error", err)
		writeInternalError(w, "failed to clear notifications")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetPreferences returns the notification preferences.
func (s *Server) handleGetPreferences(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.notify.Preferences())
}

// handleUpdatePreferences applies a partial update; absent fields keep
// their value.
func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var u notify.PreferencesUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	prefs, err := s.notify.UpdatePreferences(r.Context(), u)
	if err != nil {
		if errors.Is(err, notify.ErrInvalidPreferences) {
			writeValidationError(w, err.Error())
			return
		}
		s.logger.Error("update preferences failed", "error", err)
		writeInternalError(w, "failed to update preferences")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
