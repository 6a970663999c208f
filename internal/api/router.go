package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/state", s.handleGetState)
		r.Get("/activity", s.handleListActivity)

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", s.handleListRules)
			r.Post("/", s.handleCreateRule)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRule)
				r.Put("/", s.handleUpdateRule)
				r.Delete("/", s.handleDeleteRule)
				r.Post("/toggle", s.handleToggleRule)
			})
		})

		r.Route("/commands", func(r chi.Router) {
			r.Post("/bulb", s.handleBulbCommand)
			r.Post("/fan", s.handleFanCommand)
			r.Post("/fan-speed", s.handleFanSpeedCommand)
			r.Post("/color", s.handleColorCommand)
			r.Post("/mode", s.handleModeCommand)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(s.requireNotifications)
			r.Get("/", s.handleListNotifications)
			r.Delete("/", s.handleClearNotifications)
			r.Post("/{id}/read", s.handleMarkNotificationRead)
			r.Get("/preferences", s.handleGetPreferences)
			r.Patch("/preferences", s.handleUpdatePreferences)
		})

		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

// wsPath is the WebSocket route under /api/v1.
func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return "/" + strings.TrimPrefix(s.wsCfg.Path, "/")
}
