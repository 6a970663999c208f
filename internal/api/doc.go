// Package api provides the dashboard's HTTP REST API and WebSocket live
// feed.
//
// Routes live under /api/v1:
//
//	GET    /health
//	GET    /state
//	GET    /activity
//	GET    /rules                       POST /rules
//	GET    /rules/{id}                  PUT  /rules/{id}   DELETE /rules/{id}
//	POST   /rules/{id}/toggle
//	POST   /commands/{bulb|fan|fan-speed|color|mode}
//	GET    /notifications               DELETE /notifications
//	POST   /notifications/{id}/read
//	GET    /notifications/preferences   PATCH  /notifications/preferences
//	GET    /ws
//
// plus GET /metrics for Prometheus.
//
// The WebSocket hub pushes state.changed, activity.appended,
// notification.created and connection.changed events. A new client is
// subscribed to all of them and receives the current state at once.
//
// The server follows the same lifecycle as the other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
