package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/activity"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/automation"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/device"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/config"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/infrastructure/mqtt"
	"github.com/Nikhilkumar1020/Automations-of-Bulbs-and-Fans-in-the-Home/internal/notify"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// StateReader returns the current device snapshot. device.Store satisfies it.
type StateReader interface {
	Snapshot() device.Snapshot
}

// ActivityReader returns the activity log. activity.Log satisfies it.
type ActivityReader interface {
	Entries() []activity.Event
}

// RuleService manages automation rules. automation.Registry satisfies it.
type RuleService interface {
	List() []automation.Rule
	Get(id string) (automation.Rule, error)
	Add(ctx context.Context, rule automation.Rule) (automation.Rule, error)
	Update(ctx context.Context, id string, rule automation.Rule) (automation.Rule, error)
	Delete(ctx context.Context, id string) error
	Toggle(ctx context.Context, id string) (automation.Rule, error)
}

// CommandService publishes user commands. dispatch.Dispatcher satisfies it.
type CommandService interface {
	SetBulb(on bool) error
	SetFan(on bool) error
	SetFanSpeed(speed int) error
	SetColor(color string) error
	SetMode(mode string) error
	ToggleMode() error
}

// NotificationService manages notifications. notify.Center satisfies it.
type NotificationService interface {
	History() []notify.Item
	UnreadCount() int
	MarkRead(ctx context.Context, id string) error
	ClearHistory(ctx context.Context) error
	Preferences() notify.Preferences
	UpdatePreferences(ctx context.Context, u notify.PreferencesUpdate) (notify.Preferences, error)
}

// ConnectionStatus reports the MQTT session. mqtt.Client satisfies it.
type ConnectionStatus interface {
	State() mqtt.State
	IsConnected() bool
}

// HealthChecker is a dependency checked by /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Logger defines the logging interface used by the server.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Deps holds the dependencies of the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   Logger
	State    StateReader
	Activity ActivityReader
	Rules    RuleService
	Commands CommandService

	// Notifications is optional; the notification routes answer 503
	// without it.
	Notifications NotificationService

	// Connection is optional; /health reports "unknown" without it.
	Connection ConnectionStatus

	// Storage is optional and checked by /health.
	Storage HealthChecker

	// Hub is optional; one is created if nil.
	Hub *Hub

	Version string
}

// Server is the dashboard's HTTP server.
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	logger   Logger
	state    StateReader
	activity ActivityReader
	rules    RuleService
	commands CommandService
	notify   NotificationService
	conn     ConnectionStatus
	storage  HealthChecker
	hub      *Hub
	version  string

	handler  http.Handler
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
}

// New creates an API server. It does not listen until Start.
//
// Returns:
//   - *Server: Configured server
//   - error: If a required dependency is missing
func New(deps Deps) (*Server, error) {
	switch {
	case deps.State == nil:
		return nil, fmt.Errorf("state reader is required")
	case deps.Activity == nil:
		return nil, fmt.Errorf("activity reader is required")
	case deps.Rules == nil:
		return nil, fmt.Errorf("rule service is required")
	case deps.Commands == nil:
		return nil, fmt.Errorf("command service is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	hub := deps.Hub
	if hub == nil {
		hub = NewHub(deps.WS, logger)
	}

	s := &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		logger:   logger,
		state:    deps.State,
		activity: deps.Activity,
		rules:    deps.Rules,
		commands: deps.Commands,
		notify:   deps.Notifications,
		conn:     deps.Connection,
		storage:  deps.Storage,
		hub:      hub,
		version:  deps.Version,
	}
	s.handler = s.buildRouter()
	return s, nil
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start binds the listen address and serves in the background.
//
// Returns:
//   - error: If the address cannot be bound
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server listening", "address", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close stops the hub and shuts the server down, waiting up to ten seconds
// for in-flight requests.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
