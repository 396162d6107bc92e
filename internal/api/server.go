package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hferrand/sentry-gate/internal/controller"
	"github.com/hferrand/sentry-gate/internal/infrastructure/config"
	"github.com/hferrand/sentry-gate/internal/infrastructure/logging"
	"github.com/hferrand/sentry-gate/internal/sensor"
	"github.com/hferrand/sentry-gate/internal/wire"
)

// gracefulShutdownTimeout bounds the wait for in-flight requests on
// Close.
const gracefulShutdownTimeout = 10 * time.Second

// ControlPlane is the slice of the controller the API needs.
type ControlPlane interface {
	State() controller.SystemState
	Previous() controller.SystemState
	Dropped() uint64
	Enqueue(msg wire.Message) bool
}

// TransitionHistory serves the recent transition trail. Implemented by
// the store's TransitionLog.
type TransitionHistory interface {
	Recent(ctx context.Context, limit int) ([]controller.Transition, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	WS          config.WebSocketConfig
	Logger      *logging.Logger
	Controller  ControlPlane
	Registry    *sensor.Registry
	Transitions TransitionHistory
	Version     string

	// Hub is optional. Supplying one lets the caller wire it as a
	// state-change notifier before the server starts; when nil the
	// server creates its own.
	Hub *Hub
}

// Server is the gateway's local HTTP server. Create with New, start
// with Start, stop with Close.
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	logger      *logging.Logger
	controller  ControlPlane
	registry    *sensor.Registry
	transitions TransitionHistory
	version     string
	started     time.Time

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New creates an API server. The server does not listen until Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Controller == nil {
		return nil, fmt.Errorf("controller is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("sensor registry is required")
	}

	hub := deps.Hub
	if hub == nil {
		hub = NewHub(deps.WS, deps.Logger)
	}

	return &Server{
		cfg:         deps.Config,
		wsCfg:       deps.WS,
		logger:      deps.Logger,
		controller:  deps.Controller,
		registry:    deps.Registry,
		transitions: deps.Transitions,
		version:     deps.Version,
		hub:         hub,
	}, nil
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start builds the router, starts the WebSocket hub, and launches the
// HTTP listener in the background.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)

	s.started = time.Now()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.ReadTimeout(),
		WriteTimeout:      s.cfg.WriteTimeout(),
		IdleTimeout:       s.cfg.IdleTimeout(),
	}

	go func() {
		s.logger.Info("api server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()

	return nil
}

// Close shuts the server down, waiting for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("api server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/transitions", s.handleTransitions)

		r.Route("/sensors", func(r chi.Router) {
			r.Get("/", s.handleListSensors)
			r.Get("/{id}", s.handleGetSensor)
		})

		r.Post("/arm", s.handleArm)
		r.Post("/disarm", s.handleDisarm)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}
