// If you are AI: This file implements the HTTP server lifecycle and routing
// for the demo driver's health and feed endpoints.

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ringbus/internal/config"
	"ringbus/internal/svc/feed"
	"ringbus/internal/svc/health"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	healthSvc  *health.Service
	hub        *feed.Hub
}

// New creates a new server instance with the given configuration.
// The server is not started until Start is called. status feeds /statusz;
// hub backs the /feed WebSocket endpoint.
func New(cfg *config.Config, status func() health.Status, hub *feed.Hub) *Server {
	mux := http.NewServeMux()

	healthSvc := health.New(status)
	healthSvc.RegisterRoutes(mux)
	mux.Handle("/feed", feed.NewHandler(hub))

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: mux,
	}

	return &Server{
		httpServer: httpServer,
		healthSvc:  healthSvc,
		hub:        hub,
	}
}

// Start begins serving HTTP requests.
// This method blocks until the server is stopped or encounters an error.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server with a timeout, detaching all feed
// clients first so their writer loops exit.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.CloseAll()
	return s.httpServer.Shutdown(ctx)
}

// ShutdownWithTimeout stops the server with a fixed 5-second timeout.
// This is a convenience wrapper around Shutdown.
func (s *Server) ShutdownWithTimeout() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
