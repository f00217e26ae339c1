// Package api exposes the optimization core over HTTP. Every endpoint maps
// 1:1 to a core operation; handlers only decode, dispatch and encode.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/adveralabs/adpilot/internal/config"
)

// Server wraps the HTTP surface with lifecycle control.
type Server struct {
	handler  http.Handler
	handlers *Handlers
	server   *http.Server
}

// NewServer builds the router for the given environment.
func NewServer(cfg *config.Config, handlers *Handlers) *Server {
	return &Server{
		handler:  SetupRoutes(handlers, cfg.IsDevelopment()),
		handlers: handlers,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.handler,
		// Cycle runs fan out to platform APIs, so writes can take a while.
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
