// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

// Package httpapi exposes the authentication service over HTTP. Every
// failure leaving this package passes through the fault classifier, so
// clients always receive the canonical error envelope.
package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/oops"

	"github.com/debtwise/debtwise/internal/auth"
	"github.com/debtwise/debtwise/internal/fault"
	"github.com/debtwise/debtwise/internal/observability"
)

// Server serves the authentication API.
type Server struct {
	addr       string
	auth       *auth.Service
	tokens     *auth.TokenService
	classifier *fault.Classifier
	metrics    *observability.Metrics
	logger     *slog.Logger
	version    string

	router     chi.Router
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates the API server. metrics may be nil when the
// observability endpoint is disabled.
func NewServer(addr string, svc *auth.Service, tokens *auth.TokenService, classifier *fault.Classifier, metrics *observability.Metrics, logger *slog.Logger, version string) (*Server, error) {
	if svc == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token service is required")
	}
	if classifier == nil {
		return nil, oops.Errorf("classifier is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:       addr,
		auth:       svc,
		tokens:     tokens,
		classifier: classifier,
		metrics:    metrics,
		logger:     logger,
		version:    version,
	}
	s.router = s.buildRouter()
	return s, nil
}

// Handler returns the routing handler. Exposed for tests that drive the
// API through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	return s.router
}

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/healthz", s.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/refresh", s.handleRefresh)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/me", s.handleMe)
		})
	})

	return r
}

// Start begins serving the API. It returns an error channel that receives
// any serve failure after startup; the channel is closed on graceful stop.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_api_server").Wrap(err)
		}
	}

	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
