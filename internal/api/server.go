// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api assembles the chi router for the users API.

Every route lives under /api/v1/users except the two probes. Unknown paths
and methods answer with the same JSON error envelope as the handlers.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
	"github.com/taibuivan/vidstream/internal/platform/config"
	"github.com/taibuivan/vidstream/internal/platform/constants"
	"github.com/taibuivan/vidstream/internal/platform/middleware"
	"github.com/taibuivan/vidstream/internal/platform/respond"
	"github.com/taibuivan/vidstream/internal/users/account"
	"github.com/taibuivan/vidstream/internal/users/auth"
)

// # Server Definitions

// Server owns the router and the listening [http.Server].
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler. It answers 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. It answers 200 when postgres and redis respond.
	Readiness http.HandlerFunc

	// Auth handles registration and the session lifecycle.
	Auth *auth.Handler

	// Account handles profile reads and updates.
	Account *account.Handler
}

// # Server Initialization

/*
NewServer builds the router and the [http.Server] around it.

Parameters:
  - ctx: bounds the lifetime of the rate limiter janitors
  - resolver: turns an access token into the authenticated user

Returns:
  - *Server: ready for [Server.ListenAndServe]
*/
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, resolver middleware.IdentityResolver, h Handlers) *Server {
	r := chi.NewRouter()

	// Outermost first. RequestID must precede the logger that reads it.
	r.Use(middleware.RequestID())
	r.Use(middleware.ClientIP(cfg.TrustedProxyNets()))
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(ctx, constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst))
	r.Use(middleware.PanicRecovery())
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	r.NotFound(func(writer http.ResponseWriter, request *http.Request) {
		respond.Error(writer, request, apperr.NotFound("Route"))
	})
	r.MethodNotAllowed(func(writer http.ResponseWriter, request *http.Request) {
		respond.Error(writer, request, apperr.NotFound("Route").WithStatus(http.StatusMethodNotAllowed))
	})

	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	requireAuth := middleware.RequireAuth(resolver)
	optionalAuth := middleware.OptionalAuth(resolver)
	credentialLimit := middleware.RateLimit(ctx, constants.AuthRateLimitRPS, constants.AuthRateLimitBurst)

	r.Route("/api/v1/users", func(users chi.Router) {
		h.Auth.Mount(users, requireAuth, credentialLimit)
		h.Account.Mount(users, requireAuth, optionalAuth)
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe blocks until the server is closed.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits up to timeout for
// in-flight requests to drain.
func (s *Server) Shutdown(timeout time.Duration) error {
	drainCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(drainCtx); err != nil {
		s.log.Warn("server_forced_close", slog.String("error", err.Error()))
		return s.httpServer.Close()
	}
	return nil
}
