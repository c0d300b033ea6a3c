package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iefihz/adminauth/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, Failure(CodeValidateFailed))
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, Failure(CodeFailed))
	})

	// Health check (no auth required)
	r.Get("/api/v1/health", s.handleHealth)

	// Login route is configurable so deployments can hide it behind a
	// gateway-specific path.
	r.Post(s.cfg.LoginPath, s.handleLogin)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(s.bearerAuthMiddleware)

		r.Get("/api/v1/auth/refresh", s.handleRefresh)
		r.Post("/api/v1/auth/logout", s.handleLogout)
		r.Get("/api/v1/auth/me", s.handleMe)

		// User admin, guarded by the authority table
		r.With(s.requireAuthority(auth.RequireRole("normal"))).
			Get("/api/v1/users", s.handleListUsers)
		r.With(s.requireAuthority(auth.AllOf{
			auth.RequireRole("normal"),
			auth.RequirePermission("user:del"),
		})).Delete("/api/v1/users/{username}", s.handleDeleteUser)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeEnvelope(w, Success(map[string]any{
		"status":  "ok",
		"version": s.version,
	}))
}
