package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/iefihz/adminauth/internal/auth"
	"github.com/iefihz/adminauth/internal/infrastructure/config"
	"github.com/iefihz/adminauth/internal/infrastructure/logging"
	"github.com/iefihz/adminauth/internal/rememberme"
	"github.com/iefihz/adminauth/internal/token"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Directory is the view of the subject directory the API needs: principal
// and grant lookups for the pipeline, plus the user admin operations
// behind the protected demo routes.
type Directory interface {
	auth.SubjectDirectory
	Usernames(ctx context.Context) ([]string, error)
	DeleteUser(ctx context.Context, username string) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config        config.ServerConfig
	JWT           config.JWTConfig
	Logger        *logging.Logger
	Codec         *token.Codec
	Directory     Directory
	Authenticator *auth.CredentialAuthenticator
	Aggregator    *auth.Aggregator
	RememberMe    rememberme.Store
	Version       string
}

// Server is the HTTP server for the admin auth service.
//
// It is created with New() and started with Start(); Close() drains
// in-flight requests. All methods are safe for concurrent use.
type Server struct {
	cfg           config.ServerConfig
	jwtCfg        config.JWTConfig
	logger        *logging.Logger
	codec         *token.Codec
	directory     Directory
	authenticator *auth.CredentialAuthenticator
	aggregator    *auth.Aggregator
	rememberMe    rememberme.Store
	version       string
	server        *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Codec == nil {
		return nil, fmt.Errorf("token codec is required")
	}
	if deps.Directory == nil {
		return nil, fmt.Errorf("subject directory is required")
	}
	if deps.Authenticator == nil {
		return nil, fmt.Errorf("credential authenticator is required")
	}
	if deps.Aggregator == nil {
		return nil, fmt.Errorf("permission aggregator is required")
	}
	if deps.RememberMe == nil {
		return nil, fmt.Errorf("remember-me store is required")
	}

	return &Server{
		cfg:           deps.Config,
		jwtCfg:        deps.JWT,
		logger:        deps.Logger,
		codec:         deps.Codec,
		directory:     deps.Directory,
		authenticator: deps.Authenticator,
		aggregator:    deps.Aggregator,
		rememberMe:    deps.RememberMe,
		version:       deps.Version,
	}, nil
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to
// gracefulShutdownTimeout for in-flight requests to complete.
func (s *Server) Close() error {
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

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
