package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/iefihz/adminauth/internal/auth"
	"github.com/iefihz/adminauth/internal/rememberme"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// UserView is the envelope data returned by login and refresh: the
// subject, a fresh token pair, and the aggregated authority sets.
type UserView struct {
	ID           int64    `json:"id"`
	Username     string   `json:"username"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	Roles        []string `json:"roles"`
	Routers      []string `json:"routers"`
	Permissions  []string `json:"permissions"`
}

// handleLogin authenticates credentials and returns a token pair plus
// the subject's aggregated authority.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			writeEnvelope(w, Failure(CodeMissingRequestBody))
			return
		}
		writeEnvelope(w, Failure(CodeRequestBodyFormat))
		return
	}

	principal, err := s.authenticator.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeEnvelope(w, Failure(loginFailureCode(err)))
		if !isCredentialFailure(err) {
			s.logger.Error("authenticating credentials", "error", err, "username", req.Username)
		}
		return
	}

	view, err := s.buildUserView(r, principal)
	if err != nil {
		s.logger.Error("building login view", "error", err, "username", principal.Username)
		writeEnvelope(w, Failure(CodeUnknownError))
		return
	}

	if req.Remember {
		if err := s.createRememberSeries(r, principal.Username); err != nil {
			s.logger.Error("creating remember-me series", "error", err, "username", principal.Username)
			writeEnvelope(w, Failure(CodeUnknownError))
			return
		}
	}

	s.logger.Info("login succeeded", "username", principal.Username)
	writeEnvelope(w, Success(view))
}

// handleRefresh issues a fresh token pair to an authenticated subject.
// The bearer middleware has already re-resolved and re-checked the
// account, so a disabled or deleted subject never reaches this point.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ac := authenticated(r)

	view, err := s.buildUserView(r, ac.Principal)
	if err != nil {
		s.logger.Error("building refresh view", "error", err, "username", ac.Principal.Username)
		writeEnvelope(w, Failure(CodeUnknownError))
		return
	}

	writeEnvelope(w, Success(view))
}

// handleLogout clears the subject's remember-me series. Issued access
// tokens stay valid until their natural expiry.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ac := authenticated(r)

	if err := s.rememberMe.RemoveAllForUser(r.Context(), ac.Principal.Username); err != nil {
		s.logger.Error("clearing remember-me series", "error", err, "username", ac.Principal.Username)
		writeEnvelope(w, Failure(CodeUnknownError))
		return
	}

	s.logger.Info("logout", "username", ac.Principal.Username)
	writeEnvelope(w, Success(nil))
}

// handleMe returns the authenticated principal and its authority.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	ac := authenticated(r)

	writeEnvelope(w, Success(map[string]any{
		"id":          ac.Principal.ID,
		"username":    ac.Principal.Username,
		"roles":       ac.Authority.RoleNames(),
		"routers":     ac.Authority.Routers(),
		"permissions": ac.Authority.Permissions(),
	}))
}

// buildUserView aggregates the principal's authority and issues a fresh
// access/refresh token pair.
func (s *Server) buildUserView(r *http.Request, principal *auth.Principal) (*UserView, error) {
	authority, err := s.aggregator.Aggregate(r.Context(), principal)
	if err != nil {
		return nil, err
	}

	identity := auth.Identity{ID: principal.ID, Username: principal.Username}
	accessToken, err := s.codec.Issue(identity, s.jwtCfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.codec.Issue(identity, s.jwtCfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	return &UserView{
		ID:           principal.ID,
		Username:     principal.Username,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Roles:        authority.RoleNames(),
		Routers:      authority.Routers(),
		Permissions:  authority.Permissions(),
	}, nil
}

// createRememberSeries mints a new remember-me series for the subject.
func (s *Server) createRememberSeries(r *http.Request, username string) error {
	return s.rememberMe.CreateNew(r.Context(), rememberme.PersistentToken{
		Username: username,
		Series:   uuid.NewString(),
		Value:    uuid.NewString(),
		LastUsed: time.Now(),
	})
}

// loginFailureCode maps an authentication error to its envelope code.
func loginFailureCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrBlankPrincipal):
		return CodeBlankUsername
	case errors.Is(err, auth.ErrBlankCredential):
		return CodeBlankPassword
	case errors.Is(err, auth.ErrUnknownSubject):
		return CodeIncorrectUsername
	case errors.Is(err, auth.ErrAccountDisabled):
		return CodeAccountLocked
	case errors.Is(err, auth.ErrBadCredentials):
		return CodeIncorrectPassword
	default:
		return CodeUnknownError
	}
}

// isCredentialFailure reports whether err is an expected credential
// rejection rather than a backend failure worth logging as an error.
func isCredentialFailure(err error) bool {
	return errors.Is(err, auth.ErrBlankPrincipal) ||
		errors.Is(err, auth.ErrBlankCredential) ||
		errors.Is(err, auth.ErrUnknownSubject) ||
		errors.Is(err, auth.ErrAccountDisabled) ||
		errors.Is(err, auth.ErrBadCredentials)
}
