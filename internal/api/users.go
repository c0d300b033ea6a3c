package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iefihz/adminauth/internal/auth"
)

// handleListUsers returns every username in the directory.
// Requires the normal role.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	usernames, err := s.directory.Usernames(r.Context())
	if err != nil {
		s.logger.Error("listing users", "error", err)
		writeEnvelope(w, Failure(CodeUnknownError))
		return
	}

	writeEnvelope(w, Success(usernames))
}

// handleDeleteUser removes an account and clears its remember-me series.
// Requires the normal role plus the user:del permission.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if err := s.directory.DeleteUser(r.Context(), username); err != nil {
		if errors.Is(err, auth.ErrUnknownSubject) {
			writeEnvelope(w, Failure(CodeIncorrectUsername))
			return
		}
		s.logger.Error("deleting user", "error", err, "username", username)
		writeEnvelope(w, Failure(CodeUnknownError))
		return
	}

	if err := s.rememberMe.RemoveAllForUser(r.Context(), username); err != nil {
		s.logger.Error("clearing remember-me series", "error", err, "username", username)
	}

	s.logger.Info("user deleted", "username", username)
	writeEnvelope(w, Success(nil))
}
