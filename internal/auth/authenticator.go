package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CredentialAuthenticator validates username/password pairs against the
// subject directory and a password verifier.
type CredentialAuthenticator struct {
	dir      SubjectDirectory
	verifier PasswordVerifier
}

// NewCredentialAuthenticator creates a credential authenticator.
func NewCredentialAuthenticator(dir SubjectDirectory, verifier PasswordVerifier) *CredentialAuthenticator {
	return &CredentialAuthenticator{dir: dir, verifier: verifier}
}

// Authenticate validates the presented credentials and returns the
// principal on success.
//
// Checks run in a fixed order and short-circuit: blank username, blank
// password, subject existence, enabled state, and only then the password
// comparison. Existence and enablement are checked before the credential
// so a disabled account fails the same way with or without the right
// password. Directory failures are returned as-is, never disguised as an
// authentication failure.
func (a *CredentialAuthenticator) Authenticate(ctx context.Context, username, password string) (*Principal, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrBlankPrincipal
	}
	if strings.TrimSpace(password) == "" {
		return nil, ErrBlankCredential
	}

	principal, err := a.dir.Principal(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUnknownSubject) {
			return nil, ErrUnknownSubject
		}
		return nil, fmt.Errorf("resolving principal: %w", err)
	}
	if !principal.Enabled {
		return nil, ErrAccountDisabled
	}

	if !a.verifier.Matches(password, principal.PasswordHash) {
		return nil, ErrBadCredentials
	}

	return principal, nil
}
