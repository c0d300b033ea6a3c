package auth

import (
	"context"
	"errors"
	"testing"
)

// plainVerifier compares passwords without hashing, to keep these tests
// fast. Hashing itself is covered in password_test.go.
type plainVerifier struct{}

func (plainVerifier) Matches(plaintext, hash string) bool {
	return plaintext == hash
}

func testAuthenticator(dir SubjectDirectory) *CredentialAuthenticator {
	return NewCredentialAuthenticator(dir, plainVerifier{})
}

func TestAuthenticate_Success(t *testing.T) {
	dir := newFakeDirectory()
	dir.principals["alice"] = &Principal{ID: 1, Username: "alice", Enabled: true, PasswordHash: "secret"}

	principal, err := testAuthenticator(dir).Authenticate(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if principal.Username != "alice" {
		t.Errorf("principal.Username = %q, want %q", principal.Username, "alice")
	}
}

func TestAuthenticate_CheckOrdering(t *testing.T) {
	dir := newFakeDirectory()
	dir.principals["alice"] = &Principal{ID: 1, Username: "alice", Enabled: true, PasswordHash: "secret"}
	dir.principals["mallory"] = &Principal{ID: 2, Username: "mallory", Enabled: false, PasswordHash: "secret"}

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"blank username", "", "secret", ErrBlankPrincipal},
		{"whitespace username", "   ", "secret", ErrBlankPrincipal},
		{"blank password", "alice", "", ErrBlankCredential},
		{"blank username beats blank password", "", "", ErrBlankPrincipal},
		{"unknown subject", "nobody", "secret", ErrUnknownSubject},
		{"disabled account", "mallory", "wrong", ErrAccountDisabled},
		{"disabled account with right password", "mallory", "secret", ErrAccountDisabled},
		{"wrong password", "alice", "wrong", ErrBadCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testAuthenticator(dir).Authenticate(context.Background(), tt.username, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authenticate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthenticate_DirectoryErrorPropagates(t *testing.T) {
	dir := newFakeDirectory()
	dir.err = errors.New("directory offline")

	_, err := testAuthenticator(dir).Authenticate(context.Background(), "alice", "secret")
	if err == nil {
		t.Fatal("Authenticate() should fail when the directory is unreachable")
	}
	// Backend failure must not masquerade as a credential rejection
	if errors.Is(err, ErrBadCredentials) || errors.Is(err, ErrUnknownSubject) {
		t.Errorf("directory error disguised as credential failure: %v", err)
	}
}
