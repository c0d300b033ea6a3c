package rememberme

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by Store implementations.
var (
	ErrSeriesExists   = errors.New("remember-me series already exists")
	ErrSeriesNotFound = errors.New("remember-me series not found")
)

// PersistentToken is one remember-me record, keyed by series.
type PersistentToken struct {
	Username string    `json:"username"`
	Series   string    `json:"series"`
	Value    string    `json:"value"`
	LastUsed time.Time `json:"last_used"`
}

// Store persists remember-me tokens. CreateNew refuses duplicate series,
// Rotate replaces the token value of an existing series, and
// RemoveAllForUser clears every series a user holds.
type Store interface {
	CreateNew(ctx context.Context, token PersistentToken) error
	Rotate(ctx context.Context, series, value string, lastUsed time.Time) error
	GetBySeries(ctx context.Context, series string) (*PersistentToken, error)
	RemoveAllForUser(ctx context.Context, username string) error
}
