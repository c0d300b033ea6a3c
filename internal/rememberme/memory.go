package rememberme

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and development. Records
// expire lazily: reads past the TTL behave as if the series were gone.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	tokens map[string]memoryRecord
}

type memoryRecord struct {
	token     PersistentToken
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory store with the given TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:    ttl,
		now:    time.Now,
		tokens: make(map[string]memoryRecord),
	}
}

// CreateNew stores a token under a fresh series. Returns ErrSeriesExists
// if the series is already present.
func (s *MemoryStore) CreateNew(_ context.Context, token PersistentToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(token.Series); ok {
		return ErrSeriesExists
	}
	s.tokens[token.Series] = memoryRecord{token: token, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Rotate replaces the token value and last-used time of an existing
// series, refreshing its TTL.
func (s *MemoryStore) Rotate(_ context.Context, series, value string, lastUsed time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.live(series)
	if !ok {
		return ErrSeriesNotFound
	}
	rec.token.Value = value
	rec.token.LastUsed = lastUsed
	rec.expiresAt = s.now().Add(s.ttl)
	s.tokens[series] = rec
	return nil
}

// GetBySeries returns the token stored under a series, or
// ErrSeriesNotFound.
func (s *MemoryStore) GetBySeries(_ context.Context, series string) (*PersistentToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.live(series)
	if !ok {
		return nil, ErrSeriesNotFound
	}
	token := rec.token
	return &token, nil
}

// RemoveAllForUser deletes every series the user holds.
func (s *MemoryStore) RemoveAllForUser(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for series, rec := range s.tokens {
		if rec.token.Username == username {
			delete(s.tokens, series)
		}
	}
	return nil
}

// live returns the record for a series if it exists and has not expired.
// Callers must hold s.mu.
func (s *MemoryStore) live(series string) (memoryRecord, bool) {
	rec, ok := s.tokens[series]
	if !ok {
		return memoryRecord{}, false
	}
	if s.now().After(rec.expiresAt) {
		delete(s.tokens, series)
		return memoryRecord{}, false
	}
	return rec, true
}
