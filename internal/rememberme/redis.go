package rememberme

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint for Redis key scans.
const scanBatch = 100

// RedisStore keeps remember-me tokens in Redis under keys of the form
// md5(username)_series, each carrying a fixed TTL so abandoned series
// expire on their own. Create and rotate are serialized by a mutex to
// keep the check-then-write sequences atomic within this process.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	mu  sync.Mutex
}

// NewRedisStore creates a Redis-backed store. Every write refreshes the
// record's TTL to the given duration.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// CreateNew stores a token under a fresh series. Returns ErrSeriesExists
// if the series is already present.
func (s *RedisStore) CreateNew(ctx context.Context, token PersistentToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.findBySeries(ctx, token.Series)
	if err != nil {
		return err
	}
	if existing != "" {
		return ErrSeriesExists
	}

	return s.write(ctx, seriesKey(token.Username, token.Series), token)
}

// Rotate replaces the token value and last-used time of an existing
// series, refreshing its TTL.
func (s *RedisStore) Rotate(ctx context.Context, series, value string, lastUsed time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := s.findBySeries(ctx, series)
	if err != nil {
		return err
	}
	if key == "" {
		return ErrSeriesNotFound
	}

	token, err := s.read(ctx, key)
	if err != nil {
		return err
	}
	token.Value = value
	token.LastUsed = lastUsed

	return s.write(ctx, key, *token)
}

// GetBySeries returns the token stored under a series, or
// ErrSeriesNotFound.
func (s *RedisStore) GetBySeries(ctx context.Context, series string) (*PersistentToken, error) {
	key, err := s.findBySeries(ctx, series)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, ErrSeriesNotFound
	}
	return s.read(ctx, key)
}

// RemoveAllForUser deletes every series the user holds.
func (s *RedisStore) RemoveAllForUser(ctx context.Context, username string) error {
	pattern := usernameHash(username) + "_*"
	iter := s.rdb.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("deleting remember-me key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning remember-me keys: %w", err)
	}
	return nil
}

// findBySeries scans for the key holding a series. Returns the empty
// string when no key matches.
func (s *RedisStore) findBySeries(ctx context.Context, series string) (string, error) {
	iter := s.rdb.Scan(ctx, 0, "*_"+series, scanBatch).Iterator()
	for iter.Next(ctx) {
		return iter.Val(), nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("scanning remember-me keys: %w", err)
	}
	return "", nil
}

func (s *RedisStore) write(ctx context.Context, key string, token PersistentToken) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding remember-me token: %w", err)
	}
	if err := s.rdb.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("storing remember-me token: %w", err)
	}
	return nil
}

func (s *RedisStore) read(ctx context.Context, key string) (*PersistentToken, error) {
	payload, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSeriesNotFound
		}
		return nil, fmt.Errorf("loading remember-me token: %w", err)
	}
	var token PersistentToken
	if err := json.Unmarshal(payload, &token); err != nil {
		return nil, fmt.Errorf("decoding remember-me token: %w", err)
	}
	return &token, nil
}

func seriesKey(username, series string) string {
	return usernameHash(username) + "_" + series
}

func usernameHash(username string) string {
	sum := md5.Sum([]byte(username))
	return hex.EncodeToString(sum[:])
}
