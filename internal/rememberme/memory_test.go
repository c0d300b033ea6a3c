package rememberme

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	token := PersistentToken{
		Username: "alice",
		Series:   "series-1",
		Value:    "value-1",
		LastUsed: time.Now(),
	}
	if err := store.CreateNew(ctx, token); err != nil {
		t.Fatalf("CreateNew() error = %v", err)
	}

	got, err := store.GetBySeries(ctx, "series-1")
	if err != nil {
		t.Fatalf("GetBySeries() error = %v", err)
	}
	if got.Username != "alice" || got.Value != "value-1" {
		t.Errorf("GetBySeries() = %+v", got)
	}
}

func TestMemoryStore_DuplicateSeries(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	token := PersistentToken{Username: "alice", Series: "series-1", Value: "value-1"}
	if err := store.CreateNew(ctx, token); err != nil {
		t.Fatalf("CreateNew() error = %v", err)
	}

	err := store.CreateNew(ctx, PersistentToken{Username: "bob", Series: "series-1", Value: "other"})
	if !errors.Is(err, ErrSeriesExists) {
		t.Errorf("CreateNew() error = %v, want ErrSeriesExists", err)
	}
}

func TestMemoryStore_Rotate(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	if err := store.CreateNew(ctx, PersistentToken{Username: "alice", Series: "series-1", Value: "old"}); err != nil {
		t.Fatalf("CreateNew() error = %v", err)
	}

	used := time.Now().Add(time.Minute)
	if err := store.Rotate(ctx, "series-1", "new", used); err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}

	got, err := store.GetBySeries(ctx, "series-1")
	if err != nil {
		t.Fatalf("GetBySeries() error = %v", err)
	}
	if got.Value != "new" {
		t.Errorf("Value = %q after rotate, want %q", got.Value, "new")
	}
	if got.Username != "alice" || got.Series != "series-1" {
		t.Errorf("rotate should preserve username and series, got %+v", got)
	}
	if !got.LastUsed.Equal(used) {
		t.Errorf("LastUsed = %v, want %v", got.LastUsed, used)
	}

	if err := store.Rotate(ctx, "missing", "x", used); !errors.Is(err, ErrSeriesNotFound) {
		t.Errorf("Rotate(missing) error = %v, want ErrSeriesNotFound", err)
	}
}

func TestMemoryStore_RemoveAllForUser(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	for _, token := range []PersistentToken{
		{Username: "alice", Series: "a-1", Value: "v"},
		{Username: "alice", Series: "a-2", Value: "v"},
		{Username: "bob", Series: "b-1", Value: "v"},
	} {
		if err := store.CreateNew(ctx, token); err != nil {
			t.Fatalf("CreateNew(%s) error = %v", token.Series, err)
		}
	}

	if err := store.RemoveAllForUser(ctx, "alice"); err != nil {
		t.Fatalf("RemoveAllForUser() error = %v", err)
	}

	for _, series := range []string{"a-1", "a-2"} {
		if _, err := store.GetBySeries(ctx, series); !errors.Is(err, ErrSeriesNotFound) {
			t.Errorf("GetBySeries(%s) error = %v, want ErrSeriesNotFound", series, err)
		}
	}
	// Other users keep their series
	if _, err := store.GetBySeries(ctx, "b-1"); err != nil {
		t.Errorf("GetBySeries(b-1) error = %v", err)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if err := store.CreateNew(ctx, PersistentToken{Username: "alice", Series: "series-1", Value: "v"}); err != nil {
		t.Fatalf("CreateNew() error = %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := store.GetBySeries(ctx, "series-1"); !errors.Is(err, ErrSeriesNotFound) {
		t.Errorf("GetBySeries() error = %v after TTL, want ErrSeriesNotFound", err)
	}

	// An expired series can be recreated
	if err := store.CreateNew(ctx, PersistentToken{Username: "alice", Series: "series-1", Value: "v2"}); err != nil {
		t.Errorf("CreateNew() after expiry error = %v", err)
	}
}
