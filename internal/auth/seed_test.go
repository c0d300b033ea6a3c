package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSeedAdmin_EmptyDirectory(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	password, err := SeedAdmin(ctx, db, discardLogger())
	if err != nil {
		t.Fatalf("SeedAdmin() error = %v", err)
	}
	if password == "" {
		t.Fatal("SeedAdmin() should return a generated password")
	}

	dir := NewSQLiteDirectory(db)
	principal, err := dir.Principal(ctx, "admin")
	if err != nil {
		t.Fatalf("seeded admin not found: %v", err)
	}
	if !principal.Enabled {
		t.Error("seeded admin should be enabled")
	}
	if !(BcryptVerifier{}).Matches(password, principal.PasswordHash) {
		t.Error("generated password should match the stored hash")
	}

	// The admin aggregates the full grant set
	authority, err := NewAggregator(dir).Aggregate(ctx, principal)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	for _, role := range []string{"normal", "manager", "admin"} {
		if !authority.HasRole(role) {
			t.Errorf("seeded admin should hold role %q", role)
		}
	}
	for _, perm := range []string{"user:view", "user:del", "sys:config"} {
		if !authority.HasPermission(perm) {
			t.Errorf("seeded admin should hold permission %q", perm)
		}
	}
}

func TestSeedAdmin_SkipsWhenUsersExist(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	insertUser(t, db, "existing", "hash", true)

	password, err := SeedAdmin(ctx, db, discardLogger())
	if err != nil {
		t.Fatalf("SeedAdmin() error = %v", err)
	}
	if password != "" {
		t.Error("SeedAdmin() should skip when users exist")
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		t.Fatalf("counting users: %v", err)
	}
	if count != 1 {
		t.Errorf("user count = %d, want 1", count)
	}
}
