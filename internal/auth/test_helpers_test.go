package auth

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the auth schema applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	f, err := os.CreateTemp("", "auth-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schemaSQL := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		);

		CREATE TABLE roles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			level INTEGER NOT NULL
		);

		CREATE TABLE menus (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT,
			permission TEXT NOT NULL UNIQUE,
			level INTEGER NOT NULL
		);

		CREATE TABLE user_roles (
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role_id INTEGER NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
			PRIMARY KEY (user_id, role_id)
		);

		CREATE TABLE role_menus (
			role_id INTEGER NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
			menu_id INTEGER NOT NULL REFERENCES menus(id) ON DELETE CASCADE,
			PRIMARY KEY (role_id, menu_id)
		);
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	return db
}

// insertUser adds an account and returns its id.
func insertUser(t *testing.T, db *sql.DB, username, passwordHash string, enabled bool) int64 {
	t.Helper()

	enabledInt := 0
	if enabled {
		enabledInt = 1
	}
	res, err := db.Exec(
		"INSERT INTO users (username, password_hash, enabled) VALUES (?, ?, ?)",
		username, passwordHash, enabledInt)
	if err != nil {
		t.Fatalf("inserting user %s: %v", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("reading user id: %v", err)
	}
	return id
}

// insertRole adds a role and returns its id.
func insertRole(t *testing.T, db *sql.DB, name string, level int) int64 {
	t.Helper()

	res, err := db.Exec("INSERT INTO roles (name, level) VALUES (?, ?)", name, level)
	if err != nil {
		t.Fatalf("inserting role %s: %v", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("reading role id: %v", err)
	}
	return id
}

// insertMenu adds a menu and returns its id.
func insertMenu(t *testing.T, db *sql.DB, name, permission string, level int) int64 {
	t.Helper()

	res, err := db.Exec(
		"INSERT INTO menus (name, permission, level) VALUES (?, ?, ?)",
		sqlNullable(name), permission, level)
	if err != nil {
		t.Fatalf("inserting menu %s: %v", permission, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("reading menu id: %v", err)
	}
	return id
}

func sqlNullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// assignRole links a user to a role.
func assignRole(t *testing.T, db *sql.DB, userID, roleID int64) {
	t.Helper()

	if _, err := db.Exec(
		"INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)", userID, roleID); err != nil {
		t.Fatalf("assigning role: %v", err)
	}
}

// grantMenu links a role to a menu.
func grantMenu(t *testing.T, db *sql.DB, roleID, menuID int64) {
	t.Helper()

	if _, err := db.Exec(
		"INSERT INTO role_menus (role_id, menu_id) VALUES (?, ?)", roleID, menuID); err != nil {
		t.Fatalf("granting menu: %v", err)
	}
}

// fakeDirectory is an in-memory SubjectDirectory for aggregator and
// authenticator tests.
type fakeDirectory struct {
	principals map[string]*Principal
	userRoles  map[string][]Role
	userMenus  map[string][]MenuPermission
	allRoles   []Role
	allMenus   []MenuPermission
	err        error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		principals: make(map[string]*Principal),
		userRoles:  make(map[string][]Role),
		userMenus:  make(map[string][]MenuPermission),
	}
}

func (d *fakeDirectory) Principal(_ context.Context, username string) (*Principal, error) {
	if d.err != nil {
		return nil, d.err
	}
	p, ok := d.principals[username]
	if !ok {
		return nil, ErrUnknownSubject
	}
	return p, nil
}

func (d *fakeDirectory) DirectRoles(_ context.Context, username string) ([]Role, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.userRoles[username], nil
}

func (d *fakeDirectory) DirectMenus(_ context.Context, username string) ([]MenuPermission, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.userMenus[username], nil
}

func (d *fakeDirectory) RolesAtOrBelowLevel(_ context.Context, level int) ([]Role, error) {
	if d.err != nil {
		return nil, d.err
	}
	var roles []Role
	for _, r := range d.allRoles {
		if r.Level <= level {
			roles = append(roles, r)
		}
	}
	return roles, nil
}

func (d *fakeDirectory) MenusAtOrBelowLevel(_ context.Context, level int) ([]MenuPermission, error) {
	if d.err != nil {
		return nil, d.err
	}
	var menus []MenuPermission
	for _, m := range d.allMenus {
		if m.Level <= level {
			menus = append(menus, m)
		}
	}
	return menus, nil
}
