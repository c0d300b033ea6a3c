package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteDirectory implements SubjectDirectory using SQLite.
//
// Schema: users, roles(name, level), menus(name, permission, level),
// user_roles, role_menus. Menus reach users through their roles.
type SQLiteDirectory struct {
	db *sql.DB
}

// NewSQLiteDirectory creates a SQLite-backed subject directory.
func NewSQLiteDirectory(db *sql.DB) *SQLiteDirectory {
	return &SQLiteDirectory{db: db}
}

// Principal returns the account for a username, or ErrUnknownSubject.
func (d *SQLiteDirectory) Principal(ctx context.Context, username string) (*Principal, error) {
	var p Principal
	var enabled int
	var createdAt, updatedAt string

	err := d.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, enabled, created_at, updated_at
		 FROM users WHERE username = ?`, username,
	).Scan(&p.ID, &p.Username, &p.PasswordHash, &enabled, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownSubject
		}
		return nil, fmt.Errorf("looking up principal: %w", err)
	}

	p.Enabled = enabled != 0
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &p, nil
}

// DirectRoles returns the roles assigned directly to the user.
func (d *SQLiteDirectory) DirectRoles(ctx context.Context, username string) ([]Role, error) {
	return d.queryRoles(ctx,
		`SELECT r.name, r.level FROM roles r
		 JOIN user_roles ur ON ur.role_id = r.id
		 JOIN users u ON u.id = ur.user_id
		 WHERE u.username = ?
		 ORDER BY r.name`, username)
}

// DirectMenus returns the menu permissions reachable through the user's
// directly assigned roles.
func (d *SQLiteDirectory) DirectMenus(ctx context.Context, username string) ([]MenuPermission, error) {
	return d.queryMenus(ctx,
		`SELECT DISTINCT m.name, m.permission, m.level FROM menus m
		 JOIN role_menus rm ON rm.menu_id = m.id
		 JOIN user_roles ur ON ur.role_id = rm.role_id
		 JOIN users u ON u.id = ur.user_id
		 WHERE u.username = ?
		 ORDER BY m.permission`, username)
}

// RolesAtOrBelowLevel returns every role with level <= level.
func (d *SQLiteDirectory) RolesAtOrBelowLevel(ctx context.Context, level int) ([]Role, error) {
	return d.queryRoles(ctx,
		"SELECT name, level FROM roles WHERE level <= ? ORDER BY name", level)
}

// MenusAtOrBelowLevel returns every menu permission with level <= level.
func (d *SQLiteDirectory) MenusAtOrBelowLevel(ctx context.Context, level int) ([]MenuPermission, error) {
	return d.queryMenus(ctx,
		"SELECT name, permission, level FROM menus WHERE level <= ? ORDER BY permission", level)
}

// Usernames returns every username in the directory, sorted.
func (d *SQLiteDirectory) Usernames(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT username FROM users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("querying usernames: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning username: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating usernames: %w", err)
	}
	return names, nil
}

// DeleteUser removes an account and its role assignments. Returns
// ErrUnknownSubject if the username does not exist.
func (d *SQLiteDirectory) DeleteUser(ctx context.Context, username string) error {
	res, err := d.db.ExecContext(ctx, "DELETE FROM users WHERE username = ?", username)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrUnknownSubject
	}
	return nil
}

func (d *SQLiteDirectory) queryRoles(ctx context.Context, query string, args ...any) ([]Role, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.Name, &r.Level); err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roles: %w", err)
	}
	return roles, nil
}

func (d *SQLiteDirectory) queryMenus(ctx context.Context, query string, args ...any) ([]MenuPermission, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying menus: %w", err)
	}
	defer rows.Close()

	var menus []MenuPermission
	for rows.Next() {
		var m MenuPermission
		var name sql.NullString
		if err := rows.Scan(&name, &m.Permission, &m.Level); err != nil {
			return nil, fmt.Errorf("scanning menu: %w", err)
		}
		if name.Valid {
			m.Name = name.String
		}
		menus = append(menus, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating menus: %w", err)
	}
	return menus, nil
}
