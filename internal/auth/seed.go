package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// seedPasswordBytes is the number of random bytes for the seed admin password.
const seedPasswordBytes = 16

// seedRoles are created on first boot, ranked by level.
var seedRoles = []Role{
	{Name: "normal", Level: 1},
	{Name: "manager", Level: 2},
	{Name: "admin", Level: 3},
}

// seedMenus are created on first boot. Each menu is granted to the seed
// role of the same level, so level inheritance makes lower menus reachable
// from higher roles.
var seedMenus = []MenuPermission{
	{Name: "User List", Permission: "user:view", Level: 1},
	{Name: "User Delete", Permission: "user:del", Level: 2},
	{Name: "System Config", Permission: "sys:config", Level: 3},
}

// SeedAdmin creates the initial admin account, roles and menus on first
// boot if no users exist. The generated password is logged and must be
// changed immediately. Returns the generated password (empty string if
// seeding was skipped).
func SeedAdmin(ctx context.Context, db *sql.DB, logger *slog.Logger) (string, error) {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return "", fmt.Errorf("checking user count: %w", err)
	}

	if count > 0 {
		logger.Info("users exist, skipping admin seed")
		return "", nil
	}

	passwordBytes := make([]byte, seedPasswordBytes)
	if _, err := rand.Read(passwordBytes); err != nil {
		return "", fmt.Errorf("generating seed password: %w", err)
	}
	password := hex.EncodeToString(passwordBytes)

	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing seed password: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, enabled) VALUES (?, ?, 1)`,
		"admin", hash)
	if err != nil {
		return "", fmt.Errorf("creating seed admin: %w", err)
	}
	userID, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("reading seed admin id: %w", err)
	}

	roleIDs := make(map[int]int64, len(seedRoles))
	for _, r := range seedRoles {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO roles (name, level) VALUES (?, ?)", r.Name, r.Level)
		if err != nil {
			return "", fmt.Errorf("creating seed role %s: %w", r.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return "", fmt.Errorf("reading seed role id: %w", err)
		}
		roleIDs[r.Level] = id
	}

	for _, m := range seedMenus {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO menus (name, permission, level) VALUES (?, ?, ?)",
			m.Name, m.Permission, m.Level)
		if err != nil {
			return "", fmt.Errorf("creating seed menu %s: %w", m.Permission, err)
		}
		menuID, err := res.LastInsertId()
		if err != nil {
			return "", fmt.Errorf("reading seed menu id: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO role_menus (role_id, menu_id) VALUES (?, ?)",
			roleIDs[m.Level], menuID); err != nil {
			return "", fmt.Errorf("linking seed menu %s: %w", m.Permission, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)",
		userID, roleIDs[seedRoles[len(seedRoles)-1].Level]); err != nil {
		return "", fmt.Errorf("assigning seed admin role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing seed: %w", err)
	}

	logger.Warn("seed admin account created",
		"username", "admin",
		"password", password,
		"action_required", "change this password immediately",
	)

	return password, nil
}
