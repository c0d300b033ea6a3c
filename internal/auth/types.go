package auth

import (
	"errors"
	"sort"
	"time"
)

// minRoleLevel is the lowest role rank. A principal with no roles
// aggregates at this level.
const minRoleLevel = 1

// Principal is an account known to the subject directory.
//
// The directory owns principals; this core only reads them. Enablement and
// password changes happen elsewhere and are observed on the next lookup.
type Principal struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Enabled      bool      `json:"enabled"`
	PasswordHash string    `json:"-"` // never serialised
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role is a named authorisation tier with an integer rank. Higher level
// means more senior; seniority implies inheritance of every grant at or
// below that level.
type Role struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// MenuPermission is a grantable menu entry: an optional route name, a
// permission string, and the minimum role level required to hold it.
type MenuPermission struct {
	Name       string `json:"name,omitempty"`
	Permission string `json:"permission"`
	Level      int    `json:"level"`
}

// Identity is the minimal subject payload embedded in issued tokens.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// EffectiveAuthority is the full computed grant set of a principal after
// level-based inheritance: roles deduplicated by name, menus deduplicated
// by permission string. It is derived per request and never persisted.
type EffectiveAuthority struct {
	Roles []Role
	Menus []MenuPermission
}

// HasRole reports whether the authority includes a role with the given name.
func (a *EffectiveAuthority) HasRole(name string) bool {
	for _, r := range a.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// HasPermission reports whether the authority includes the permission string.
func (a *EffectiveAuthority) HasPermission(permission string) bool {
	for _, m := range a.Menus {
		if m.Permission == permission {
			return true
		}
	}
	return false
}

// RoleNames returns the sorted role names.
func (a *EffectiveAuthority) RoleNames() []string {
	names := make([]string, 0, len(a.Roles))
	for _, r := range a.Roles {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names
}

// Routers returns the sorted non-blank menu route names.
func (a *EffectiveAuthority) Routers() []string {
	routers := make([]string, 0, len(a.Menus))
	for _, m := range a.Menus {
		if m.Name != "" {
			routers = append(routers, m.Name)
		}
	}
	sort.Strings(routers)
	return routers
}

// Permissions returns the sorted permission strings.
func (a *EffectiveAuthority) Permissions() []string {
	perms := make([]string, 0, len(a.Menus))
	for _, m := range a.Menus {
		perms = append(perms, m.Permission)
	}
	sort.Strings(perms)
	return perms
}

// Sentinel errors for authentication operations. The API layer maps each
// to its envelope code; nothing here knows about HTTP.
var (
	ErrBlankPrincipal  = errors.New("username must not be blank")
	ErrBlankCredential = errors.New("password must not be blank")
	ErrUnknownSubject  = errors.New("unknown username")
	ErrAccountDisabled = errors.New("account is disabled")
	ErrBadCredentials  = errors.New("incorrect password")
)
