package auth

import (
	"context"
	"fmt"
	"sort"
)

// Aggregator computes a principal's effective authority from the subject
// directory using level-based inheritance.
type Aggregator struct {
	dir SubjectDirectory
}

// NewAggregator creates a permission aggregator over the given directory.
func NewAggregator(dir SubjectDirectory) *Aggregator {
	return &Aggregator{dir: dir}
}

// Aggregate computes the effective authority of a principal.
//
// The algorithm: fetch the principal's direct roles and menus, find the
// highest level among the direct roles (minRoleLevel when roleless), ask
// the directory for everything at or below that level, and union the two
// sets. Roles deduplicate by name, menus by permission string. The result
// is a pure function of the directory snapshot and the input, so repeated
// calls with unchanged state are set-equal.
func (a *Aggregator) Aggregate(ctx context.Context, principal *Principal) (*EffectiveAuthority, error) {
	direct, err := a.dir.DirectRoles(ctx, principal.Username)
	if err != nil {
		return nil, fmt.Errorf("fetching direct roles: %w", err)
	}
	directMenus, err := a.dir.DirectMenus(ctx, principal.Username)
	if err != nil {
		return nil, fmt.Errorf("fetching direct menus: %w", err)
	}

	topLevel := minRoleLevel
	for _, r := range direct {
		if r.Level > topLevel {
			topLevel = r.Level
		}
	}

	inherited, err := a.dir.RolesAtOrBelowLevel(ctx, topLevel)
	if err != nil {
		return nil, fmt.Errorf("fetching inherited roles: %w", err)
	}
	inheritedMenus, err := a.dir.MenusAtOrBelowLevel(ctx, topLevel)
	if err != nil {
		return nil, fmt.Errorf("fetching inherited menus: %w", err)
	}

	return &EffectiveAuthority{
		Roles: mergeByKey(func(r Role) string { return r.Name }, direct, inherited),
		Menus: mergeByKey(func(m MenuPermission) string { return m.Permission }, directMenus, inheritedMenus),
	}, nil
}

// mergeByKey unions the given lists, keeping the first occurrence of each
// key and returning the result in key order. Both grantable kinds (roles
// and menus) share this merge.
func mergeByKey[T any](key func(T) string, lists ...[]T) []T {
	seen := make(map[string]bool)
	var merged []T
	for _, list := range lists {
		for _, item := range list {
			k := key(item)
			if seen[k] {
				continue
			}
			seen[k] = true
			merged = append(merged, item)
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		return key(merged[i]) < key(merged[j])
	})
	return merged
}
