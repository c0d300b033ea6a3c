package auth

import "context"

// SubjectDirectory resolves usernames to account state and to raw role and
// menu assignments. It is the single read-only source of authorisation
// data for this core; any caching is the directory's own concern.
//
// The level queries are directory-side: the aggregator never loads the
// full role graph.
type SubjectDirectory interface {
	// Principal returns the account for a username, or ErrUnknownSubject.
	Principal(ctx context.Context, username string) (*Principal, error)

	// DirectRoles returns the roles assigned directly to the user.
	DirectRoles(ctx context.Context, username string) ([]Role, error)

	// DirectMenus returns the menu permissions reachable through the
	// user's directly assigned roles.
	DirectMenus(ctx context.Context, username string) ([]MenuPermission, error)

	// RolesAtOrBelowLevel returns every role with level <= level.
	RolesAtOrBelowLevel(ctx context.Context, level int) ([]Role, error)

	// MenusAtOrBelowLevel returns every menu permission with level <= level.
	MenusAtOrBelowLevel(ctx context.Context, level int) ([]MenuPermission, error)
}
