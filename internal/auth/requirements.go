package auth

// Requirement is a predicate over a principal's effective authority.
// Route guards combine requirements to express access rules.
type Requirement interface {
	Satisfied(authority *EffectiveAuthority) bool
}

// RequireRole is satisfied when the authority holds the named role.
type RequireRole string

func (r RequireRole) Satisfied(authority *EffectiveAuthority) bool {
	return authority.HasRole(string(r))
}

// RequirePermission is satisfied when the authority holds a menu grant
// with the named permission string.
type RequirePermission string

func (r RequirePermission) Satisfied(authority *EffectiveAuthority) bool {
	return authority.HasPermission(string(r))
}

// AllOf is satisfied when every member requirement is satisfied.
// An empty AllOf is satisfied vacuously.
type AllOf []Requirement

func (reqs AllOf) Satisfied(authority *EffectiveAuthority) bool {
	for _, r := range reqs {
		if !r.Satisfied(authority) {
			return false
		}
	}
	return true
}

// AnyOf is satisfied when at least one member requirement is satisfied.
// An empty AnyOf is never satisfied.
type AnyOf []Requirement

func (reqs AnyOf) Satisfied(authority *EffectiveAuthority) bool {
	for _, r := range reqs {
		if r.Satisfied(authority) {
			return true
		}
	}
	return false
}
