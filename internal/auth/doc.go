// Package auth provides the authentication and authorisation core for the
// admin backend.
//
// It implements:
//   - Credential authentication against the subject directory with a
//     strict failure order (blank checks, existence, enabled state, then
//     password comparison)
//   - Level-ranked permission aggregation: a role of level N inherits every
//     role and menu permission whose level is at or below N; inheritance is
//     computed, never stored
//   - Declarative authority requirements evaluated against the aggregated
//     set by the HTTP layer
//
// The effective authority is recomputed from the directory on every
// authenticated request. Tokens prove identity only; authorisation state
// is always fresh, so disablement and role changes take effect on the
// next request regardless of outstanding tokens.
package auth
