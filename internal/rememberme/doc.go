// Package rememberme stores persistent login tokens keyed by series.
//
// A series is minted when a subject logs in with the remember flag set,
// rotated on each use, and removed wholesale on logout. The Redis-backed
// store is the production implementation; the in-memory store mirrors its
// semantics for tests and development.
package rememberme
