// Package token implements the bearer token codec.
//
// Tokens are compact three-segment JWTs (header.payload.signature, each
// segment URL-safe base64) signed with RS256: the private key signs at
// issuance, the public key verifies, so issuing and verifying can live in
// different trust boundaries.
//
// Parse and Verify are separate operations: Parse reads claims without
// establishing trust (refresh flows inspect a token before deciding
// whether to accept it), Verify checks the signature and the expiry claim
// and nothing else. Callers that need trusted claims must Verify first.
package token
