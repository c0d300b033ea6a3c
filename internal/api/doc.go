// Package api implements the HTTP surface of the admin auth service.
//
// This package provides:
//   - Credential login, token refresh, logout, and identity endpoints
//   - A bearer-token middleware that turns every request into an
//     authenticated context or a need-login envelope
//   - Declarative per-route authority requirements
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Response envelope
//
// Every endpoint answers with the same JSON envelope {code, message, data}.
// Business failures keep HTTP 200 and signal through the code field;
// only the recovery middleware produces a non-200 status.
//
// # Pipeline
//
// Protected routes pass through a fixed sequence: bearer extraction,
// signature and expiry verification, subject re-resolution against the
// directory, permission aggregation, context attachment. Any token
// problem collapses into the need-login code so clients cannot probe
// which check failed. Directory outages are reported as internal errors
// instead.
package api
