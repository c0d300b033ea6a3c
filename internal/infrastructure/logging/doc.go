// Package logging provides structured logging for the admin auth service.
//
// It wraps log/slog with level parsing, JSON/text output selection and
// default fields (service, version) applied to every entry. All methods
// are safe for concurrent use.
//
// Never log credentials, token contents or password hashes. Authentication
// failures are logged with the failure kind only.
package logging
