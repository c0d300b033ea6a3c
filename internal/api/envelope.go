package api

import (
	"encoding/json"
	"net/http"
)

// Envelope codes. Success is 10000; failures are negative and grouped by
// concern: -1xxxx request shape, -2xxxx authentication and authorization,
// -5xxxx internal.
const (
	CodeSuccess               = 10000
	CodeFailed                = -10000
	CodeValidateFailed        = -10001
	CodeMissingRequestBody    = -10002
	CodeRequestBodyFormat     = -10003
	CodeNeedLogin             = -20000
	CodeBlankUsername         = -20001
	CodeBlankPassword         = -20002
	CodeIncorrectUsername     = -20003
	CodeIncorrectPassword     = -20004
	CodeInsufficientPrivilege = -20005
	CodeAccountLocked         = -20006
	CodeUnknownError          = -50000
)

// envelopeMessages maps each code to its canonical message.
var envelopeMessages = map[int]string{
	CodeSuccess:               "success",
	CodeFailed:                "failed",
	CodeValidateFailed:        "validation failed",
	CodeMissingRequestBody:    "missing request body",
	CodeRequestBodyFormat:     "malformed request body",
	CodeNeedLogin:             "login required",
	CodeBlankUsername:         "username must not be blank",
	CodeBlankPassword:         "password must not be blank",
	CodeIncorrectUsername:     "incorrect username",
	CodeIncorrectPassword:     "incorrect password",
	CodeInsufficientPrivilege: "insufficient privilege",
	CodeAccountLocked:         "account locked",
	CodeUnknownError:          "unknown error",
}

// Envelope is the uniform response body. Every terminal state of every
// endpoint produces exactly one envelope, and envelope failures still
// travel over HTTP 200. Values are built through the constructors and
// never mutated.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success returns a success envelope carrying data.
func Success(data any) Envelope {
	return Envelope{Code: CodeSuccess, Message: envelopeMessages[CodeSuccess], Data: data}
}

// Failure returns a failure envelope with the canonical message for code.
func Failure(code int) Envelope {
	msg, ok := envelopeMessages[code]
	if !ok {
		msg = envelopeMessages[CodeFailed]
	}
	return Envelope{Code: code, Message: msg}
}

// FailureMessage returns a failure envelope with a custom message.
func FailureMessage(code int, message string) Envelope {
	return Envelope{Code: code, Message: message}
}

// writeEnvelope writes an envelope as JSON over HTTP 200.
func writeEnvelope(w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // best-effort write, connection may be closed
	json.NewEncoder(w).Encode(env)
}
