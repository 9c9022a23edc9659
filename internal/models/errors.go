package models

import "errors"

// Sentinels for backend outcomes. The backend client wraps its failures in
// these; the HTTP layer maps them to statuses.
var (
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized means the backend rejected the stored token; the
	// session is stale and must be cleared.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials means the login call rejected the account or
	// password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUpstream           = errors.New("backend unavailable")
	// ErrRejected means the backend refused the request body.
	ErrRejected = errors.New("rejected by backend")
	// ErrNoToken is returned when a call needs a session token and there
	// is none.
	ErrNoToken       = errors.New("no session token")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrInvalidID     = errors.New("invalid id")
)
