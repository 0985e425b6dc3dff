// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels shared by the transport client and the state containers.
var (
	// ErrValidation indicates missing or malformed local input, rejected before any network call.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates the server rejected the credential (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the requested entity does not exist on the server.
	ErrNotFound = errors.New("not found")

	// ErrNetwork indicates no response was received (DNS failure, refused connection, timeout).
	ErrNetwork = errors.New("network error")

	// ErrServer indicates a non-2xx response carrying an error body.
	ErrServer = errors.New("server error")

	// ErrUnknown is the fallback for failures that fit no other category.
	ErrUnknown = errors.New("unknown error")
)
