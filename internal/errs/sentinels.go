// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across store/session layers.
var (
	// ErrNotFound indicates the requested entry does not exist in storage.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthenticated indicates an authenticated action was attempted
	// with no valid stored access token. Raised locally without a network call.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionExpired indicates the session was invalidated, either by a
	// forced expiry signal or by natural token expiry.
	ErrSessionExpired = errors.New("session expired")
)
