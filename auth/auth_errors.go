package auth

import "errors"

var (
	// ErrSessionNotFound is returned by the MFA prompt when the session was
	// evicted mid-flight. Boundary operations report absence as a boolean
	// instead.
	ErrSessionNotFound = errors.New("session not found")

	// ErrMFATimeout is returned by the MFA prompt when no code arrives within
	// the configured bound. The login client propagates it back to BeginLogin,
	// which leaves the session in StatusTimeout.
	ErrMFATimeout = errors.New("MFA timeout")
)
