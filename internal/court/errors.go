package court

import "errors"

var (
	// ErrNotFound reports an unknown or expired session id.
	ErrNotFound = errors.New("session not found")

	// ErrSessionBusy reports a concurrent advance/resume collision.
	// Rejected callers may retry immediately; the colliding step left
	// no work queued behind it.
	ErrSessionBusy = errors.New("session busy")

	// ErrInvalidState reports a resume on a session that is not parked
	// on a human speaker.
	ErrInvalidState = errors.New("session is not awaiting human input")

	// ErrRoleMismatch reports human input submitted for a role other
	// than the pending speaker.
	ErrRoleMismatch = errors.New("input role does not match pending speaker")

	// ErrInvalidRole reports an unknown role name.
	ErrInvalidRole = errors.New("invalid role")

	// ErrEmptyInput reports blank human input content.
	ErrEmptyInput = errors.New("input content is empty")
)
