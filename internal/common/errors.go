// Package common defines shared constants and sentinel errors used across
// the loadgate client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Engine precondition errors.
	ErrNotInitialized = errors.New("not initialized")
	ErrNoSession      = errors.New("no active session")

	// Session lifecycle errors. ErrSessionInvalid marks a server-side
	// corruption signature: local state has already been cleared and the
	// caller has to re-initialize before retrying.
	ErrSessionInvalid = errors.New("session expired or invalid")

	// Device identity errors.
	ErrHWIDMismatch   = errors.New("hardware identity mismatch")
	ErrNoBoundLicense = errors.New("no bound license key")

	// Store-level errors.
	ErrNotFound = errors.New("not found")
)
