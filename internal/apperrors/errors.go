package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Returned on any credential failure: unknown email, wrong password,
	// unverifiable social identity token. Callers must not expose which
	// part was wrong.
	ErrAuthenticationFailed = errors.New("authentication failed")

	ErrTokenInvalid   = errors.New("token signature is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token is expired")
	ErrTokenRevoked   = errors.New("token is revoked")

	// Revocation or user store unreachable. Validation paths treat this
	// as "revoked" (fail closed), never as "not revoked".
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrPersonNotSaved = errors.New("person could not be saved")
)
