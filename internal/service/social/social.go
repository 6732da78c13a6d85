// Package social verifies third-party identity tokens and extracts the
// verified email/name/picture triple used for social login.
package social

import (
	"context"
)

// Identity extracted from a verified provider token
type Identity struct {
	Email   string
	Name    string
	Picture string
}

type Verifier interface {
	// Provider name as it appears in the social login URL, e.g. "google"
	Provider() string

	// Verify checks the identity token against the provider (signature
	// chain to a known issuer, audience, expiry) and extracts the
	// identity. Any verification failure, including a missing email,
	// returns an error wrapping apperrors.ErrAuthenticationFailed.
	Verify(ctx context.Context, identityToken string) (Identity, error)
}
