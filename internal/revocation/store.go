// Package revocation holds the token blacklist. Revoked token values are
// stored with a TTL equal to the token's remaining validity, so entries
// disappear exactly when the token would have expired anyway.
package revocation

import (
	"context"
	"time"
)

type Store interface {
	// Revoke marks tokenString unusable for ttl. Idempotent: revoking an
	// already revoked token overwrites the entry (last write wins, the
	// TTL is never extended beyond the new call's value). A ttl <= 0 is
	// a no-op: the token is already expired and storing it would only
	// bloat the store.
	Revoke(ctx context.Context, tokenString string, ttl time.Duration) error

	// IsRevoked reports whether tokenString was revoked and its entry
	// has not yet expired. A store failure is returned as an error
	// wrapping apperrors.ErrStoreUnavailable; callers must fail closed
	// and treat the token as revoked.
	IsRevoked(ctx context.Context, tokenString string) (bool, error)
}
