package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gt-platform/gtauth/internal/apperrors"
)

const blacklistPrefix = "blacklist:"

// RedisStore is the shared blacklist used in production. Redis provides
// read-after-write per key, so once Revoke returns every worker observes
// the entry.
type RedisStore struct {
	client redis.UniversalClient
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Revoke(ctx context.Context, tokenString string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	err := s.client.Set(ctx, blacklistPrefix+tokenString, "revoked", ttl).Err()
	if err != nil {
		return fmt.Errorf("%w: revoke: %w", apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) IsRevoked(ctx context.Context, tokenString string) (bool, error) {
	n, err := s.client.Exists(ctx, blacklistPrefix+tokenString).Result()
	if err != nil {
		return false, fmt.Errorf("%w: exists: %w", apperrors.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}
