package revocation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	newStore := func(t *testing.T, clock *time.Time) *MemoryStore {
		t.Helper()

		s := NewMemoryStore().WithClock(func() time.Time { return *clock })
		t.Cleanup(s.Close)
		return s
	}

	t.Run("absent token is not revoked", func(t *testing.T) {
		clock := start
		s := newStore(t, &clock)

		revoked, err := s.IsRevoked(t.Context(), "token")

		require.NoError(t, err)
		require.False(t, revoked)
	})

	t.Run("revoke then check", func(t *testing.T) {
		clock := start
		s := newStore(t, &clock)

		err := s.Revoke(t.Context(), "token", time.Hour)
		require.NoError(t, err)

		revoked, err := s.IsRevoked(t.Context(), "token")
		require.NoError(t, err)
		require.True(t, revoked)
	})

	t.Run("revoke is idempotent", func(t *testing.T) {
		clock := start
		s := newStore(t, &clock)

		require.NoError(t, s.Revoke(t.Context(), "token", time.Hour))
		require.NoError(t, s.Revoke(t.Context(), "token", time.Hour))

		revoked, err := s.IsRevoked(t.Context(), "token")
		require.NoError(t, err)
		require.True(t, revoked)
	})

	t.Run("last write wins", func(t *testing.T) {
		clock := start
		s := newStore(t, &clock)

		require.NoError(t, s.Revoke(t.Context(), "token", time.Hour))
		require.NoError(t, s.Revoke(t.Context(), "token", time.Minute))

		clock = start.Add(2 * time.Minute)

		revoked, err := s.IsRevoked(t.Context(), "token")
		require.NoError(t, err)
		require.False(t, revoked, "second revoke should have shortened the entry ttl")
	})

	t.Run("zero or negative ttl is a no-op", func(t *testing.T) {
		clock := start
		s := newStore(t, &clock)

		require.NoError(t, s.Revoke(t.Context(), "token", 0))
		require.NoError(t, s.Revoke(t.Context(), "other", -time.Minute))

		revoked, err := s.IsRevoked(t.Context(), "token")
		require.NoError(t, err)
		require.False(t, revoked, "expired token needs no blacklist entry")
	})

	t.Run("entry expires after ttl", func(t *testing.T) {
		clock := start
		s := newStore(t, &clock)

		require.NoError(t, s.Revoke(t.Context(), "token", time.Minute))

		clock = start.Add(59 * time.Second)
		revoked, err := s.IsRevoked(t.Context(), "token")
		require.NoError(t, err)
		require.True(t, revoked)

		clock = start.Add(61 * time.Second)
		revoked, err = s.IsRevoked(t.Context(), "token")
		require.NoError(t, err)
		require.False(t, revoked, "entry past its ttl should read as absent even before the janitor sweep")
	})

	t.Run("janitor removes expired entries", func(t *testing.T) {
		// The janitor reads the clock from its own goroutine, so this
		// subtest guards it with a mutex
		var mu sync.Mutex
		clock := start
		setClock := func(v time.Time) {
			mu.Lock()
			defer mu.Unlock()
			clock = v
		}

		s := NewMemoryStoreWithInterval(5 * time.Millisecond).WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return clock
		})
		t.Cleanup(s.Close)

		require.NoError(t, s.Revoke(t.Context(), "token", time.Minute))
		setClock(start.Add(2 * time.Minute))

		require.Eventually(t, func() bool {
			s.mu.RLock()
			defer s.mu.RUnlock()
			return len(s.entries) == 0
		}, time.Second, 10*time.Millisecond, "janitor should sweep the expired entry")
	})
}
