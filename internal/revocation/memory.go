package revocation

import (
	"context"
	"sync"
	"time"
)

const defaultCleanupInterval = time.Minute

// MemoryStore is an in-process blacklist for development and tests. It
// keeps the same TTL semantics as RedisStore and sweeps expired entries
// with a background janitor.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time // token -> entry expiry

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithInterval(defaultCleanupInterval)
}

func NewMemoryStoreWithInterval(cleanupInterval time.Duration) *MemoryStore {
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}

	s := &MemoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	go s.cleanupLoop(cleanupInterval)
	return s
}

// WithClock replaces the store clock. Intended for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *MemoryStore) Revoke(_ context.Context, tokenString string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[tokenString] = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, tokenString string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiresAt, ok := s.entries[tokenString]
	if !ok {
		return false, nil
	}

	// Entries past their TTL are equivalent to absence even before the
	// janitor removes them
	return s.now().Before(expiresAt), nil
}

// Close stops the janitor goroutine
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.removeExpired()
		}
	}
}

func (s *MemoryStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for tokenString, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, tokenString)
		}
	}
}
