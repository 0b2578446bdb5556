package memory

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/arkadyv/solkoff-board/internal/domain/apicache"
)

// APICacheStore is the in-memory variant of the provider response cache,
// used when no database is configured and in tests.
type APICacheStore struct {
	mu      sync.RWMutex
	entries map[string]apicache.Entry
	clock   clockwork.Clock
}

func NewAPICacheStore(clock clockwork.Clock) *APICacheStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &APICacheStore{
		entries: make(map[string]apicache.Entry),
		clock:   clock,
	}
}

func (s *APICacheStore) Get(_ context.Context, key string) (apicache.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	return entry, ok, nil
}

func (s *APICacheStore) Put(_ context.Context, entry apicache.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	body := make([]byte, len(entry.Body))
	copy(body, entry.Body)
	entry.Body = body
	s.entries[entry.Key] = entry

	return nil
}

func (s *APICacheStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]apicache.Entry)

	return nil
}

func (s *APICacheStore) DeleteExpired(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for key, entry := range s.entries {
		if entry.Expired(now) {
			delete(s.entries, key)
		}
	}

	return nil
}
