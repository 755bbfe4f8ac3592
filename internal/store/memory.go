package store

import (
	"context"
	"sync"
	"time"

	"github.com/omarespejel/starknet-unity-clicker-demo/internal/model"
)

// MemoryStore keeps session keys in a process-local map. It is the default
// backend and holds nothing across restarts. Expired entries are removed by
// the cleanup job.
type MemoryStore struct {
	mu   sync.RWMutex
	keys map[string]model.SessionKey
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys: make(map[string]model.SessionKey),
	}
}

func (s *MemoryStore) Get(ctx context.Context, playerAddress string) (*model.SessionKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.keys[playerAddress]
	if !ok {
		return nil, nil
	}
	cp := key
	return &cp, nil
}

func (s *MemoryStore) PutIfAbsent(ctx context.Context, key *model.SessionKey) (*model.SessionKey, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.keys[key.PlayerAddress]; ok {
		cp := existing
		return &cp, false, nil
	}

	s.keys[key.PlayerAddress] = *key
	cp := *key
	return &cp, true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, playerAddress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.keys, playerAddress)
	return nil
}

// DeleteExpired removes all keys past their expiry and reports how many were
// removed.
func (s *MemoryStore) DeleteExpired(ctx context.Context) (int64, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for player, key := range s.keys {
		if key.Expired(now) {
			delete(s.keys, player)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}
