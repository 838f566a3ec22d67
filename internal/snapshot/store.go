package snapshot

import (
	"context"
	"errors"
	"sync"
)

// Store is key/value byte storage used to survive page reloads within a
// browsing session. Consumers define this interface, not the redis
// implementation.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

var ErrSnapshotMiss = errors.New("snapshot miss")

// MemoryStore keeps snapshots in process memory. Used in tests and when
// no redis address is configured.
type MemoryStore struct {
	m    sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.m.RLock()
	defer s.m.RUnlock()
	value, ok := s.data[key]
	if !ok {
		return nil, ErrSnapshotMiss
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.m.Lock()
	defer s.m.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	s.data[key] = stored
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.m.Lock()
	defer s.m.Unlock()
	delete(s.data, key)
	return nil
}
