package kvstore

import (
	"context"
	"time"

	"aetheria-backend/pkg/kv"

	gocache "github.com/patrickmn/go-cache"
)

type memoryStore struct {
	store *gocache.Cache
	ttl   time.Duration
}

// NewMemoryStore creates an in-memory key-value store.
// ttl: how long an untouched key survives (0 means never expires)
// cleanupInterval: how often to scan for expired keys
func NewMemoryStore(ttl, cleanupInterval time.Duration) kv.Store {
	return &memoryStore{
		store: gocache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, found := s.store.Get(key)
	if !found {
		return "", kv.ErrNotFound
	}
	val, ok := v.(string)
	if !ok {
		return "", kv.ErrNotFound
	}
	return val, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	s.store.Set(key, value, s.ttl)
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.store.Delete(key)
	return nil
}
