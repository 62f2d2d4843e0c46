// Package store holds the dev registrar's handle reservations.
package store

import (
	"context"
	"sync"

	"parsid/internal/registrar"
	"parsid/pkg/platform/sentinel"
)

type InMemoryHandleStore struct {
	mu      sync.RWMutex
	handles map[string]registrar.Record
}

func NewInMemory() *InMemoryHandleStore {
	return &InMemoryHandleStore{handles: make(map[string]registrar.Record)}
}

func (s *InMemoryHandleStore) Reserve(_ context.Context, handle string, rec registrar.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.handles[handle]; taken {
		return sentinel.ErrConflict
	}
	s.handles[handle] = rec
	return nil
}

func (s *InMemoryHandleStore) Lookup(_ context.Context, handle string) (registrar.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.handles[handle]
	if !ok {
		return registrar.Record{}, sentinel.ErrNotFound
	}
	return rec, nil
}
