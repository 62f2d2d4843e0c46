// Package store keeps live wizard sessions in memory.
//
// Sessions expire a fixed TTL after they are stored and the store is bounded.
// Whichever way a wizard leaves the store its passwords are wiped.
package store

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"parsid/internal/identity/wizard"
	id "parsid/pkg/domain"
	"parsid/pkg/platform/sentinel"
)

const (
	DefaultSize = 10_000
	DefaultTTL  = 15 * time.Minute
)

type Store struct {
	cache *expirable.LRU[id.WizardID, *wizard.Wizard]
}

// New returns a store holding at most size wizards for ttl after Put.
func New(size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		cache: expirable.NewLRU(size, func(_ id.WizardID, w *wizard.Wizard) {
			w.Close()
		}, ttl),
	}
}

func (s *Store) Put(w *wizard.Wizard) {
	s.cache.Add(w.ID(), w)
}

// Get returns the wizard. It never re-inserts: a wizard evicted concurrently
// has already been closed and must stay gone.
func (s *Store) Get(wizardID id.WizardID) (*wizard.Wizard, error) {
	w, ok := s.cache.Get(wizardID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return w, nil
}

// Delete removes and wipes the wizard.
func (s *Store) Delete(wizardID id.WizardID) {
	s.cache.Remove(wizardID)
}

func (s *Store) Len() int {
	return s.cache.Len()
}

// Purge removes and wipes every wizard; used at shutdown.
func (s *Store) Purge() {
	s.cache.Purge()
}
