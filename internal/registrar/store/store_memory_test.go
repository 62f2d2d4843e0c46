package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"parsid/internal/registrar"
	"parsid/pkg/platform/sentinel"
)

type InMemoryHandleStoreSuite struct {
	suite.Suite
	store *InMemoryHandleStore
}

func TestInMemoryHandleStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryHandleStoreSuite))
}

func (s *InMemoryHandleStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func (s *InMemoryHandleStoreSuite) TestReserveAndLookup() {
	ctx := context.Background()
	rec := registrar.Record{Reference: "ref-1", DeadManDays: 7, RegisteredAt: time.Unix(1700000000, 0).UTC()}

	s.Require().NoError(s.store.Reserve(ctx, "resist", rec))

	got, err := s.store.Lookup(ctx, "resist")
	s.Require().NoError(err)
	s.Equal(rec, got)

	s.Run("second reservation conflicts", func() {
		err := s.store.Reserve(ctx, "resist", registrar.Record{Reference: "ref-2"})
		s.ErrorIs(err, sentinel.ErrConflict)

		got, err := s.store.Lookup(ctx, "resist")
		s.Require().NoError(err)
		s.Equal("ref-1", got.Reference)
	})

	s.Run("unknown handle", func() {
		_, err := s.store.Lookup(ctx, "nobody")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryHandleStoreSuite) TestConcurrentReserveHasOneWinner() {
	ctx := context.Background()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.store.Reserve(ctx, "contested", registrar.Record{Reference: fmt.Sprint(i)}) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
}
