package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"parsid/internal/identity/models"
	"parsid/internal/identity/wizard"
	"parsid/internal/session"
	id "parsid/pkg/domain"
	"parsid/pkg/platform/sentinel"
)

type noMinter struct{}

func (noMinter) Mint(context.Context, models.Draft, string) (*models.MintedIdentity, error) {
	panic("not called")
}

type StoreSuite struct {
	suite.Suite
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) wizardAtConfirm() *wizard.Wizard {
	w := wizard.New(id.NewWizardID(), "0xabc", noMinter{})
	s.Require().NoError(w.Start(session.Session{Authenticated: true, Subject: "0xabc"}))
	s.Require().NoError(w.SubmitHandle("resist"))
	s.Require().NoError(w.SubmitSecurity("correct horse battery", "duress horse battery", 7))
	return w
}

func (s *StoreSuite) TestPutGetDelete() {
	st := New(10, time.Minute)
	w := s.wizardAtConfirm()
	st.Put(w)

	got, err := st.Get(w.ID())
	s.Require().NoError(err)
	s.Same(w, got)
	s.Equal(1, st.Len())

	st.Delete(w.ID())
	_, err = st.Get(w.ID())
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.False(w.State().HasPasswords(), "deleted wizard is wiped")
}

func (s *StoreSuite) TestEvictionWipes() {
	st := New(1, time.Minute)
	first := s.wizardAtConfirm()
	second := s.wizardAtConfirm()

	st.Put(first)
	st.Put(second)

	_, err := st.Get(first.ID())
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.False(first.State().HasPasswords())
	s.True(second.State().HasPasswords())
}

// Polling faster than the TTL must not keep the wizard alive.
func (s *StoreSuite) TestGetDoesNotExtendExpiry() {
	st := New(10, 50*time.Millisecond)
	w := s.wizardAtConfirm()
	st.Put(w)

	s.Eventually(func() bool {
		_, err := st.Get(w.ID())
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)
	s.Eventually(func() bool { return !w.State().HasPasswords() }, 2*time.Second, 10*time.Millisecond)
	s.Equal(0, st.Len(), "expired wizard is not re-inserted")
}

func (s *StoreSuite) TestPurge() {
	st := New(10, time.Minute)
	w := s.wizardAtConfirm()
	st.Put(w)
	st.Purge()
	s.Equal(0, st.Len())
	s.False(w.State().HasPasswords())
}
