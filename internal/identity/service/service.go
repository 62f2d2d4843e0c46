// Package service coordinates wizard sessions for the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parsid/internal/identity/metrics"
	"parsid/internal/identity/models"
	"parsid/internal/identity/store"
	"parsid/internal/identity/wizard"
	"parsid/internal/network"
	"parsid/internal/session"
	id "parsid/pkg/domain"
	dErrors "parsid/pkg/domain-errors"
	"parsid/pkg/platform/sentinel"
)

// Service owns the wizard sessions of every caller. Each wizard belongs to
// the session subject that created it.
type Service struct {
	wizards  *store.Store
	sessions session.Provider
	minter   wizard.Minter
	network  network.Network
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithNetwork(n network.Network) Option {
	return func(s *Service) { s.network = n }
}

func New(wizards *store.Store, sessions session.Provider, minter wizard.Minter, opts ...Option) (*Service, error) {
	if wizards == nil {
		return nil, errors.New("wizard store is required")
	}
	if sessions == nil {
		return nil, errors.New("session provider is required")
	}
	if minter == nil {
		return nil, errors.New("minter is required")
	}
	s := &Service{
		wizards:  wizards,
		sessions: sessions,
		minter:   minter,
		network:  network.Default(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Create opens a wizard on the intro step for the authenticated caller.
func (s *Service) Create(ctx context.Context) (View, error) {
	sess, err := s.authenticated(ctx)
	if err != nil {
		return View{}, err
	}
	opts := []wizard.Option{wizard.WithLogger(s.logger)}
	if s.metrics != nil {
		opts = append(opts, wizard.WithObserver(s.metrics))
	}
	w := wizard.New(id.NewWizardID(), sess.Subject, s.minter, opts...)
	s.wizards.Put(w)
	s.metrics.SetActiveWizards(s.wizards.Len())

	s.logger.InfoContext(ctx, "wizard created", "wizard_id", w.ID().String())
	return s.view(w), nil
}

func (s *Service) Get(ctx context.Context, wizardID id.WizardID) (View, error) {
	w, _, err := s.owned(ctx, wizardID)
	if err != nil {
		return View{}, err
	}
	return s.view(w), nil
}

// Start leaves intro. The session is re-read so an expired token cannot
// advance the wizard.
func (s *Service) Start(ctx context.Context, wizardID id.WizardID) (View, error) {
	w, sess, err := s.owned(ctx, wizardID)
	if err != nil {
		return View{}, err
	}
	return s.result(w, w.Start(sess))
}

// SubmitHandle normalizes form input (case, "@" prefix, ".pars" suffix)
// before the strict validator sees it.
func (s *Service) SubmitHandle(ctx context.Context, wizardID id.WizardID, handle string) (View, error) {
	w, _, err := s.owned(ctx, wizardID)
	if err != nil {
		return View{}, err
	}
	return s.result(w, w.SubmitHandle(network.NormalizeHandle(handle)))
}

// SubmitSecurity sets both passwords. A nil interval keeps the draft's.
func (s *Service) SubmitSecurity(ctx context.Context, wizardID id.WizardID, normal, duress string, deadManDays *int) (View, error) {
	w, _, err := s.owned(ctx, wizardID)
	if err != nil {
		return View{}, err
	}
	days := w.State().DeadManDays()
	if deadManDays != nil {
		days = *deadManDays
	}
	return s.result(w, w.SubmitSecurity(normal, duress, days))
}

func (s *Service) GoBack(ctx context.Context, wizardID id.WizardID) (View, error) {
	w, _, err := s.owned(ctx, wizardID)
	if err != nil {
		return View{}, err
	}
	return s.result(w, w.GoBack())
}

func (s *Service) StartOver(ctx context.Context, wizardID id.WizardID) (View, error) {
	w, _, err := s.owned(ctx, wizardID)
	if err != nil {
		return View{}, err
	}
	return s.result(w, w.StartOver())
}

// Mint runs the mint step. ctx bounds the registrar call.
func (s *Service) Mint(ctx context.Context, wizardID id.WizardID) (View, error) {
	w, _, err := s.owned(ctx, wizardID)
	if err != nil {
		return View{}, err
	}
	start := time.Now()
	_, err = w.Mint(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "mint did not complete",
			"wizard_id", wizardID.String(),
			"error_code", dErrors.CodeOf(err),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return View{}, err
	}
	return s.view(w), nil
}

func (s *Service) result(w *wizard.Wizard, err error) (View, error) {
	if err != nil {
		return View{}, err
	}
	return s.view(w), nil
}

func (s *Service) authenticated(ctx context.Context) (session.Session, error) {
	sess, err := s.sessions.Session(ctx)
	if err != nil {
		return session.Session{}, err
	}
	if !sess.Authenticated || sess.Subject == "" {
		return session.Session{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return sess, nil
}

func (s *Service) owned(ctx context.Context, wizardID id.WizardID) (*wizard.Wizard, session.Session, error) {
	sess, err := s.authenticated(ctx)
	if err != nil {
		return nil, session.Session{}, err
	}
	w, err := s.wizards.Get(wizardID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, session.Session{}, dErrors.New(dErrors.CodeNotFound, "wizard not found or expired")
		}
		return nil, session.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load wizard")
	}
	if w.Owner() != sess.Subject {
		return nil, session.Session{}, dErrors.New(dErrors.CodeForbidden, "wizard belongs to another session")
	}
	return w, sess, nil
}

// View is the client-facing rendering of a wizard. It never carries
// passwords.
type View struct {
	WizardID        string        `json:"wizard_id"`
	Step            wizard.Step   `json:"step"`
	DraftID         string        `json:"draft_id"`
	Handle          string        `json:"handle,omitempty"`
	QualifiedHandle string        `json:"qualified_handle,omitempty"`
	DeadManDays     int           `json:"dead_man_days"`
	PasswordsSet    bool          `json:"passwords_set"`
	Subject         string        `json:"subject,omitempty"`
	Confirm         *ConfirmView  `json:"confirm,omitempty"`
	Identity        *IdentityView `json:"identity,omitempty"`
}

type ConfirmView struct {
	QualifiedHandle  string `json:"qualified_handle"`
	Subject          string `json:"subject"`
	DeadManDays      int    `json:"dead_man_days"`
	DuressConfigured bool   `json:"duress_configured"`
}

// IdentityView is the success screen: full values for copy/export plus the
// shortened display forms.
type IdentityView struct {
	ID             string    `json:"id"`
	ShortID        string    `json:"short_id"`
	Handle         string    `json:"handle"`
	PublicKey      string    `json:"public_key"`
	ShortPublicKey string    `json:"short_public_key"`
	DID            string    `json:"did"`
	ExplorerURL    string    `json:"explorer_url"`
	Reference      string    `json:"reference,omitempty"`
	DeadManDays    int       `json:"dead_man_days"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *Service) view(w *wizard.Wizard) View {
	st := w.State()
	v := View{
		WizardID:     w.ID().String(),
		Step:         st.Step(),
		DraftID:      st.DraftID().String(),
		Handle:       st.Handle(),
		DeadManDays:  st.DeadManDays(),
		PasswordsSet: st.HasPasswords(),
		Subject:      st.Subject(),
	}
	if st.Handle() != "" {
		v.QualifiedHandle = network.QualifyHandle(st.Handle())
	}
	if cv, ok := w.Confirm(); ok {
		v.Confirm = &ConfirmView{
			QualifiedHandle:  cv.QualifiedHandle,
			Subject:          cv.Subject,
			DeadManDays:      cv.DeadManDays,
			DuressConfigured: cv.DuressConfigured,
		}
	}
	if identity := st.Identity(); identity != nil {
		v.Identity = IdentityViewOf(identity, s.network)
	}
	return v
}

// IdentityViewOf renders a minted identity for display on net.
func IdentityViewOf(identity *models.MintedIdentity, net network.Network) *IdentityView {
	return &IdentityView{
		ID:             identity.IDHex(),
		ShortID:        models.Shorten(identity.IDHex()),
		Handle:         identity.Handle(),
		PublicKey:      identity.PublicKeyHex(),
		ShortPublicKey: models.Shorten(identity.PublicKeyHex()),
		DID:            net.DID(identity.IDHex()),
		ExplorerURL:    net.ExplorerLink(identity.IDHex()),
		Reference:      identity.Reference(),
		DeadManDays:    identity.DeadManDays(),
		CreatedAt:      identity.CreatedAt(),
	}
}
