package wizard

import (
	"context"
	"log/slog"
	"sync"

	"parsid/internal/identity/models"
	"parsid/internal/network"
	"parsid/internal/session"
	id "parsid/pkg/domain"
	dErrors "parsid/pkg/domain-errors"
)

// Minter performs the mint step. The draft passed in is a private clone the
// wizard wipes once Mint returns.
type Minter interface {
	Mint(ctx context.Context, draft models.Draft, subject string) (*models.MintedIdentity, error)
}

// Observer receives transition outcomes.
type Observer interface {
	ObserveTransition(action string, from, to Step)
	ObserveRejection(action string, code dErrors.Code)
}

// Wizard is one user's identity-creation session.
type Wizard struct {
	id       id.WizardID
	owner    string
	minter   Minter
	newID    func() id.DraftID
	logger   *slog.Logger
	observer Observer

	mu    sync.Mutex
	state State
	epoch uint64
}

type Option func(*Wizard)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Wizard) { w.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(w *Wizard) { w.observer = o }
}

// WithDraftIDs overrides draft id generation; used by tests.
func WithDraftIDs(next func() id.DraftID) Option {
	return func(w *Wizard) { w.newID = next }
}

// New returns a wizard on the intro step, owned by owner.
func New(wizardID id.WizardID, owner string, minter Minter, opts ...Option) *Wizard {
	w := &Wizard{
		id:     wizardID,
		owner:  owner,
		minter: minter,
		newID:  id.NewDraftID,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	w.state = NewState(w.newID())
	return w
}

func (w *Wizard) ID() id.WizardID { return w.id }
func (w *Wizard) Owner() string { return w.owner }

// State returns a snapshot. Its draft shares buffers with the wizard; use
// the accessors, which never expose passwords.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Wizard) Start(sess session.Session) error {
	return w.apply(Start{Session: sess})
}

func (w *Wizard) SubmitHandle(handle string) error {
	return w.apply(SubmitHandle{Handle: handle})
}

func (w *Wizard) SubmitSecurity(normal, duress string, deadManDays int) error {
	return w.apply(SubmitSecurity{NormalPassword: normal, DuressPassword: duress, DeadManDays: deadManDays})
}

func (w *Wizard) GoBack() error {
	return w.apply(GoBack{NextDraftID: w.newID()})
}

func (w *Wizard) StartOver() error {
	return w.apply(StartOver{NextDraftID: w.newID()})
}

// Mint runs the mint step for the current draft. The lock is not held while
// the registrar is called; a result arriving after the user navigated away or
// started over is discarded with stale_result. On failure the wizard stays on
// confirm with the draft intact.
func (w *Wizard) Mint(ctx context.Context) (*models.MintedIdentity, error) {
	w.mu.Lock()
	if w.state.step != StepConfirm {
		err := invalidTransition(w.state, "mint")
		w.mu.Unlock()
		w.reject("mint", err)
		return nil, err
	}
	epoch := w.epoch
	draft := w.state.draft.Clone()
	subject := w.state.subject
	w.mu.Unlock()

	identity, err := w.minter.Mint(ctx, draft, subject)
	draft.Wipe()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.epoch != epoch {
		if err == nil {
			w.logger.WarnContext(ctx, "discarding stale mint result",
				"wizard_id", w.id.String(),
				"draft_id", draft.ID().String(),
			)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStaleResult, "the wizard changed while the identity was being minted")
	}
	if err != nil {
		w.reject("mint", err)
		return nil, err
	}
	if err := w.transitionLocked(MintSucceeded{Identity: identity}); err != nil {
		return nil, err
	}
	return identity, nil
}

// ConfirmView is what the confirm step shows. Passwords are never part of
// it, only the fact that a duress password is configured.
type ConfirmView struct {
	QualifiedHandle  string
	Subject          string
	DeadManDays      int
	DuressConfigured bool
}

// Confirm returns the confirm summary; ok is false on any other step.
func (w *Wizard) Confirm() (ConfirmView, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.step != StepConfirm {
		return ConfirmView{}, false
	}
	return ConfirmView{
		QualifiedHandle:  network.QualifyHandle(w.state.draft.Handle()),
		Subject:          w.state.subject,
		DeadManDays:      w.state.draft.DeadManDays(),
		DuressConfigured: w.state.draft.HasPasswords(),
	}, true
}

// Close wipes any password still held and invalidates in-flight mints.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.draft.Wipe()
	w.state.draft = w.state.draft.WithoutPasswords()
	w.epoch++
}

func (w *Wizard) apply(a Action) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.transitionLocked(a)
}

func (w *Wizard) transitionLocked(a Action) error {
	prev := w.state
	next, err := Reduce(prev, a)
	if err != nil {
		w.reject(a.name(), err)
		return err
	}
	if dropsSecrets(prev, a) {
		prev.draft.Wipe()
	}
	w.state = next
	w.epoch++

	w.logger.Info("wizard transition",
		"wizard_id", w.id.String(),
		"action", a.name(),
		"from", string(prev.step),
		"to", string(next.step),
		"draft", next.draft,
	)
	if w.observer != nil {
		w.observer.ObserveTransition(a.name(), prev.step, next.step)
	}
	return nil
}

// dropsSecrets reports whether a successful a leaves prev's password buffers
// unreferenced by the next state.
func dropsSecrets(prev State, a Action) bool {
	switch a.(type) {
	case SubmitSecurity, StartOver, MintSucceeded:
		return true
	case GoBack:
		return prev.step == StepCreate
	default:
		return false
	}
}

func (w *Wizard) reject(action string, err error) {
	code := dErrors.CodeOf(err)
	w.logger.Info("wizard transition rejected",
		"wizard_id", w.id.String(),
		"action", action,
		"error_code", string(code),
	)
	if w.observer != nil {
		w.observer.ObserveRejection(action, code)
	}
}
