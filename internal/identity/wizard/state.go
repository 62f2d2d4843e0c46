// Package wizard is the identity-creation state machine.
//
// State is an immutable value advanced by Reduce, which is pure: it never
// touches the network, the clock or randomness. Wizard wraps a State for one
// user session, owns the asynchronous mint step and wipes password buffers
// that transitions leave behind.
package wizard

import (
	"fmt"

	"parsid/internal/identity/models"
	"parsid/internal/session"
	id "parsid/pkg/domain"
	dErrors "parsid/pkg/domain-errors"
)

// Step is a wizard screen.
type Step string

const (
	StepIntro    Step = "intro"
	StepCreate   Step = "create"
	StepSecurity Step = "security"
	StepConfirm  Step = "confirm"
	StepSuccess  Step = "success"
)

// State holds exactly one draft and at most one minted identity.
type State struct {
	step     Step
	draft    models.Draft
	subject  string
	identity *models.MintedIdentity
}

// NewState returns the intro state around an empty draft.
func NewState(draftID id.DraftID) State {
	return State{step: StepIntro, draft: models.NewDraft(draftID)}
}

func (s State) Step() Step { return s.step }
func (s State) Subject() string { return s.subject }
func (s State) Identity() *models.MintedIdentity { return s.identity }
func (s State) DraftID() id.DraftID { return s.draft.ID() }
func (s State) Handle() string { return s.draft.Handle() }
func (s State) DeadManDays() int { return s.draft.DeadManDays() }
func (s State) HasPasswords() bool { return s.draft.HasPasswords() }

// Action is an input to Reduce.
type Action interface {
	name() string
}

// Start leaves intro. The session must be authenticated.
type Start struct {
	Session session.Session
}

// SubmitHandle proposes the public handle on the create step.
type SubmitHandle struct {
	Handle string
}

// SubmitSecurity proposes both passwords and the check-in interval.
type SubmitSecurity struct {
	NormalPassword string
	DuressPassword string
	DeadManDays    int
}

// GoBack moves one step back. Leaving confirm re-identifies the draft with
// NextDraftID so a mint still in flight cannot be mistaken for the edited
// draft; leaving create discards the draft.
type GoBack struct {
	NextDraftID id.DraftID
}

// StartOver discards the draft from any step.
type StartOver struct {
	NextDraftID id.DraftID
}

// MintSucceeded records the identity minted from the confirm step.
type MintSucceeded struct {
	Identity *models.MintedIdentity
}

func (Start) name() string { return "start" }
func (SubmitHandle) name() string { return "submit_handle" }
func (SubmitSecurity) name() string { return "submit_security" }
func (GoBack) name() string { return "go_back" }
func (StartOver) name() string { return "start_over" }
func (MintSucceeded) name() string { return "mint_succeeded" }

// Reduce applies a to s. On error the returned state is s, unchanged.
func Reduce(s State, a Action) (State, error) {
	switch a := a.(type) {
	case Start:
		if s.step != StepIntro {
			return s, invalidTransition(s, a.name())
		}
		if !a.Session.Authenticated {
			return s, dErrors.New(dErrors.CodeUnauthorized, "connect a wallet before creating an identity")
		}
		s.step = StepCreate
		s.subject = a.Session.Subject
		return s, nil

	case SubmitHandle:
		if s.step != StepCreate {
			return s, invalidTransition(s, a.name())
		}
		if err := models.ValidateHandle(a.Handle).Err(); err != nil {
			return s, err
		}
		s.draft = s.draft.WithHandle(a.Handle)
		s.step = StepSecurity
		return s, nil

	case SubmitSecurity:
		if s.step != StepSecurity {
			return s, invalidTransition(s, a.name())
		}
		if err := models.ValidatePasswords(a.NormalPassword, a.DuressPassword).Err(); err != nil {
			return s, err
		}
		if err := models.ValidateDeadManDays(a.DeadManDays); err != nil {
			return s, err
		}
		s.draft = s.draft.WithSecurity(a.NormalPassword, a.DuressPassword, a.DeadManDays)
		s.step = StepConfirm
		return s, nil

	case GoBack:
		switch s.step {
		case StepCreate:
			return reset(s, a.NextDraftID, a)
		case StepSecurity:
			s.step = StepCreate
			return s, nil
		case StepConfirm:
			if a.NextDraftID.IsNil() {
				return s, dErrors.New(dErrors.CodeInvariantViolation, "leaving confirm requires a new draft id")
			}
			s.draft = s.draft.WithID(a.NextDraftID)
			s.step = StepSecurity
			return s, nil
		default:
			return s, invalidTransition(s, a.name())
		}

	case StartOver:
		return reset(s, a.NextDraftID, a)

	case MintSucceeded:
		if s.step != StepConfirm {
			return s, invalidTransition(s, a.name())
		}
		if a.Identity == nil {
			return s, dErrors.New(dErrors.CodeInvariantViolation, "mint succeeded without an identity")
		}
		s.draft = s.draft.WithoutPasswords()
		s.identity = a.Identity
		s.step = StepSuccess
		return s, nil

	default:
		return s, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown wizard action %T", a))
	}
}

// reset keeps the authenticated subject: the session is external to the draft.
func reset(s State, next id.DraftID, a Action) (State, error) {
	if next.IsNil() {
		return s, dErrors.New(dErrors.CodeInvariantViolation, a.name()+" requires a new draft id")
	}
	return State{step: StepIntro, draft: models.NewDraft(next), subject: s.subject}, nil
}

func invalidTransition(s State, action string) error {
	return dErrors.New(dErrors.CodeInvalidTransition,
		fmt.Sprintf("%s is not allowed on the %s step", action, s.step))
}
