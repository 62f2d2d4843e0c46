// Package domain holds typed identifiers shared across modules.
package domain

import (
	"github.com/google/uuid"

	dErrors "parsid/pkg/domain-errors"
)

// WizardID names one identity-creation session hosted by the server.
type WizardID uuid.UUID

// DraftID names one draft instance. Starting over yields a new DraftID, which
// is what the mint coordinator keys its in-flight guard on.
type DraftID uuid.UUID

func NewWizardID() WizardID { return WizardID(uuid.New()) }

func NewDraftID() DraftID { return DraftID(uuid.New()) }

func (id WizardID) String() string { return uuid.UUID(id).String() }
func (id WizardID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id DraftID) String() string { return uuid.UUID(id).String() }
func (id DraftID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ParseWizardID parses a wizard ID from untrusted input.
func ParseWizardID(s string) (WizardID, error) {
	u, err := parseUUID(s, "wizard ID")
	return WizardID(u), err
}

// ParseDraftID parses a draft ID from untrusted input.
func ParseDraftID(s string) (DraftID, error) {
	u, err := parseUUID(s, "draft ID")
	return DraftID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be nil")
	}
	return u, nil
}
