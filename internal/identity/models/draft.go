package models

import (
	"encoding/json"
	"fmt"
	"log/slog"

	id "parsid/pkg/domain"
	dErrors "parsid/pkg/domain-errors"
	"parsid/pkg/platform/memzero"
)

// Draft is the in-progress input of one identity-creation session.
//
// Drafts are values: the With* methods return a modified copy and leave the
// receiver untouched, so a state machine can check invariants on the whole
// draft at each transition. Password buffers are shared between copies until
// replaced; Wipe zeroes them for every copy.
//
// Passwords never appear in String, LogValue or JSON output.
type Draft struct {
	id          id.DraftID
	handle      string
	normal      []byte
	duress      []byte
	deadManDays int
}

// NewDraft returns an empty draft with the default check-in interval.
func NewDraft(draftID id.DraftID) Draft {
	return Draft{id: draftID, deadManDays: DefaultDeadManDays}
}

func (d Draft) ID() id.DraftID { return d.id }
func (d Draft) Handle() string { return d.handle }
func (d Draft) DeadManDays() int { return d.deadManDays }
func (d Draft) HasPasswords() bool { return len(d.normal) > 0 || len(d.duress) > 0 }

// WithHandle returns a copy carrying handle.
func (d Draft) WithHandle(handle string) Draft {
	d.handle = handle
	return d
}

// WithSecurity returns a copy carrying fresh copies of both passwords and
// the interval. The receiver's previous buffers are not wiped.
func (d Draft) WithSecurity(normal, duress string, deadManDays int) Draft {
	d.normal = []byte(normal)
	d.duress = []byte(duress)
	d.deadManDays = deadManDays
	return d
}

// WithID returns a copy naming a new draft instance. Field values and
// password buffers are shared with the receiver.
func (d Draft) WithID(draftID id.DraftID) Draft {
	d.id = draftID
	return d
}

// WithoutPasswords returns a copy that no longer references the password
// buffers. The receiver's buffers are not wiped.
func (d Draft) WithoutPasswords() Draft {
	d.normal = nil
	d.duress = nil
	return d
}

// CheckHandle runs the handle validator on the draft.
func (d Draft) CheckHandle() HandleCheck { return ValidateHandle(d.handle) }

// CheckPasswords runs the password validator on the draft.
func (d Draft) CheckPasswords() PasswordCheck {
	return ValidatePasswordBytes(d.normal, d.duress)
}

// Validate enforces the promotion invariant: handle and passwords valid and
// the interval in range. The first failing rule is returned.
func (d Draft) Validate() error {
	if err := d.CheckHandle().Err(); err != nil {
		return err
	}
	if err := d.CheckPasswords().Err(); err != nil {
		return err
	}
	return ValidateDeadManDays(d.deadManDays)
}

// SecurityConfig derives an independent validated config. The caller owns
// the returned buffers and must Wipe them.
func (d Draft) SecurityConfig() (SecurityConfig, error) {
	if d.id.IsNil() {
		return SecurityConfig{}, dErrors.New(dErrors.CodeInvariantViolation, "draft has no identifier")
	}
	if err := d.Validate(); err != nil {
		return SecurityConfig{}, err
	}
	return NewSecurityConfig(d.normal, d.duress, d.deadManDays)
}

// Clone returns a copy with its own password buffers.
func (d Draft) Clone() Draft {
	d.normal = memzero.Clone(d.normal)
	d.duress = memzero.Clone(d.duress)
	return d
}

// Wipe zeroes the password buffers.
func (d Draft) Wipe() {
	memzero.Zero(d.normal)
	memzero.Zero(d.duress)
}

// Wiped reports whether every password byte is zero.
func (d Draft) Wiped() bool {
	for _, b := range d.normal {
		if b != 0 {
			return false
		}
	}
	for _, b := range d.duress {
		if b != 0 {
			return false
		}
	}
	return true
}

func (d Draft) String() string {
	return fmt.Sprintf("Draft{id=%s handle=%q passwords=%s dead_man_days=%d}",
		d.id, d.handle, redacted, d.deadManDays)
}

func (d Draft) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("draft_id", d.id.String()),
		slog.String("handle", d.handle),
		slog.Bool("has_passwords", d.HasPasswords()),
		slog.Int("dead_man_days", d.deadManDays),
	)
}

// MarshalJSON renders the draft for API views without the passwords.
func (d Draft) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		DraftID      string `json:"draft_id"`
		Handle       string `json:"handle"`
		HasPasswords bool   `json:"has_passwords"`
		DeadManDays  int    `json:"dead_man_days"`
	}{
		DraftID:      d.id.String(),
		Handle:       d.handle,
		HasPasswords: d.HasPasswords(),
		DeadManDays:  d.deadManDays,
	})
}
