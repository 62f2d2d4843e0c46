package models

import (
	"crypto/subtle"
	"unicode/utf16"
	"unicode/utf8"

	dErrors "parsid/pkg/domain-errors"
)

// MinPasswordLength is counted in UTF-16 code units, so a character outside
// the Basic Multilingual Plane counts twice.
const MinPasswordLength = 12

const (
	FieldNormalPassword = "normal_password"
	FieldDuressPassword = "duress_password"

	ReasonPasswordTooShort  = "password must be at least 12 characters"
	ReasonPasswordDuplicate = "duress password must differ from the normal password"
)

// PasswordCheck reports each policy condition independently so callers can
// render field-level errors.
type PasswordCheck struct {
	NormalTooShort bool
	DuressTooShort bool
	Identical      bool
}

func (c PasswordCheck) OK() bool {
	return !c.NormalTooShort && !c.DuressTooShort && !c.Identical
}

// Fields maps each failing field to its message.
func (c PasswordCheck) Fields() map[string]string {
	fields := map[string]string{}
	if c.NormalTooShort {
		fields[FieldNormalPassword] = ReasonPasswordTooShort
	}
	switch {
	case c.DuressTooShort:
		fields[FieldDuressPassword] = ReasonPasswordTooShort
	case c.Identical:
		fields[FieldDuressPassword] = ReasonPasswordDuplicate
	}
	return fields
}

// Err returns nil when the check passed. Identical passwords win over short
// ones: duplicate_password is the more severe defect.
func (c PasswordCheck) Err() error {
	switch {
	case c.OK():
		return nil
	case c.Identical:
		return dErrors.NewWithFields(dErrors.CodeDuplicatePassword, ReasonPasswordDuplicate, c.Fields())
	default:
		return dErrors.NewWithFields(dErrors.CodeWeakPassword, ReasonPasswordTooShort, c.Fields())
	}
}

// ValidatePasswords applies the dual-password policy. Values are compared
// byte for byte with no trimming or normalization and are never retained.
func ValidatePasswords(normal, duress string) PasswordCheck {
	return ValidatePasswordBytes([]byte(normal), []byte(duress))
}

// ValidatePasswordBytes is ValidatePasswords over caller-owned buffers.
func ValidatePasswordBytes(normal, duress []byte) PasswordCheck {
	return PasswordCheck{
		NormalTooShort: utf16Len(normal) < MinPasswordLength,
		DuressTooShort: utf16Len(duress) < MinPasswordLength,
		Identical:      subtle.ConstantTimeCompare(normal, duress) == 1,
	}
}

// utf16Len decodes in place so the password is never copied.
func utf16Len(b []byte) int {
	n := 0
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		n += utf16.RuneLen(r)
		b = b[size:]
	}
	return n
}
