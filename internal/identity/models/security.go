package models

import (
	"log/slog"

	dErrors "parsid/pkg/domain-errors"
	"parsid/pkg/platform/memzero"
)

const (
	MinDeadManDays     = 3
	MaxDeadManDays     = 30
	DefaultDeadManDays = 7

	FieldDeadManDays        = "dead_man_days"
	ReasonDeadManOutOfRange = "dead man's switch interval must be between 3 and 30 days"

	redacted = "[REDACTED]"
)

// ValidateDeadManDays checks the check-in interval bounds.
func ValidateDeadManDays(days int) error {
	if days < MinDeadManDays || days > MaxDeadManDays {
		return dErrors.NewWithFields(dErrors.CodeValidation, ReasonDeadManOutOfRange,
			map[string]string{FieldDeadManDays: ReasonDeadManOutOfRange})
	}
	return nil
}

// SecurityConfig is the validated password pair plus check-in interval.
//
// Invariants:
//   - both passwords satisfy the length policy
//   - normal and duress differ byte for byte
//   - MinDeadManDays <= deadManDays <= MaxDeadManDays
//
// The buffers are owned by the config; call Wipe when done.
type SecurityConfig struct {
	normal      []byte
	duress      []byte
	deadManDays int
}

// NewSecurityConfig validates and copies the inputs.
func NewSecurityConfig(normal, duress []byte, deadManDays int) (SecurityConfig, error) {
	if err := ValidatePasswordBytes(normal, duress).Err(); err != nil {
		return SecurityConfig{}, err
	}
	if err := ValidateDeadManDays(deadManDays); err != nil {
		return SecurityConfig{}, err
	}
	return SecurityConfig{
		normal:      memzero.Clone(normal),
		duress:      memzero.Clone(duress),
		deadManDays: deadManDays,
	}, nil
}

// Normal returns the real password buffer. Callers must not retain it.
func (c SecurityConfig) Normal() []byte { return c.normal }

// Duress returns the duress password buffer. Callers must not retain it.
func (c SecurityConfig) Duress() []byte { return c.duress }

func (c SecurityConfig) DeadManDays() int { return c.deadManDays }

// Wipe zeroes both password buffers.
func (c SecurityConfig) Wipe() {
	memzero.Zero(c.normal)
	memzero.Zero(c.duress)
}

func (c SecurityConfig) String() string { return redacted }

func (c SecurityConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("passwords", redacted),
		slog.Int("dead_man_days", c.deadManDays),
	)
}
