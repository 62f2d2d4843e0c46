package models

import (
	"strings"

	dErrors "parsid/pkg/domain-errors"
)

const (
	MinHandleLength = 3
	MaxHandleLength = 32
)

// Handle rejection reasons, shown next to the handle field.
const (
	ReasonHandleRequired    = "handle is required"
	ReasonHandleTooShort    = "handle must be at least 3 characters"
	ReasonHandleTooLong     = "handle must be at most 32 characters"
	ReasonHandleCharset     = "handle may contain only lowercase letters, numbers and underscores"
	ReasonHandleEdge        = "handle must start and end with a letter or number"
	ReasonHandleDoubleUnder = "handle cannot contain consecutive underscores"
)

// HandleCheck is the verdict of ValidateHandle.
type HandleCheck struct {
	Valid  bool
	Reason string
}

// Err converts a failed check into an invalid_handle error; nil when valid.
func (c HandleCheck) Err() error {
	if c.Valid {
		return nil
	}
	return dErrors.NewWithFields(dErrors.CodeInvalidHandle, c.Reason, map[string]string{"handle": c.Reason})
}

// ValidateHandle checks a candidate handle (without "@" or suffix).
//
// A handle is valid iff it is 3-32 bytes of [a-z0-9_], starts and ends with
// [a-z0-9], and has no "__". Any other input, including non-ASCII bytes, is
// invalid; the function never panics.
func ValidateHandle(h string) HandleCheck {
	switch {
	case h == "":
		return HandleCheck{Reason: ReasonHandleRequired}
	case len(h) < MinHandleLength:
		return HandleCheck{Reason: ReasonHandleTooShort}
	case len(h) > MaxHandleLength:
		return HandleCheck{Reason: ReasonHandleTooLong}
	}
	for i := 0; i < len(h); i++ {
		if !isHandleByte(h[i]) {
			return HandleCheck{Reason: ReasonHandleCharset}
		}
	}
	if h[0] == '_' || h[len(h)-1] == '_' {
		return HandleCheck{Reason: ReasonHandleEdge}
	}
	if strings.Contains(h, "__") {
		return HandleCheck{Reason: ReasonHandleDoubleUnder}
	}
	return HandleCheck{Valid: true}
}

// NormalizeHandleInput lowercases raw form input and strips a leading "@"
// and the network suffix the user may have typed. It does not make an
// invalid handle valid.
func NormalizeHandleInput(raw, suffix string) string {
	h := strings.ToLower(strings.TrimSpace(raw))
	h = strings.TrimPrefix(h, "@")
	if suffix != "" {
		h = strings.TrimSuffix(h, suffix)
	}
	return h
}

func isHandleByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '_'
}
