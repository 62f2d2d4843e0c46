package sentinel

import "errors"

// Sentinel errors for store facts. Stores return these (optionally wrapped)
// so callers can translate them into domain or registrar errors.
//
//   - ErrNotFound: the key does not exist in the store
//   - ErrConflict: a unique key (handle) is already taken
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
