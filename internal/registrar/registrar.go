// Package registrar defines the boundary to the service that records minted
// identities on chain.
//
// Only derived material crosses this boundary: the bare handle, the fresh
// identity id and public key, the security commitment with its salt, the
// check-in interval and the session subject. Raw passwords never do.
package registrar

import (
	"context"
	"time"
)

// MintRequest is what the coordinator submits for registration.
type MintRequest struct {
	Handle      string `json:"handle"`
	IdentityID  string `json:"identity_id"`
	PublicKey   string `json:"public_key"`
	Commitment  string `json:"commitment"`
	Salt        string `json:"salt"`
	DeadManDays int    `json:"dead_man_days"`
	Subject     string `json:"subject"`
}

// Receipt is the registrar's acknowledgement of a registration.
type Receipt struct {
	Reference    string    `json:"reference"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Registrar submits mint requests. Implementations return *Error on failure
// and must honour ctx cancellation.
type Registrar interface {
	Register(ctx context.Context, req MintRequest) (Receipt, error)
}

// HandleStore reserves handles for the dev registrar. Reserve fails with
// sentinel.ErrConflict when the handle is taken.
type HandleStore interface {
	Reserve(ctx context.Context, handle string, rec Record) error
	Lookup(ctx context.Context, handle string) (Record, error)
}

// Record is what the dev registrar keeps per reserved handle.
type Record struct {
	Reference    string    `json:"reference"`
	IdentityID   string    `json:"identity_id"`
	PublicKey    string    `json:"public_key"`
	Commitment   string    `json:"commitment"`
	Salt         string    `json:"salt"`
	DeadManDays  int       `json:"dead_man_days"`
	Subject      string    `json:"subject"`
	RegisteredAt time.Time `json:"registered_at"`
}
