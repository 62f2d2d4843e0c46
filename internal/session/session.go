// Package session answers whether the caller holds an authenticated wallet
// session. Token issuance lives elsewhere; this package only verifies.
package session

import "context"

// Session is the precondition for leaving the intro step. Subject is the
// connected wallet address shown on the confirm step.
type Session struct {
	Authenticated bool
	Subject       string
}

// Provider resolves the session of the caller bound to ctx.
type Provider interface {
	Session(ctx context.Context) (Session, error)
}

// Static always reports the same session. The CLI uses it with the address
// passed on the command line.
type Static struct {
	Value Session
}

func (s Static) Session(context.Context) (Session, error) { return s.Value, nil }
