// Package server is the development registrar: a stand-in for the on-chain
// registrar that reserves handles and hands out references.
package server

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"parsid/internal/identity/models"
	"parsid/internal/registrar"
	"parsid/pkg/platform/sentinel"
)

const commitmentHexChars = 64

// Ledger registers identities against a HandleStore. It satisfies
// registrar.Registrar so it can also run in-process.
type Ledger struct {
	handles registrar.HandleStore
	clock   clock.Clock
	logger  *slog.Logger
}

type LedgerOption func(*Ledger)

func WithClock(c clock.Clock) LedgerOption {
	return func(l *Ledger) { l.clock = c }
}

func WithLogger(logger *slog.Logger) LedgerOption {
	return func(l *Ledger) { l.logger = logger }
}

func NewLedger(handles registrar.HandleStore, opts ...LedgerOption) (*Ledger, error) {
	if handles == nil {
		return nil, errors.New("handle store is required")
	}
	l := &Ledger{handles: handles, clock: clock.New(), logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Register validates req and reserves its handle.
func (l *Ledger) Register(ctx context.Context, req registrar.MintRequest) (registrar.Receipt, error) {
	if err := validate(req); err != nil {
		return registrar.Receipt{}, err
	}
	if err := ctx.Err(); err != nil {
		return registrar.Receipt{}, registrar.NewError(registrar.CategoryCanceled, "request canceled", err)
	}

	now := l.clock.Now().UTC()
	rec := registrar.Record{
		Reference:    "0x" + hex.EncodeToString(uuidBytes()),
		IdentityID:   req.IdentityID,
		PublicKey:    req.PublicKey,
		Commitment:   req.Commitment,
		Salt:         req.Salt,
		DeadManDays:  req.DeadManDays,
		Subject:      req.Subject,
		RegisteredAt: now,
	}
	if err := l.handles.Reserve(ctx, req.Handle, rec); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return registrar.Receipt{}, registrar.NewError(registrar.CategoryHandleTaken, "handle already registered", nil)
		}
		return registrar.Receipt{}, registrar.NewError(registrar.CategoryUnavailable, "handle store unavailable", err)
	}

	l.logger.InfoContext(ctx, "identity registered",
		"handle", req.Handle,
		"reference", rec.Reference,
	)
	return registrar.Receipt{Reference: rec.Reference, RegisteredAt: now}, nil
}

// Lookup returns the registration of handle.
func (l *Ledger) Lookup(ctx context.Context, handle string) (registrar.Record, error) {
	return l.handles.Lookup(ctx, handle)
}

func validate(req registrar.MintRequest) error {
	if check := models.ValidateHandle(req.Handle); !check.Valid {
		return registrar.NewError(registrar.CategoryRejected, check.Reason, nil)
	}
	if err := models.ValidateDeadManDays(req.DeadManDays); err != nil {
		return registrar.NewError(registrar.CategoryRejected, models.ReasonDeadManOutOfRange, nil)
	}
	if !isHex(req.Commitment, commitmentHexChars) {
		return registrar.NewError(registrar.CategoryRejected, "commitment must be 64 hex characters", nil)
	}
	if !isHex(req.Salt, 0) {
		return registrar.NewError(registrar.CategoryRejected, "salt must be hex", nil)
	}
	if !isHex(req.IdentityID, 2*models.IdentityIDBytes) || !isHex(req.PublicKey, 2*models.PublicKeyBytes) {
		return registrar.NewError(registrar.CategoryRejected, "identity id and public key must be 64 hex characters", nil)
	}
	if req.Subject == "" {
		return registrar.NewError(registrar.CategoryRejected, "subject is required", nil)
	}
	return nil
}

// isHex reports whether s is non-empty lowercase hex of length n (any even
// length when n is 0).
func isHex(s string, n int) bool {
	if s == "" || (n > 0 && len(s) != n) || len(s)%2 != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func uuidBytes() []byte {
	u := uuid.New()
	return u[:]
}

var _ registrar.Registrar = (*Ledger)(nil)
