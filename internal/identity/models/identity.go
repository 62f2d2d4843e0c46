package models

import (
	"encoding/hex"
	"encoding/json"
	"time"

	dErrors "parsid/pkg/domain-errors"
)

const (
	IdentityIDBytes = 32
	PublicKeyBytes  = 32

	displayHexChars = 32
)

// IdentityID is the 256-bit anonymous identifier of a minted identity.
type IdentityID [IdentityIDBytes]byte

// Hex renders the id as 64 lowercase hex characters.
func (i IdentityID) Hex() string { return hex.EncodeToString(i[:]) }

func (i IdentityID) String() string { return i.Hex() }

func (i IdentityID) IsZero() bool { return i == IdentityID{} }

// MintedIdentity is created once per successful mint and never mutated.
type MintedIdentity struct {
	id          IdentityID
	handle      string
	publicKey   [PublicKeyBytes]byte
	createdAt   time.Time
	reference   string
	deadManDays int
}

// NewMintedIdentity enforces construction invariants. handle is the fully
// qualified form (for example "@resist.pars").
func NewMintedIdentity(
	identityID IdentityID,
	handle string,
	publicKey [PublicKeyBytes]byte,
	createdAt time.Time,
	reference string,
	deadManDays int,
) (*MintedIdentity, error) {
	if identityID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identity id cannot be zero")
	}
	if handle == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identity handle cannot be empty")
	}
	if publicKey == ([PublicKeyBytes]byte{}) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identity public key cannot be zero")
	}
	if createdAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identity created_at cannot be zero")
	}
	return &MintedIdentity{
		id:          identityID,
		handle:      handle,
		publicKey:   publicKey,
		createdAt:   createdAt,
		reference:   reference,
		deadManDays: deadManDays,
	}, nil
}

func (m *MintedIdentity) ID() IdentityID { return m.id }
func (m *MintedIdentity) Handle() string { return m.handle }
func (m *MintedIdentity) CreatedAt() time.Time { return m.createdAt }

// Reference is the registrar's on-chain reference for the registration.
func (m *MintedIdentity) Reference() string { return m.reference }

func (m *MintedIdentity) DeadManDays() int { return m.deadManDays }

// PublicKey returns a copy of the placeholder public key.
func (m *MintedIdentity) PublicKey() []byte {
	out := make([]byte, PublicKeyBytes)
	copy(out, m.publicKey[:])
	return out
}

// IDHex is the copyable form of the id.
func (m *MintedIdentity) IDHex() string { return m.id.Hex() }

// PublicKeyHex is the copyable form of the public key.
func (m *MintedIdentity) PublicKeyHex() string { return hex.EncodeToString(m.publicKey[:]) }

// MarshalJSON exposes the export view of the identity.
func (m *MintedIdentity) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          string    `json:"id"`
		Handle      string    `json:"handle"`
		PublicKey   string    `json:"public_key"`
		CreatedAt   time.Time `json:"created_at"`
		Reference   string    `json:"reference,omitempty"`
		DeadManDays int       `json:"dead_man_days"`
	}{
		ID:          m.IDHex(),
		Handle:      m.handle,
		PublicKey:   m.PublicKeyHex(),
		CreatedAt:   m.createdAt,
		Reference:   m.reference,
		DeadManDays: m.deadManDays,
	})
}

// Shorten trims a hex string for display: the first 32 characters then "...".
func Shorten(hexValue string) string {
	if len(hexValue) <= displayHexChars {
		return hexValue
	}
	return hexValue[:displayHexChars] + "..."
}
