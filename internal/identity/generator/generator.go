// Package generator draws the random material of a new identity.
//
// Both the identity id and the placeholder public key are independent 32-byte
// draws from an EntropySource. Production code uses CryptoSource, backed by
// crypto/rand; tests may substitute a deterministic source.
package generator

import (
	"crypto/rand"
	"fmt"
	"io"

	"parsid/internal/identity/models"
)

// EntropySource fills b entirely with secure random bytes or fails.
type EntropySource interface {
	Fill(b []byte) error
}

// CryptoSource reads from the operating system CSPRNG.
type CryptoSource struct{}

func (CryptoSource) Fill(b []byte) error {
	_, err := io.ReadFull(rand.Reader, b)
	return err
}

// ReaderSource adapts an io.Reader. Short reads are errors.
type ReaderSource struct {
	R io.Reader
}

func (s ReaderSource) Fill(b []byte) error {
	_, err := io.ReadFull(s.R, b)
	return err
}

type Generator struct {
	source EntropySource
}

// New returns a generator over source; nil means CryptoSource.
func New(source EntropySource) *Generator {
	if source == nil {
		source = CryptoSource{}
	}
	return &Generator{source: source}
}

// IdentityID draws a fresh 256-bit identity id.
func (g *Generator) IdentityID() (models.IdentityID, error) {
	var out models.IdentityID
	if err := g.source.Fill(out[:]); err != nil {
		return models.IdentityID{}, fmt.Errorf("draw identity id: %w", err)
	}
	return out, nil
}

// PublicKey draws the placeholder public key. Key derivation belongs to an
// external crypto module; this is an independent random draw.
func (g *Generator) PublicKey() ([models.PublicKeyBytes]byte, error) {
	var out [models.PublicKeyBytes]byte
	if err := g.source.Fill(out[:]); err != nil {
		return [models.PublicKeyBytes]byte{}, fmt.Errorf("draw public key: %w", err)
	}
	return out, nil
}
