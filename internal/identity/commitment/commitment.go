// Package commitment derives the value that stands in for the passwords when
// a mint request leaves the process.
//
// Each password role is stretched with Argon2id under a shared random salt and
// a role tag; the two derived keys are bound into one BLAKE2b-256 digest. The
// registrar only ever sees the salt and the digest.
package commitment

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"

	"parsid/internal/identity/generator"
	"parsid/internal/identity/models"
	"parsid/pkg/platform/memzero"
)

const (
	SaltBytes = 16
	keyBytes  = 32

	domainTag = "parsid/security-commitment/v1"
	roleReal  = "normal"
	roleDecoy = "duress"
)

// Params are the Argon2id cost knobs.
type Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultParams follow the RFC 9106 second recommended option.
var DefaultParams = Params{Time: 3, MemoryKiB: 64 * 1024, Threads: 4}

// Commitment is the registrar-facing derivative of a SecurityConfig.
type Commitment struct {
	Salt   []byte
	Digest [blake2b.Size256]byte
}

func (c Commitment) SaltHex() string { return hex.EncodeToString(c.Salt) }
func (c Commitment) DigestHex() string { return hex.EncodeToString(c.Digest[:]) }

type Committer struct {
	params Params
	salts  generator.EntropySource
}

// New returns a committer; a nil source means crypto/rand.
func New(params Params, salts generator.EntropySource) *Committer {
	if salts == nil {
		salts = generator.CryptoSource{}
	}
	return &Committer{params: params, salts: salts}
}

// Commit derives a fresh commitment under a new random salt.
func (c *Committer) Commit(cfg models.SecurityConfig) (Commitment, error) {
	salt := make([]byte, SaltBytes)
	if err := c.salts.Fill(salt); err != nil {
		return Commitment{}, fmt.Errorf("draw commitment salt: %w", err)
	}
	digest, err := c.digest(cfg, salt)
	if err != nil {
		return Commitment{}, err
	}
	return Commitment{Salt: salt, Digest: digest}, nil
}

// Verify recomputes the digest for cfg under cm's salt.
func (c *Committer) Verify(cfg models.SecurityConfig, cm Commitment) (bool, error) {
	digest, err := c.digest(cfg, cm.Salt)
	if err != nil {
		return false, err
	}
	return digest == cm.Digest, nil
}

func (c *Committer) digest(cfg models.SecurityConfig, salt []byte) ([blake2b.Size256]byte, error) {
	var out [blake2b.Size256]byte
	h, err := blake2b.New256(nil)
	if err != nil {
		return out, fmt.Errorf("init blake2b: %w", err)
	}

	realKey := c.stretch(cfg.Normal(), salt, roleReal)
	defer memzero.Zero(realKey)
	decoyKey := c.stretch(cfg.Duress(), salt, roleDecoy)
	defer memzero.Zero(decoyKey)

	h.Write([]byte(domainTag))
	h.Write(salt)
	h.Write(realKey)
	h.Write(decoyKey)
	copy(out[:], h.Sum(nil))
	return out, nil
}

func (c *Committer) stretch(password, salt []byte, role string) []byte {
	roleSalt := make([]byte, 0, len(salt)+len(role))
	roleSalt = append(roleSalt, salt...)
	roleSalt = append(roleSalt, role...)
	return argon2.IDKey(password, roleSalt, c.params.Time, c.params.MemoryKiB, c.params.Threads, keyBytes)
}
