package generator

import (
	"bytes"
	"encoding/hex"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lowerHex64 = regexp.MustCompile(`^[0-9a-f]{64}$`)

// counterSource yields a deterministic byte stream for tests.
type counterSource struct{ next byte }

func (c *counterSource) Fill(b []byte) error {
	for i := range b {
		b[i] = c.next
		c.next++
	}
	return nil
}

type failingSource struct{}

func (failingSource) Fill([]byte) error { return errors.New("entropy exhausted") }

func TestIdentityIDUniqueness(t *testing.T) {
	g := New(nil)
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		identityID, err := g.IdentityID()
		require.NoError(t, err)
		h := identityID.Hex()
		_, dup := seen[h]
		require.False(t, dup, "duplicate identity id %s after %d draws", h, i)
		seen[h] = struct{}{}
	}
}

func TestHexEncoding(t *testing.T) {
	g := New(nil)
	identityID, err := g.IdentityID()
	require.NoError(t, err)
	assert.Regexp(t, lowerHex64, identityID.Hex())

	key, err := g.PublicKey()
	require.NoError(t, err)
	assert.Regexp(t, lowerHex64, hex.EncodeToString(key[:]))
}

func TestDrawsAreIndependent(t *testing.T) {
	g := New(&counterSource{})

	identityID, err := g.IdentityID()
	require.NoError(t, err)
	key, err := g.PublicKey()
	require.NoError(t, err)

	assert.Equal(t, byte(0), identityID[0])
	assert.Equal(t, byte(31), identityID[31])
	assert.Equal(t, byte(32), key[0], "public key must come from a second draw")
	assert.NotEqual(t, identityID[:], key[:])
}

func TestSourceFailure(t *testing.T) {
	g := New(failingSource{})

	_, err := g.IdentityID()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")

	_, err = g.PublicKey()
	require.Error(t, err)
}

func TestReaderSourceRejectsShortReads(t *testing.T) {
	g := New(ReaderSource{R: bytes.NewReader(make([]byte, 10))})
	_, err := g.IdentityID()
	require.Error(t, err)
}
