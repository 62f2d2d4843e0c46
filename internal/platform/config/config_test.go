package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServer(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("PARSID_JWT_SIGNING_KEY", "secret")

		cfg, err := LoadServer()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 10*time.Second, cfg.RegistrarTimeout)
		assert.Equal(t, 15*time.Minute, cfg.WizardTTL)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, int64(494949), cfg.Network.Descriptor().ChainID)
		assert.Equal(t, uint32(64*1024), cfg.Argon.Params().MemoryKiB)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("PARSID_JWT_SIGNING_KEY", "secret")
		t.Setenv("PARSID_ADDR", ":9999")
		t.Setenv("PARSID_LOG_LEVEL", "debug")
		t.Setenv("PARSID_NETWORK_EXPLORER_URL", "http://localhost:4000")
		t.Setenv("PARSID_ARGON_TIME", "1")

		cfg, err := LoadServer()
		require.NoError(t, err)
		assert.Equal(t, ":9999", cfg.Addr)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "http://localhost:4000", cfg.Network.ExplorerURL)
		assert.Equal(t, uint32(1), cfg.Argon.Time)
	})

	t.Run("missing signing key", func(t *testing.T) {
		t.Setenv("PARSID_JWT_SIGNING_KEY", "")
		_, err := LoadServer()
		assert.ErrorContains(t, err, "PARSID_JWT_SIGNING_KEY")
	})

	t.Run("bad argon threads", func(t *testing.T) {
		t.Setenv("PARSID_JWT_SIGNING_KEY", "secret")
		t.Setenv("PARSID_ARGON_THREADS", "0")
		_, err := LoadServer()
		assert.Error(t, err)
	})

	t.Run("unparsable duration", func(t *testing.T) {
		t.Setenv("PARSID_JWT_SIGNING_KEY", "secret")
		t.Setenv("PARSID_WIZARD_TTL", "soon")
		_, err := LoadServer()
		assert.ErrorContains(t, err, "parse env")
	})
}

func TestLoadRegistrar(t *testing.T) {
	t.Setenv("PARSID_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := LoadRegistrar()
	require.NoError(t, err)
	assert.Equal(t, ":8090", cfg.Addr)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}
