package commands

import (
	"bytes"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parsid/internal/registrar/server"
	"parsid/internal/registrar/store"
)

func newRegistrar(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledger, err := server.NewLedger(store.NewInMemory(), server.WithLogger(logger))
	require.NoError(t, err)
	router := chi.NewRouter()
	server.NewHandler(ledger, logger).Register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func execute(args []string, stdin string) (string, string, error) {
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestCheckHandle(t *testing.T) {
	out, _, err := execute([]string{"check-handle", "@Resist.pars"}, "")
	require.NoError(t, err)
	assert.Equal(t, "valid: @resist.pars\n", out)

	_, _, err = execute([]string{"check-handle", "bad__name"}, "")
	assert.ErrorContains(t, err, "consecutive underscores")
}

func TestMint(t *testing.T) {
	srv := newRegistrar(t)
	args := []string{"mint", "--registrar", srv.URL, "--subject", "0xabc", "--explorer", "http://explorer.test"}

	t.Run("resist", func(t *testing.T) {
		out, prompts, err := execute(append(args, "--handle", "resist"), "correct horse battery\nstaple battery horse!\n")
		require.NoError(t, err)
		assert.Contains(t, out, "Handle:     @resist.pars\n")
		assert.Contains(t, out, "DID:        did:pars:")
		assert.Contains(t, out, "Explorer:   http://explorer.test/identity/")
		assert.Contains(t, prompts, "Minting @resist.pars for 0xabc")
		assert.NotContains(t, out+prompts, "correct horse battery")
	})

	t.Run("handle prompted", func(t *testing.T) {
		out, _, err := execute(args, "prompted\ncorrect horse battery\nstaple battery horse!\n")
		require.NoError(t, err)
		assert.Contains(t, out, "@prompted.pars")
	})

	t.Run("taken handle", func(t *testing.T) {
		_, _, err := execute(append(args, "--handle", "resist"), "correct horse battery\nstaple battery horse!\n")
		assert.ErrorContains(t, err, "handle already registered")
	})

	t.Run("weak password", func(t *testing.T) {
		_, _, err := execute(append(args, "--handle", "weak"), "short\nstaple battery horse!\n")
		assert.ErrorContains(t, err, "weak_password")
	})

	t.Run("missing input", func(t *testing.T) {
		_, _, err := execute(append(args, "--handle", "eof"), "only one line\n")
		assert.ErrorContains(t, err, "unexpected end of input")
	})

	t.Run("subject required", func(t *testing.T) {
		_, _, err := execute([]string{"mint", "--registrar", srv.URL}, "")
		assert.ErrorContains(t, err, "subject")
	})
}

func TestPrompterReadsPipedSecretsAsLines(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	_, err = io.WriteString(w, "resist\r\ncorrect horse battery\nstaple battery horse!\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var prompts bytes.Buffer
	ask := newPrompter(r, &prompts)
	assert.False(t, ask.tty)

	handle, err := ask.line("Handle: ")
	require.NoError(t, err)
	assert.Equal(t, "resist", handle)
	normal, err := ask.secret("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "correct horse battery", normal)
	duress, err := ask.secret("Duress password: ")
	require.NoError(t, err)
	assert.Equal(t, "staple battery horse!", duress)
	assert.Equal(t, "Handle: Password: Duress password: ", prompts.String())

	_, err = ask.secret("Password: ")
	assert.EqualError(t, err, "unexpected end of input")
}
