package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "parsid/pkg/domain-errors"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "internal_error", body["error"])
		assert.NotContains(t, body, "error_description")
	})

	t.Run("invariant violation is opaque", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInvariantViolation, "draft has no identifier"))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, decodeBody(t, w), "error_description")
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "bad_request", body["error"])
		assert.Equal(t, "invalid input", body["error_description"])
	})

	t.Run("validation errors carry fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.NewWithFields(dErrors.CodeWeakPassword, "too short",
			map[string]string{"normal_password": "too short"}))

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, map[string]any{"normal_password": "too short"}, body["fields"])
	})

	t.Run("unknown errors are internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("boom"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestWriteErrorMintFailed(t *testing.T) {
	cases := []struct {
		name      string
		retryable bool
		status    int
	}{
		{"retryable", true, http.StatusServiceUnavailable},
		{"final", false, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.WrapRetryable(errors.New("upstream"), dErrors.CodeMintFailed, "registration failed", tc.retryable))

			require.Equal(t, tc.status, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, "mint_failed", body["error"])
			assert.Equal(t, tc.retryable, body["retryable"])
			assert.Equal(t, "registration failed", body["error_description"])
		})
	}
}

func TestWriteErrorWithRetry(t *testing.T) {
	t.Run("plain errors say final", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteErrorWithRetry(w, dErrors.New(dErrors.CodeConflict, "handle already registered"))

		require.Equal(t, http.StatusConflict, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, false, body["retryable"])
		assert.Equal(t, "handle already registered", body["error_description"])
	})

	t.Run("server failures keep their verdict", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteErrorWithRetry(w, dErrors.WrapRetryable(errors.New("slow"), dErrors.CodeTimeout, "ledger slow", true))

		require.Equal(t, http.StatusGatewayTimeout, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["retryable"])
		assert.NotContains(t, body, "error_description")
	})

	t.Run("WriteError leaves it out", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeConflict, "handle already registered"))
		assert.NotContains(t, decodeBody(t, w), "retryable")
	})
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusFor(dErrors.New(dErrors.CodeMintBusy, "busy")))
	assert.Equal(t, http.StatusConflict, StatusFor(dErrors.New(dErrors.CodeConflict, "minted")))
	assert.Equal(t, http.StatusNotFound, StatusFor(dErrors.New(dErrors.CodeNotFound, "gone")))
	assert.Equal(t, http.StatusUnauthorized, StatusFor(dErrors.New(dErrors.CodeUnauthorized, "who")))
	assert.Equal(t, http.StatusForbidden, StatusFor(dErrors.New(dErrors.CodeForbidden, "not yours")))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(dErrors.New(dErrors.CodeInvalidHandle, "bad")))
}

type sampleRequest struct {
	Name string `json:"name"`
}

func (r *sampleRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cases := []struct {
		name   string
		body   string
		ok     bool
		status int
	}{
		{"valid", `{"name":"  resist "}`, true, http.StatusOK},
		{"empty body", ``, false, http.StatusBadRequest},
		{"malformed", `{"name":`, false, http.StatusBadRequest},
		{"unknown field", `{"name":"a","extra":1}`, false, http.StatusBadRequest},
		{"fails validation", `{"name":"  "}`, false, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			w := httptest.NewRecorder()

			req, ok := DecodeAndPrepare[sampleRequest](w, r, logger, r.Context(), "req-1")
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, "resist", req.Name)
				return
			}
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
