// Package testutil drives handlers in-process and reads their JSON replies.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"parsid/pkg/platform/httputil"
)

// Call builds a request and serves it through h. A string body is sent
// verbatim so tests can submit malformed JSON; any other non-nil body is
// JSON-encoded. A non-empty token is sent as a bearer credential.
func Call(t *testing.T, h http.Handler, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		payload = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err, "encode request body")
		payload = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, payload)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		WithBearer(req, token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// Decode requires status and decodes the reply into T.
func Decode[T any](t *testing.T, rr *httptest.ResponseRecorder, status int) T {
	t.Helper()
	require.Equal(t, status, rr.Code, "status; body: %s", rr.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "decode reply")
	return out
}

// Failure requires status and the error code, returning the decoded body.
func Failure(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) httputil.ErrorResponse {
	t.Helper()
	body := Decode[httputil.ErrorResponse](t, rr, status)
	require.Equal(t, code, body.Error, "error code")
	return body
}

// Fields decodes a successful reply as a flat JSON object.
func Fields(t *testing.T, rr *httptest.ResponseRecorder, status int) map[string]any {
	t.Helper()
	return Decode[map[string]any](t, rr, status)
}
