// Package httputil holds the JSON response helpers shared by HTTP handlers.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "parsid/pkg/domain-errors"
)

const maxRequestBytes = 1 << 20

// ErrorResponse is the wire shape of every error.
type ErrorResponse struct {
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description,omitempty"`
	Retryable        *bool             `json:"retryable,omitempty"`
	Fields           map[string]string `json:"fields,omitempty"`
}

// WriteJSON encodes payload with status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// ErrorWriter renders a failed request.
type ErrorWriter func(w http.ResponseWriter, err error)

// WriteError translates err into a status and error body. Internal failures
// never expose their message. Only mint_failed carries a retryable flag.
func WriteError(w http.ResponseWriter, err error) {
	resp, status := errorResponse(err)
	if resp.Error == string(dErrors.CodeMintFailed) {
		retryable := dErrors.IsRetryable(err)
		resp.Retryable = &retryable
	}
	WriteJSON(w, status, resp)
}

// WriteErrorWithRetry is WriteError for services whose clients decide
// whether to retry from the body: every failure carries the retryable flag.
func WriteErrorWithRetry(w http.ResponseWriter, err error) {
	resp, status := errorResponse(err)
	retryable := dErrors.IsRetryable(err)
	resp.Retryable = &retryable
	WriteJSON(w, status, resp)
}

func errorResponse(err error) (ErrorResponse, int) {
	code := dErrors.CodeOf(err)
	status := StatusFor(err)

	resp := ErrorResponse{Error: string(code)}
	if status < http.StatusInternalServerError || code == dErrors.CodeMintFailed {
		resp.ErrorDescription = dErrors.MessageOf(err)
		resp.Fields = dErrors.FieldsOf(err)
	}
	return resp, status
}

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeValidation, dErrors.CodeInvalidHandle,
		dErrors.CodeWeakPassword, dErrors.CodeDuplicatePassword:
		return http.StatusUnprocessableEntity
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeMintBusy,
		dErrors.CodeInvalidTransition, dErrors.CodeStaleResult:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeMintFailed:
		if dErrors.IsRetryable(err) {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Validatable request bodies check and normalize themselves after decoding.
type Validatable interface {
	Validate() error
}

// DecodeAndPrepare decodes the JSON body into T and validates it. On failure
// it writes the error response and returns false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	return DecodeAndPrepareWith[T, PT](w, r, logger, ctx, requestID, WriteError)
}

// DecodeAndPrepareWith is DecodeAndPrepare with a custom error renderer.
func DecodeAndPrepareWith[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string, writeErr ErrorWriter) (*T, bool) {
	var req T
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request",
			"request_id", requestID,
			"error", err,
		)
		if errors.Is(err, io.EOF) {
			writeErr(w, dErrors.New(dErrors.CodeBadRequest, "request body is required"))
		} else {
			writeErr(w, dErrors.New(dErrors.CodeBadRequest, "invalid json payload"))
		}
		return nil, false
	}
	if err := PT(&req).Validate(); err != nil {
		logger.WarnContext(ctx, "invalid request",
			"request_id", requestID,
			"error_code", dErrors.CodeOf(err),
		)
		writeErr(w, err)
		return nil, false
	}
	return &req, true
}
