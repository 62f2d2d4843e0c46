package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"parsid/internal/registrar"
	dErrors "parsid/pkg/domain-errors"
	"parsid/pkg/platform/httputil"
	"parsid/pkg/platform/sentinel"
	"parsid/pkg/requestcontext"
)

// Service is the registrar behaviour the HTTP layer exposes.
type Service interface {
	Register(ctx context.Context, req registrar.MintRequest) (registrar.Receipt, error)
	Lookup(ctx context.Context, handle string) (registrar.Record, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the registrar endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/identities", h.HandleRegister)
	r.Get("/identities/{handle}", h.HandleLookup)
}

// RegisterRequest is the body of POST /identities.
type RegisterRequest struct {
	registrar.MintRequest
}

// Validate only checks presence; the ledger owns the registration rules.
func (r *RegisterRequest) Validate() error {
	if r.Handle == "" {
		return dErrors.New(dErrors.CodeValidation, "handle is required")
	}
	return nil
}

// HandleRegister handles POST /identities.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepareWith[RegisterRequest](w, r, h.logger, ctx, requestID, httputil.WriteErrorWithRetry)
	if !ok {
		return
	}

	receipt, err := h.service.Register(ctx, req.MintRequest)
	if err != nil {
		h.logger.WarnContext(ctx, "registration refused",
			"request_id", requestID,
			"category", registrar.CategoryOf(err),
		)
		httputil.WriteErrorWithRetry(w, toDomainError(err))
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, receipt)
}

// HandleLookup handles GET /identities/{handle}.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Lookup(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteErrorWithRetry(w, dErrors.New(dErrors.CodeNotFound, "handle not registered"))
			return
		}
		httputil.WriteErrorWithRetry(w, dErrors.Wrap(err, dErrors.CodeInternal, "lookup failed"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// toDomainError carries the registrar's retry verdict so every failure body
// tells the client whether to try again.
func toDomainError(err error) error {
	var re *registrar.Error
	if !errors.As(err, &re) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "registration failed")
	}
	code := dErrors.CodeInternal
	switch re.Category {
	case registrar.CategoryHandleTaken:
		code = dErrors.CodeConflict
	case registrar.CategoryRejected:
		code = dErrors.CodeValidation
	case registrar.CategoryCanceled, registrar.CategoryTimeout:
		code = dErrors.CodeTimeout
	}
	return dErrors.WrapRetryable(err, code, re.Message, re.Retryable)
}
