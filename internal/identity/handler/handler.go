package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"parsid/internal/identity/service"
	"parsid/internal/platform/middleware"
	id "parsid/pkg/domain"
	dErrors "parsid/pkg/domain-errors"
	"parsid/pkg/platform/httputil"
	"parsid/pkg/requestcontext"
)

// Service defines the wizard operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context) (service.View, error)
	Get(ctx context.Context, wizardID id.WizardID) (service.View, error)
	Start(ctx context.Context, wizardID id.WizardID) (service.View, error)
	SubmitHandle(ctx context.Context, wizardID id.WizardID, handle string) (service.View, error)
	SubmitSecurity(ctx context.Context, wizardID id.WizardID, normal, duress string, deadManDays *int) (service.View, error)
	GoBack(ctx context.Context, wizardID id.WizardID) (service.View, error)
	StartOver(ctx context.Context, wizardID id.WizardID) (service.View, error)
	Mint(ctx context.Context, wizardID id.WizardID) (service.View, error)
}

// Handler serves the identity wizard endpoints.
type Handler struct {
	service      Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
	mintTimeout  time.Duration
}

// DefaultMintTimeout bounds a mint request end to end.
const DefaultMintTimeout = 20 * time.Second

func New(svc Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		service:      svc,
		logger:       logger,
		jwtValidator: jwtValidator,
		mintTimeout:  DefaultMintTimeout,
	}
}

// Register registers the wizard routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	wizardRouter := chi.NewRouter()
	wizardRouter.Use(middleware.Recovery(h.logger))
	wizardRouter.Use(middleware.RequestID)
	wizardRouter.Use(middleware.Logger(h.logger))
	wizardRouter.Use(middleware.ContentTypeJSON)
	wizardRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	wizardRouter.Post("/", h.handleCreate)
	wizardRouter.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Post("/start", h.handleStart)
		r.Post("/handle", h.handleSubmitHandle)
		r.Post("/security", h.handleSubmitSecurity)
		r.Post("/mint", h.handleMint)
		r.Post("/back", h.handleGoBack)
		r.Post("/reset", h.handleStartOver)
	})

	r.Mount("/wizards", wizardRouter)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Create(r.Context())
	if err != nil {
		h.fail(w, r, "create", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, view)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, "get", h.service.Get)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, "start", h.service.Start)
}

func (h *Handler) handleGoBack(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, "back", h.service.GoBack)
}

func (h *Handler) handleStartOver(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, "reset", h.service.StartOver)
}

func (h *Handler) handleSubmitHandle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wizardID, ok := h.wizardID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubmitHandleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	view, err := h.service.SubmitHandle(ctx, wizardID, req.Handle)
	h.respond(w, r, "handle", view, err)
}

func (h *Handler) handleSubmitSecurity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wizardID, ok := h.wizardID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubmitSecurityRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	view, err := h.service.SubmitSecurity(ctx, wizardID, req.NormalPassword, req.DuressPassword, req.DeadManDays)
	h.respond(w, r, "security", view, err)
}

// handleMint keeps the registrar call bound to the request, so a client
// disconnect cancels it.
func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	wizardID, ok := h.wizardID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.mintTimeout)
	defer cancel()

	view, err := h.service.Mint(ctx, wizardID)
	h.respond(w, r, "mint", view, err)
}

func (h *Handler) withWizard(w http.ResponseWriter, r *http.Request, action string, op func(context.Context, id.WizardID) (service.View, error)) {
	wizardID, ok := h.wizardID(w, r)
	if !ok {
		return
	}
	view, err := op(r.Context(), wizardID)
	h.respond(w, r, action, view, err)
}

func (h *Handler) wizardID(w http.ResponseWriter, r *http.Request) (id.WizardID, bool) {
	wizardID, err := id.ParseWizardID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "wizard not found or expired"))
		return id.WizardID{}, false
	}
	return wizardID, true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, action string, view service.View, err error) {
	if err != nil {
		h.fail(w, r, action, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	ctx := r.Context()
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"action", action,
		"error_code", dErrors.CodeOf(err),
	}
	if httputil.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "wizard action failed", append(attrs, "error", err)...)
	} else {
		h.logger.InfoContext(ctx, "wizard action rejected", attrs...)
	}
	httputil.WriteError(w, err)
}
