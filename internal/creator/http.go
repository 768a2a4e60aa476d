package creator

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/question-bank/internal/question"
	httperrors "github.com/gokatarajesh/question-bank/pkg/http/errors"
)

// HTTPHandler exposes the authoring endpoints.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "creator_http").Logger(),
	}
}

// Register mounts the creator routes; writes go through guard.
func (h *HTTPHandler) Register(mux *http.ServeMux, guard question.Middleware) {
	if guard == nil {
		guard = func(next http.Handler) http.Handler { return next }
	}
	mux.HandleFunc("GET /api/creator/categories", h.Categories)
	mux.HandleFunc("GET /api/creator/difficulties", h.Difficulties)
	mux.HandleFunc("GET /api/creator/drafts", h.ListDrafts)
	mux.Handle("POST /api/creator/drafts", guard(http.HandlerFunc(h.SaveDraft)))
	mux.Handle("DELETE /api/creator/drafts/{id}", guard(http.HandlerFunc(h.DeleteDraft)))
	mux.Handle("POST /api/creator/drafts/{id}/publish", guard(http.HandlerFunc(h.PublishDraft)))
	mux.Handle("POST /api/creator/questions", guard(http.HandlerFunc(h.Submit)))
}

func (h *HTTPHandler) Categories(w http.ResponseWriter, _ *http.Request) {
	httperrors.RespondJSON(w, http.StatusOK, h.svc.Categories())
}

func (h *HTTPHandler) Difficulties(w http.ResponseWriter, _ *http.Request) {
	httperrors.RespondJSON(w, http.StatusOK, h.svc.Difficulties())
}

func (h *HTTPHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	httperrors.RespondJSON(w, http.StatusOK, h.svc.Drafts(r.Context()))
}

func (h *HTTPHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var in question.Question
	if err := httperrors.DecodeJSON(w, r, &in); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	d, err := h.svc.SaveDraft(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusCreated, d)
}

func (h *HTTPHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteDraft(r.Context(), r.PathValue("id")); err != nil {
		h.respondError(w, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, map[string]string{"message": "Draft deleted"})
}

func (h *HTTPHandler) PublishDraft(w http.ResponseWriter, r *http.Request) {
	created, err := h.svc.PublishDraft(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Location", "/api/questions/"+created.ID)
	httperrors.RespondJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in question.Question
	if err := httperrors.DecodeJSON(w, r, &in); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	created, err := h.svc.Submit(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Location", "/api/questions/"+created.ID)
	httperrors.RespondJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrDraftNotFound) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeDraftNotFound, "Draft not found")
		return
	}
	question.RespondError(w, h.logger, err)
}
