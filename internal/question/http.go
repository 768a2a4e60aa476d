package question

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/question-bank/pkg/http/errors"
)

// Middleware wraps a handler (auth guards, instrumentation).
type Middleware func(http.Handler) http.Handler

// HTTPHandler exposes the question collection over REST.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandler constructs a question HTTP handler.
func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "question_http").Logger(),
	}
}

// Register mounts the routes on mux. Mutating routes are wrapped by guard when non-nil.
//
//	GET    /api/questions
//	GET    /api/questions/{id}
//	POST   /api/questions
//	PUT    /api/questions/{id}
//	DELETE /api/questions/{id}
func (h *HTTPHandler) Register(mux *http.ServeMux, guard Middleware) {
	if guard == nil {
		guard = func(next http.Handler) http.Handler { return next }
	}
	mux.HandleFunc("GET /api/questions", h.List)
	mux.HandleFunc("GET /api/questions/{id}", h.Get)
	mux.Handle("POST /api/questions", guard(http.HandlerFunc(h.Create)))
	mux.Handle("PUT /api/questions/{id}", guard(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/questions/{id}", guard(http.HandlerFunc(h.Delete)))
}

// List handles GET /api/questions
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	qs, err := h.svc.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, qs)
}

// Get handles GET /api/questions/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, q)
}

// Create handles POST /api/questions
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in Question
	if err := httperrors.DecodeJSON(w, r, &in); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	created, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/questions/"+created.ID)
	httperrors.RespondJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/questions/{id}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in Question
	if err := httperrors.DecodeJSON(w, r, &in); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	updated, err := h.svc.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/questions/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.respondError(w, r, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, map[string]string{"message": "Question deleted"})
}

// RespondError maps store and validation failures onto HTTP responses.
func RespondError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var (
		ve      *ValidationError
		corrupt *CorruptStoreError
		persist *PersistenceError
	)
	switch {
	case errors.Is(err, ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeQuestionNotFound, "Question not found")
	case errors.As(err, &ve):
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, ve.Message, ve.Field)
	case errors.Is(err, ErrDuplicateID):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeAlreadyExists, "Question id already exists")
	case errors.As(err, &corrupt):
		logger.Error().Err(err).Msg("question store corrupt")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeStoreCorrupt, "Question store is corrupt")
	case errors.As(err, &persist):
		logger.Error().Err(err).Msg("question store write failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeStorageError, "Failed to persist questions")
	case errors.Is(err, ErrStoreClosed):
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Question store unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Request cancelled")
	default:
		logger.Error().Err(err).Msg("question request failed")
		httperrors.RespondInternalError(w, "Internal server error")
	}
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	RespondError(w, h.logger.With().Str("path", r.URL.Path).Logger(), err)
}
