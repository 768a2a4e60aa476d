package dashboard

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/question-bank/internal/question"
	httperrors "github.com/gokatarajesh/question-bank/pkg/http/errors"
)

type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "dashboard_http").Logger(),
	}
}

// Register mounts the read-only dashboard routes.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/dashboard/stats", h.Stats)
	mux.HandleFunc("GET /api/dashboard/activity", h.Activity)
	mux.HandleFunc("GET /api/dashboard/categories", h.Categories)
	mux.HandleFunc("GET /api/dashboard/recent-questions", h.Recent)
}

func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	h.respond(w, st, err)
}

func (h *HTTPHandler) Activity(w http.ResponseWriter, r *http.Request) {
	points, err := h.svc.Activity(r.Context())
	h.respond(w, points, err)
}

func (h *HTTPHandler) Categories(w http.ResponseWriter, r *http.Request) {
	shares, err := h.svc.Categories(r.Context())
	h.respond(w, shares, err)
}

func (h *HTTPHandler) Recent(w http.ResponseWriter, r *http.Request) {
	recent, err := h.svc.Recent(r.Context())
	h.respond(w, recent, err)
}

func (h *HTTPHandler) respond(w http.ResponseWriter, payload any, err error) {
	if err != nil {
		question.RespondError(w, h.logger, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, payload)
}
