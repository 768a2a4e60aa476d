package auth

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/question-bank/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for authentication.
type HTTPHandlers struct {
	authSvc *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for auth endpoints.
func NewHTTPHandlers(authSvc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		authSvc: authSvc,
		logger:  logger.With().Str("component", "auth_http").Logger(),
	}
}

func (h *HTTPHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
}

// Login handles POST /api/auth/login
func (h *HTTPHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if !h.authSvc.Enabled() {
		httperrors.RespondNotFound(w, httperrors.ErrCodeAuthDisabled, "Authentication is not enabled")
		return
	}

	var req LoginRequest
	if err := httperrors.DecodeJSON(w, r, &req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.Username == "" || req.Password == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "username and password are required", "username")
		return
	}

	tokens, err := h.authSvc.Login(r.Context(), req)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeLoginFailed, "Invalid username or password")
	case err != nil:
		h.logger.Error().Err(err).Msg("login failed")
		httperrors.RespondInternalError(w, "Failed to issue token")
	default:
		httperrors.RespondJSON(w, http.StatusOK, tokens)
	}
}
